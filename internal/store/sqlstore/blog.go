package sqlstore

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
	"gorm.io/gorm"
)

var blogUpdateColumns = []string{
	"title", "slug", "content", "featured_image", "category_id", "author_id",
	"meta_title", "meta_description", "tags", "status", "updated_at",
}

type blogRepo struct {
	db *gorm.DB
}

func (r *blogRepo) scoped(ctx context.Context, filter store.BlogFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&db.Blog{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ExcludeSlug != "" {
		query = query.Where("slug <> ?", filter.ExcludeSlug)
	}
	return query
}

func (r *blogRepo) List(ctx context.Context, filter store.BlogFilter) ([]db.Blog, error) {
	var blogs []db.Blog
	query := applyPage(r.scoped(ctx, filter), filter.Page).
		Order("created_at desc").
		Order("id desc")
	if err := query.Find(&blogs).Error; err != nil {
		return nil, errors.Wrap(err, "list blogs")
	}
	return blogs, nil
}

func (r *blogRepo) Count(ctx context.Context, filter store.BlogFilter) (int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return 0, errors.Wrap(err, "count blogs")
	}
	return total, nil
}

func (r *blogRepo) Get(ctx context.Context, id string) (*db.Blog, error) {
	var blog db.Blog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&blog).Error; err != nil {
		return nil, translate(err)
	}
	return &blog, nil
}

func (r *blogRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&db.Blog{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "check blog slug")
	}
	return count > 0, nil
}

func (r *blogRepo) Create(ctx context.Context, blog *db.Blog) error {
	if err := r.db.WithContext(ctx).Create(blog).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Update 只写入可编辑字段，浏览量与创建时间不受影响。
func (r *blogRepo) Update(ctx context.Context, blog *db.Blog) error {
	blog.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(blog).
		Select(blogUpdateColumns).
		Updates(blog)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *blogRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Blog{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete blog")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *blogRepo) IncrementViews(ctx context.Context, slug string) (*db.Blog, error) {
	var blog db.Blog
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Blog{}).
			Where("slug = ? AND status = ?", slug, db.BlogPublished).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Where("slug = ?", slug).First(&blog).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &blog, nil
}

func (r *blogRepo) SumViews(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&db.Blog{}).
		Select("COALESCE(SUM(views), 0)").
		Scan(&total).Error; err != nil {
		return 0, errors.Wrap(err, "sum blog views")
	}
	return total, nil
}

func (r *blogRepo) CountByCategory(ctx context.Context, status db.BlogStatus) (map[string]int64, error) {
	var rows []struct {
		CategoryID string
		Count      int64
	}

	query := r.db.WithContext(ctx).
		Model(&db.Blog{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "count blogs by category")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}
