package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
	"gorm.io/gorm"
)

// 状态字段只能经由 UpdateStatus 修改。
var guestPostUpdateColumns = []string{
	"name", "email", "website", "article_title", "slug", "article_content",
	"category", "category_id", "image", "backlink", "anchor_text", "updated_at",
}

type guestPostRepo struct {
	db *gorm.DB
}

func (r *guestPostRepo) scoped(ctx context.Context, filter store.GuestPostFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&db.GuestPost{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	// NOCASE 只折叠 ASCII，参数保持原样，两侧按同一规则比较
	categoryText := strings.TrimSpace(filter.CategoryText)
	switch {
	case filter.CategoryID != "" && categoryText != "":
		query = query.Where("(category_id = ? OR category = ? COLLATE NOCASE)", filter.CategoryID, categoryText)
	case filter.CategoryID != "":
		query = query.Where("category_id = ?", filter.CategoryID)
	case categoryText != "":
		query = query.Where("category = ? COLLATE NOCASE", categoryText)
	}

	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"(article_title LIKE ? OR name LIKE ? OR email LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	return query
}

func (r *guestPostRepo) List(ctx context.Context, filter store.GuestPostFilter) ([]db.GuestPost, error) {
	var posts []db.GuestPost
	query := applyPage(r.scoped(ctx, filter), filter.Page).
		Order("created_at desc").
		Order("id desc")
	if err := query.Find(&posts).Error; err != nil {
		return nil, errors.Wrap(err, "list guest posts")
	}
	return posts, nil
}

func (r *guestPostRepo) Count(ctx context.Context, filter store.GuestPostFilter) (int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return 0, errors.Wrap(err, "count guest posts")
	}
	return total, nil
}

func (r *guestPostRepo) Get(ctx context.Context, id string) (*db.GuestPost, error) {
	var post db.GuestPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *guestPostRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&db.GuestPost{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "check guest post slug")
	}
	return count > 0, nil
}

func (r *guestPostRepo) Create(ctx context.Context, post *db.GuestPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *guestPostRepo) Update(ctx context.Context, post *db.GuestPost) error {
	post.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(post).
		Select(guestPostUpdateColumns).
		Updates(post)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *guestPostRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.GuestPost{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete guest post")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *guestPostRepo) UpdateStatus(ctx context.Context, id string, from []db.GuestPostStatus, to db.GuestPostStatus) (*db.GuestPost, error) {
	var post db.GuestPost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&db.GuestPost{}).Where("id = ?", id)
		if len(from) > 0 {
			query = query.Where("status IN ?", from)
		}

		result := query.Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
		if result.Error != nil {
			return result.Error
		}

		if err := tx.Where("id = ?", id).First(&post).Error; err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			return store.ErrConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return &post, err
		}
		return nil, translate(err)
	}
	return &post, nil
}

func (r *guestPostRepo) IncrementViews(ctx context.Context, slug string) (*db.GuestPost, error) {
	var post db.GuestPost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.GuestPost{}).
			Where("slug = ? AND status = ?", slug, db.GuestPublished).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Where("slug = ?", slug).First(&post).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *guestPostRepo) SumViews(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&db.GuestPost{}).
		Select("COALESCE(SUM(views), 0)").
		Scan(&total).Error; err != nil {
		return 0, errors.Wrap(err, "sum guest post views")
	}
	return total, nil
}
