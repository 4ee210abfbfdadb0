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

type categoryRepo struct {
	db *gorm.DB
}

func (r *categoryRepo) List(ctx context.Context) ([]db.Category, error) {
	var categories []db.Category
	if err := r.db.WithContext(ctx).Order("name asc").Order("id asc").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return categories, nil
}

func (r *categoryRepo) Get(ctx context.Context, id string) (*db.Category, error) {
	var category db.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepo) FindByKey(ctx context.Context, key string) (*db.Category, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, store.ErrNotFound
	}

	var category db.Category
	if err := r.db.WithContext(ctx).
		Where("id = ? OR slug = ? OR name = ? COLLATE NOCASE", key, strings.ToLower(key), key).
		Order("created_at asc").
		First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepo) NameOrSlugTaken(ctx context.Context, name, slug, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&db.Category{}).
		Where("(name = ? COLLATE NOCASE OR slug = ?)", strings.TrimSpace(name), slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "check category uniqueness")
	}
	return count > 0, nil
}

func (r *categoryRepo) Create(ctx context.Context, category *db.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *categoryRepo) Update(ctx context.Context, category *db.Category) error {
	category.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(category).
		Select("name", "slug", "description", "updated_at").
		Updates(category)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Category{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete category")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
