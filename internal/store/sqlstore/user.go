package sqlstore

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Get(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *db.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"password": hash, "updated_at": time.Now()})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update password")
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
