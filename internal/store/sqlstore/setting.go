package sqlstore

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/lumina/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settingRepo struct {
	db *gorm.DB
}

func (r *settingRepo) GetAll(ctx context.Context, keys []string) (map[string]string, error) {
	var records []db.SystemSetting
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "load system settings")
	}

	values := make(map[string]string, len(records))
	for _, record := range records {
		values[record.Key] = record.Value
	}
	return values, nil
}

func (r *settingRepo) Upsert(ctx context.Context, values map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			if err := upsertSetting(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return errors.Wrapf(err, "upsert setting %s", key)
	}
	return nil
}
