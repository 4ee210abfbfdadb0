package mongostore

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lumina/internal/db"
)

type settingRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func (r *settingRepo) GetAll(ctx context.Context, keys []string) (map[string]string, error) {
	cur, err := r.col.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}})
	if err != nil {
		return nil, errors.Wrap(err, "load system settings")
	}

	var records []db.SystemSetting
	if err := cur.All(ctx, &records); err != nil {
		return nil, errors.Wrap(err, "decode system settings")
	}

	values := make(map[string]string, len(records))
	for _, record := range records {
		values[record.Key] = record.Value
	}
	return values, nil
}

func (r *settingRepo) Upsert(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	now := r.now()
	models := make([]mongo.WriteModel, 0, len(values))
	for key, value := range values {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: key}}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{
				{Key: "value", Value: value},
				{Key: "updatedAt", Value: now},
			}}}).
			SetUpsert(true))
	}

	if _, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return errors.Wrap(err, "upsert system settings")
	}
	return nil
}
