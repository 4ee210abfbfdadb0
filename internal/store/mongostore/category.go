package mongostore

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
)

type categoryRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func (r *categoryRepo) List(ctx context.Context) ([]db.Category, error) {
	cur, err := r.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	categories := []db.Category{}
	if err := cur.All(ctx, &categories); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categories, nil
}

func (r *categoryRepo) Get(ctx context.Context, id string) (*db.Category, error) {
	category := new(db.Category)
	if err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(category); err != nil {
		return nil, translate(err)
	}
	return category, nil
}

func (r *categoryRepo) FindByKey(ctx context.Context, key string) (*db.Category, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, store.ErrNotFound
	}

	category := new(db.Category)
	if err := r.col.FindOne(ctx, categoryKeyQuery(key)).Decode(category); err != nil {
		return nil, translate(err)
	}
	return category, nil
}

func (r *categoryRepo) NameOrSlugTaken(ctx context.Context, name, slug, excludeID string) (bool, error) {
	count, err := r.col.CountDocuments(ctx, categoryTakenQuery(name, slug, excludeID))
	if err != nil {
		return false, errors.Wrap(err, "check category uniqueness")
	}
	return count > 0, nil
}

func (r *categoryRepo) Create(ctx context.Context, category *db.Category) error {
	category.EnsureID()
	category.Touch(r.now())
	if _, err := r.col.InsertOne(ctx, category); err != nil {
		return translate(err)
	}
	return nil
}

func (r *categoryRepo) Update(ctx context.Context, category *db.Category) error {
	category.UpdatedAt = r.now()
	return setByID(ctx, r.col, category.ID, bson.D{
		{Key: "name", Value: category.Name},
		{Key: "slug", Value: category.Slug},
		{Key: "description", Value: category.Description},
		{Key: "updatedAt", Value: category.UpdatedAt},
	})
}

func (r *categoryRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}
