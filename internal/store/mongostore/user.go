package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lumina/internal/db"
)

type userRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func (r *userRepo) Get(ctx context.Context, id string) (*db.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*db.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *userRepo) findOne(ctx context.Context, filter bson.D) (*db.User, error) {
	user := new(db.User)
	if err := r.col.FindOne(ctx, filter).Decode(user); err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepo) Create(ctx context.Context, user *db.User) error {
	user.EnsureID()
	user.Touch(r.now())
	if user.Role == "" {
		user.Role = db.RoleAdmin
	}
	if _, err := r.col.InsertOne(ctx, user); err != nil {
		return translate(err)
	}
	return nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return setByID(ctx, r.col, id, bson.D{
		{Key: "password", Value: hash},
		{Key: "updatedAt", Value: r.now()},
	})
}
