package mongostore

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
)

type guestPostRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func (r *guestPostRepo) List(ctx context.Context, filter store.GuestPostFilter) ([]db.GuestPost, error) {
	cur, err := r.col.Find(ctx, guestPostQuery(filter), findOptions(filter.Page))
	if err != nil {
		return nil, errors.Wrap(err, "list guest posts")
	}

	posts := []db.GuestPost{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "decode guest posts")
	}
	return posts, nil
}

func (r *guestPostRepo) Count(ctx context.Context, filter store.GuestPostFilter) (int64, error) {
	total, err := r.col.CountDocuments(ctx, guestPostQuery(filter))
	if err != nil {
		return 0, errors.Wrap(err, "count guest posts")
	}
	return total, nil
}

func (r *guestPostRepo) Get(ctx context.Context, id string) (*db.GuestPost, error) {
	post := new(db.GuestPost)
	if err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(post); err != nil {
		return nil, translate(err)
	}
	return post, nil
}

func (r *guestPostRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.col, slug, excludeID)
}

func (r *guestPostRepo) Create(ctx context.Context, post *db.GuestPost) error {
	post.EnsureID()
	post.Touch(r.now())
	if _, err := r.col.InsertOne(ctx, post); err != nil {
		return translate(err)
	}
	return nil
}

func (r *guestPostRepo) Update(ctx context.Context, post *db.GuestPost) error {
	post.UpdatedAt = r.now()
	return setByID(ctx, r.col, post.ID, bson.D{
		{Key: "name", Value: post.Name},
		{Key: "email", Value: post.Email},
		{Key: "website", Value: post.Website},
		{Key: "articleTitle", Value: post.ArticleTitle},
		{Key: "slug", Value: post.Slug},
		{Key: "articleContent", Value: post.ArticleContent},
		{Key: "category", Value: post.Category},
		{Key: "categoryId", Value: post.CategoryID},
		{Key: "image", Value: post.Image},
		{Key: "backlink", Value: post.Backlink},
		{Key: "anchorText", Value: post.AnchorText},
		{Key: "updatedAt", Value: post.UpdatedAt},
	})
}

func (r *guestPostRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *guestPostRepo) UpdateStatus(ctx context.Context, id string, from []db.GuestPostStatus, to db.GuestPostStatus) (*db.GuestPost, error) {
	filter := bson.D{{Key: "_id", Value: id}}
	if len(from) > 0 {
		statuses := make(bson.A, 0, len(from))
		for _, status := range from {
			statuses = append(statuses, string(status))
		}
		filter = append(filter, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: statuses}}})
	}

	post := new(db.GuestPost)
	err := r.col.FindOneAndUpdate(ctx, filter,
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(to)},
			{Key: "updatedAt", Value: r.now()},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(post)
	if err == nil {
		return post, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrap(err, "update guest post status")
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return current, store.ErrConflict
}

func (r *guestPostRepo) IncrementViews(ctx context.Context, slug string) (*db.GuestPost, error) {
	post := new(db.GuestPost)
	err := r.col.FindOneAndUpdate(ctx,
		bson.D{{Key: "slug", Value: slug}, {Key: "status", Value: string(db.GuestPublished)}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(post)
	if err != nil {
		return nil, translate(err)
	}
	return post, nil
}

func (r *guestPostRepo) SumViews(ctx context.Context) (int64, error) {
	return sumViews(ctx, r.col)
}
