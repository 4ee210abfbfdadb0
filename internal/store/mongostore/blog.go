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

type blogRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func (r *blogRepo) List(ctx context.Context, filter store.BlogFilter) ([]db.Blog, error) {
	cur, err := r.col.Find(ctx, blogQuery(filter), findOptions(filter.Page))
	if err != nil {
		return nil, errors.Wrap(err, "list blogs")
	}

	blogs := []db.Blog{}
	if err := cur.All(ctx, &blogs); err != nil {
		return nil, errors.Wrap(err, "decode blogs")
	}
	return blogs, nil
}

func (r *blogRepo) Count(ctx context.Context, filter store.BlogFilter) (int64, error) {
	total, err := r.col.CountDocuments(ctx, blogQuery(filter))
	if err != nil {
		return 0, errors.Wrap(err, "count blogs")
	}
	return total, nil
}

func (r *blogRepo) Get(ctx context.Context, id string) (*db.Blog, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *blogRepo) findOne(ctx context.Context, filter bson.D) (*db.Blog, error) {
	blog := new(db.Blog)
	if err := r.col.FindOne(ctx, filter).Decode(blog); err != nil {
		return nil, translate(err)
	}
	return blog, nil
}

func (r *blogRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	return slugExists(ctx, r.col, slug, excludeID)
}

func (r *blogRepo) Create(ctx context.Context, blog *db.Blog) error {
	blog.EnsureID()
	blog.Touch(r.now())
	if blog.Tags == nil {
		blog.Tags = []string{}
	}
	if _, err := r.col.InsertOne(ctx, blog); err != nil {
		return translate(err)
	}
	return nil
}

func (r *blogRepo) Update(ctx context.Context, blog *db.Blog) error {
	blog.UpdatedAt = r.now()
	tags := blog.Tags
	if tags == nil {
		tags = []string{}
	}
	return setByID(ctx, r.col, blog.ID, bson.D{
		{Key: "title", Value: blog.Title},
		{Key: "slug", Value: blog.Slug},
		{Key: "content", Value: blog.Content},
		{Key: "featuredImage", Value: blog.FeaturedImage},
		{Key: "categoryId", Value: blog.CategoryID},
		{Key: "authorId", Value: blog.AuthorID},
		{Key: "metaTitle", Value: blog.MetaTitle},
		{Key: "metaDescription", Value: blog.MetaDescription},
		{Key: "tags", Value: tags},
		{Key: "status", Value: string(blog.Status)},
		{Key: "updatedAt", Value: blog.UpdatedAt},
	})
}

func (r *blogRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.col, id)
}

func (r *blogRepo) IncrementViews(ctx context.Context, slug string) (*db.Blog, error) {
	blog := new(db.Blog)
	err := r.col.FindOneAndUpdate(ctx,
		bson.D{{Key: "slug", Value: slug}, {Key: "status", Value: string(db.BlogPublished)}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(blog)
	if err != nil {
		return nil, translate(err)
	}
	return blog, nil
}

func (r *blogRepo) SumViews(ctx context.Context) (int64, error) {
	return sumViews(ctx, r.col)
}

func (r *blogRepo) CountByCategory(ctx context.Context, status db.BlogStatus) (map[string]int64, error) {
	pipeline := mongo.Pipeline{}
	if status != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: string(status)}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: "$categoryId"},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}})

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "count blogs by category")
	}

	var rows []struct {
		CategoryID string `bson:"_id"`
		Count      int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decode category counts")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Count
	}
	return counts, nil
}
