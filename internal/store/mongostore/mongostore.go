// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"net/url"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lumina/internal/log"
	"github.com/lumina/internal/store"
)

const (
	defaultTimeout = 30 * time.Second

	colBlogs      = "blogs"
	colGuestPosts = "guestposts"
	colCategories = "categories"
	colUsers      = "users"
	colSettings   = "settings"
)

// DialInfo defines the MongoDB connection information.
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
	AuthDB string
}

// Store keeps one long-lived client and hands out collection-backed repositories.
type Store struct {
	cli *mongo.Client
	db  *mongo.Database
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// buildURI builds a MongoDB connection URI from the given dial info.
func buildURI(dialInfo DialInfo) string {
	uri := &url.URL{
		Scheme: "mongodb",
		Host:   dialInfo.Addr,
		Path:   "/" + dialInfo.DBName,
	}
	if dialInfo.User != "" || dialInfo.Pwd != "" {
		uri.User = url.UserPassword(dialInfo.User, dialInfo.Pwd)
	}
	if dialInfo.AuthDB != "" {
		query := url.Values{}
		query.Set("authSource", dialInfo.AuthDB)
		uri.RawQuery = query.Encode()
	}
	return uri.String()
}

// New connects, pings and makes sure the unique indexes exist.
func New(ctx context.Context, dialInfo DialInfo) (*Store, error) {
	log.Logger.Info("try to connect to mongodb",
		zap.String("addr", dialInfo.Addr),
		zap.String("db", dialInfo.DBName),
	)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(buildURI(dialInfo)).
		SetConnectTimeout(defaultTimeout).
		SetServerSelectionTimeout(defaultTimeout).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetMaxPoolSize(100)

	cli, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect db")
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping db")
	}

	s := &Store{cli: cli, db: cli.Database(dialInfo.DBName), now: time.Now}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	byStatusAndDate := mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
	}

	indexes := map[string][]mongo.IndexModel{
		colBlogs:      {unique("slug"), byStatusAndDate, {Keys: bson.D{{Key: "categoryId", Value: 1}}}},
		colGuestPosts: {unique("slug"), byStatusAndDate},
		colCategories: {unique("name"), unique("slug")},
		colUsers:      {unique("username")},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create indexes for %s", col)
		}
	}
	return nil
}

func (s *Store) Blogs() store.BlogRepository {
	return &blogRepo{col: s.db.Collection(colBlogs), now: s.now}
}

func (s *Store) GuestPosts() store.GuestPostRepository {
	return &guestPostRepo{col: s.db.Collection(colGuestPosts), now: s.now}
}

func (s *Store) Categories() store.CategoryRepository {
	return &categoryRepo{col: s.db.Collection(colCategories), now: s.now}
}

func (s *Store) Users() store.UserRepository {
	return &userRepo{col: s.db.Collection(colUsers), now: s.now}
}

func (s *Store) Settings() store.SettingRepository {
	return &settingRepo{col: s.db.Collection(colSettings), now: s.now}
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.cli.Ping(ctx, readpref.Primary())
}

// Close disconnects with a bounded timeout.
func (s *Store) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	closeCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return s.cli.Disconnect(closeCtx)
}

// translate maps driver errors to store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(store.ErrConflict, err.Error())
	default:
		return err
	}
}

func findOptions(page store.Page) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if page.Offset > 0 {
		opts.SetSkip(int64(page.Offset))
	}
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	return opts
}

func sumViews(ctx context.Context, col *mongo.Collection) (int64, error) {
	cur, err := col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$views"}}},
		}}},
	})
	if err != nil {
		return 0, errors.Wrapf(err, "sum views of %s", col.Name())
	}

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, errors.Wrapf(err, "decode views of %s", col.Name())
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func slugExists(ctx context.Context, col *mongo.Collection, slug, excludeID string) (bool, error) {
	count, err := col.CountDocuments(ctx, excludeIDFilter(bson.D{{Key: "slug", Value: slug}}, excludeID))
	if err != nil {
		return false, errors.Wrapf(err, "check slug in %s", col.Name())
	}
	return count > 0, nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string) error {
	result, err := col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return errors.Wrapf(err, "delete from %s", col.Name())
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func setByID(ctx context.Context, col *mongo.Collection, id string, set bson.D) error {
	result, err := col.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
