package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
)

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func mockStore(mt *mtest.T) *Store {
	return &Store{cli: mt.Client, db: mt.DB, now: func() time.Time { return fixedNow }}
}

func guestDoc(id, slug string, status db.GuestPostStatus, views int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ada"},
		{Key: "email", Value: "ada@example.com"},
		{Key: "articleTitle", Value: "Hello"},
		{Key: "slug", Value: slug},
		{Key: "views", Value: views},
		{Key: "status", Value: string(status)},
		{Key: "authorType", Value: db.AuthorTypeGuest},
		{Key: "createdAt", Value: fixedNow},
		{Key: "updatedAt", Value: fixedNow},
	}
}

// findAndModifyReply 模拟 findAndModify 的返回，doc 为 nil 表示没有匹配的文档。
func findAndModifyReply(doc interface{}) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func findReply(mt *mtest.T, col string, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mt.DB.Name()+"."+col, mtest.FirstBatch, docs...)
}

func duplicateKeyReply() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Code:    11000,
		Message: "E11000 duplicate key error collection: slug_1 dup key",
	})
}

func TestGuestPostUpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("moves matching status", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(findAndModifyReply(guestDoc("g1", "hello", db.GuestApproved, 0)))

		post, err := repo.UpdateStatus(ctx, "g1", []db.GuestPostStatus{db.GuestPending}, db.GuestApproved)
		require.NoError(mt, err)
		require.Equal(mt, db.GuestApproved, post.Status)
		require.Equal(mt, "g1", post.ID)

		evt := mt.GetStartedEvent()
		require.Equal(mt, "findAndModify", evt.CommandName)
		require.True(mt, evt.Command.Lookup("new").Boolean())
		require.Equal(mt, "g1", evt.Command.Lookup("query", "_id").StringValue())
		from := evt.Command.Lookup("query", "status", "$in").Array()
		require.Equal(mt, "pending", from.Index(0).Value().StringValue())
		require.Equal(mt, "approved", evt.Command.Lookup("update", "$set", "status").StringValue())
	})

	mt.Run("status changed by someone else", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(
			findAndModifyReply(nil),
			findReply(mt, colGuestPosts, guestDoc("g1", "hello", db.GuestRejected, 0)),
		)

		current, err := repo.UpdateStatus(ctx, "g1", []db.GuestPostStatus{db.GuestPending}, db.GuestApproved)
		require.True(mt, errors.Is(err, store.ErrConflict), "got %v", err)
		require.NotNil(mt, current)
		require.Equal(mt, db.GuestRejected, current.Status)
	})

	mt.Run("missing id", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(
			findAndModifyReply(nil),
			findReply(mt, colGuestPosts),
		)

		current, err := repo.UpdateStatus(ctx, "missing", nil, db.GuestRejected)
		require.True(mt, errors.Is(err, store.ErrNotFound), "got %v", err)
		require.Nil(mt, current)
	})
}

func TestGuestPostIncrementViews(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("returns counter after increment", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(findAndModifyReply(guestDoc("g1", "hello", db.GuestPublished, 4)))

		post, err := repo.IncrementViews(ctx, "hello")
		require.NoError(mt, err)
		require.EqualValues(mt, 4, post.Views)

		evt := mt.GetStartedEvent()
		require.True(mt, evt.Command.Lookup("new").Boolean())
		require.Equal(mt, "published", evt.Command.Lookup("query", "status").StringValue())
		require.EqualValues(mt, 1, evt.Command.Lookup("update", "$inc", "views").AsInt64())
	})

	mt.Run("unpublished or missing slug", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(findAndModifyReply(nil))

		_, err := repo.IncrementViews(ctx, "nope")
		require.True(mt, errors.Is(err, store.ErrNotFound), "got %v", err)
	})
}

func TestCreateDuplicateSlugConflicts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("guest post", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(duplicateKeyReply())

		post := &db.GuestPost{Name: "Ada", ArticleTitle: "Hello", Slug: "hello", Status: db.GuestPending}
		err := repo.Create(ctx, post)
		require.True(mt, errors.Is(err, store.ErrConflict), "got %v", err)
		require.NotEmpty(mt, post.ID)
		require.Equal(mt, fixedNow, post.CreatedAt)
	})

	mt.Run("blog", func(mt *mtest.T) {
		repo := mockStore(mt).Blogs()
		mt.AddMockResponses(duplicateKeyReply())

		err := repo.Create(ctx, &db.Blog{Title: "Hello", Slug: "hello", Status: db.BlogDraft})
		require.True(mt, errors.Is(err, store.ErrConflict), "got %v", err)
	})

	mt.Run("category", func(mt *mtest.T) {
		repo := mockStore(mt).Categories()
		mt.AddMockResponses(duplicateKeyReply())

		err := repo.Create(ctx, &db.Category{Name: "Tech", Slug: "tech"})
		require.True(mt, errors.Is(err, store.ErrConflict), "got %v", err)
	})

	mt.Run("created", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Create(ctx, &db.GuestPost{Name: "Ada", ArticleTitle: "Hello", Slug: "hello"}))
	})
}

func TestUpdateAndDeleteMissingID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("update matches nothing", func(mt *mtest.T) {
		repo := mockStore(mt).GuestPosts()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Update(ctx, &db.GuestPost{Model: db.Model{ID: "missing"}, Name: "Ada"})
		require.True(mt, errors.Is(err, store.ErrNotFound), "got %v", err)
	})

	mt.Run("update duplicate slug", func(mt *mtest.T) {
		repo := mockStore(mt).Blogs()
		mt.AddMockResponses(duplicateKeyReply())

		err := repo.Update(ctx, &db.Blog{Model: db.Model{ID: "b1"}, Title: "Hello", Slug: "taken"})
		require.True(mt, errors.Is(err, store.ErrConflict), "got %v", err)
	})

	mt.Run("delete matches nothing", func(mt *mtest.T) {
		repo := mockStore(mt).Categories()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(ctx, "missing")
		require.True(mt, errors.Is(err, store.ErrNotFound), "got %v", err)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := mockStore(mt).Blogs()
		mt.AddMockResponses(findReply(mt, colBlogs))

		_, err := repo.Get(ctx, "missing")
		require.True(mt, errors.Is(err, store.ErrNotFound), "got %v", err)
	})
}
