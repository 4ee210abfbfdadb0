package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
	"github.com/lumina/internal/store/sqlstore"
)

var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func setupServiceStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, db.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	st := sqlstore.New(gdb)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func seedCategory(t *testing.T, st store.Store, name, slug string) *db.Category {
	t.Helper()

	category := &db.Category{Name: name, Slug: slug}
	if err := st.Categories().Create(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category %s: %v", name, err)
	}
	return category
}

func seedBlog(t *testing.T, st store.Store, slug string, status db.BlogStatus, categoryID string, createdAt time.Time) *db.Blog {
	t.Helper()

	blog := &db.Blog{
		Model:      db.Model{CreatedAt: createdAt},
		Title:      "Blog " + slug,
		Slug:       slug,
		Content:    "<p>editorial body</p>",
		CategoryID: categoryID,
		Status:     status,
	}
	if err := st.Blogs().Create(context.Background(), blog); err != nil {
		t.Fatalf("failed to seed blog %s: %v", slug, err)
	}
	return blog
}

func seedGuest(t *testing.T, st store.Store, slug string, status db.GuestPostStatus, category string, createdAt time.Time) *db.GuestPost {
	t.Helper()

	post := &db.GuestPost{
		Model:          db.Model{CreatedAt: createdAt},
		Name:           "Guest " + slug,
		Email:          slug + "@example.com",
		ArticleTitle:   "Guest " + slug,
		Slug:           slug,
		ArticleContent: "<p>guest body</p>",
		Category:       category,
		Status:         status,
		AuthorType:     db.AuthorTypeGuest,
	}
	if err := st.GuestPosts().Create(context.Background(), post); err != nil {
		t.Fatalf("failed to seed guest post %s: %v", slug, err)
	}
	return post
}

func strPtr(value string) *string {
	return &value
}
