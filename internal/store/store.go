// Package store defines the persistence contracts shared by the sqlite and
// MongoDB backends.
package store

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/lumina/internal/db"
)

var (
	// ErrNotFound is returned when an id or slug does not resolve to a record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique field (slug, name, username) is already taken.
	ErrConflict = errors.New("record conflict")
)

// Store bundles every repository of one backend.
type Store interface {
	Blogs() BlogRepository
	GuestPosts() GuestPostRepository
	Categories() CategoryRepository
	Users() UserRepository
	Settings() SettingRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Page restricts a listing. Zero Limit means no limit.
type Page struct {
	Offset int
	Limit  int
}

// BlogFilter narrows blog queries. Empty fields do not filter.
type BlogFilter struct {
	Status      db.BlogStatus
	CategoryID  string
	ExcludeSlug string
	Page
}

// GuestPostFilter narrows guest post queries. Empty fields do not filter.
type GuestPostFilter struct {
	Statuses []db.GuestPostStatus
	// CategoryID and CategoryText are OR-ed: a guest post matches when its
	// resolved category id equals CategoryID or its raw category text equals
	// CategoryText (case-insensitive).
	CategoryID   string
	CategoryText string
	// Search is a case-insensitive substring over title, name and email.
	Search string
	Page
}

// BlogRepository persists editorial posts.
// List results are ordered by createdAt descending.
type BlogRepository interface {
	List(ctx context.Context, filter BlogFilter) ([]db.Blog, error)
	Count(ctx context.Context, filter BlogFilter) (int64, error)
	Get(ctx context.Context, id string) (*db.Blog, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, blog *db.Blog) error
	Update(ctx context.Context, blog *db.Blog) error
	Delete(ctx context.Context, id string) error
	// IncrementViews atomically adds one view to the published blog with the
	// given slug and returns the updated record.
	IncrementViews(ctx context.Context, slug string) (*db.Blog, error)
	SumViews(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, status db.BlogStatus) (map[string]int64, error)
}

// GuestPostRepository persists guest submissions.
// List results are ordered by createdAt descending.
type GuestPostRepository interface {
	List(ctx context.Context, filter GuestPostFilter) ([]db.GuestPost, error)
	Count(ctx context.Context, filter GuestPostFilter) (int64, error)
	Get(ctx context.Context, id string) (*db.GuestPost, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, post *db.GuestPost) error
	Update(ctx context.Context, post *db.GuestPost) error
	Delete(ctx context.Context, id string) error
	// UpdateStatus sets the status only when the current status is one of
	// from. It returns ErrNotFound when no record has the id and ErrConflict
	// when the record exists but its status is not in from.
	UpdateStatus(ctx context.Context, id string, from []db.GuestPostStatus, to db.GuestPostStatus) (*db.GuestPost, error)
	// IncrementViews atomically adds one view to the published guest post
	// with the given slug and returns the updated record.
	IncrementViews(ctx context.Context, slug string) (*db.GuestPost, error)
	SumViews(ctx context.Context) (int64, error)
}

// CategoryRepository persists the taxonomy. List is ordered by name.
type CategoryRepository interface {
	List(ctx context.Context) ([]db.Category, error)
	Get(ctx context.Context, id string) (*db.Category, error)
	// FindByKey resolves a category by id, slug or case-insensitive name.
	FindByKey(ctx context.Context, key string) (*db.Category, error)
	// NameOrSlugTaken reports whether another category already uses the name
	// (case-insensitive) or the slug.
	NameOrSlugTaken(ctx context.Context, name, slug, excludeID string) (bool, error)
	Create(ctx context.Context, category *db.Category) error
	Update(ctx context.Context, category *db.Category) error
	Delete(ctx context.Context, id string) error
}

// UserRepository persists admin accounts.
type UserRepository interface {
	Get(ctx context.Context, id string) (*db.User, error)
	GetByUsername(ctx context.Context, username string) (*db.User, error)
	Create(ctx context.Context, user *db.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// SettingRepository persists key/value site settings.
type SettingRepository interface {
	GetAll(ctx context.Context, keys []string) (map[string]string, error)
	Upsert(ctx context.Context, values map[string]string) error
}
