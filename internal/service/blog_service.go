package service

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/lumina/internal/content"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/store"
)

// BlogService wraps editorial post operations.
type BlogService struct {
	store store.Store
	now   func() time.Time
}

// BlogInput represents fields accepted when creating a blog.
// Category may be an id, a name or a slug.
type BlogInput struct {
	Title           string
	Slug            string
	Content         string
	FeaturedImage   string
	Category        string
	MetaTitle       string
	MetaDescription string
	Tags            []string
	Status          db.BlogStatus
	AuthorID        string
}

// BlogUpdate is a partial update; nil fields are left untouched.
type BlogUpdate struct {
	Title           *string
	Slug            *string
	Content         *string
	FeaturedImage   *string
	Category        *string
	MetaTitle       *string
	MetaDescription *string
	Tags            *[]string
	Status          *db.BlogStatus
}

// BlogQuery filters the admin listing.
type BlogQuery struct {
	Status   db.BlogStatus
	Category string
}

// AdminBlog pairs a blog with its resolved category name.
type AdminBlog struct {
	db.Blog
	CategoryName string `json:"categoryName"`
}

// NewBlogService creates a BlogService instance.
func NewBlogService(st store.Store) *BlogService {
	return &BlogService{store: st, now: time.Now}
}

// List returns blogs of any status ordered by created time descending.
func (s *BlogService) List(ctx context.Context, query BlogQuery) ([]AdminBlog, error) {
	filter := store.BlogFilter{}
	if query.Status != "" {
		if !query.Status.Valid() {
			return nil, errors.Wrapf(ErrInvalidStatus, "status %q", query.Status)
		}
		filter.Status = query.Status
	}
	if key := trim(query.Category); key != "" && key != CategoryAll {
		category, err := s.store.Categories().FindByKey(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return []AdminBlog{}, nil
			}
			return nil, errors.Wrap(err, "resolve category")
		}
		filter.CategoryID = category.ID
	}

	blogs, err := s.store.Blogs().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}

	idx := NewCategoryIndex(categories)
	result := make([]AdminBlog, 0, len(blogs))
	for _, blog := range blogs {
		result = append(result, s.decorate(blog, idx))
	}
	return result, nil
}

func (s *BlogService) decorate(blog db.Blog, idx CategoryIndex) AdminBlog {
	if blog.Tags == nil {
		blog.Tags = []string{}
	}
	view := AdminBlog{Blog: blog, CategoryName: DefaultCategoryName}
	if category, ok := idx.resolve(blog.CategoryID, ""); ok {
		view.CategoryName = category.Name
	}
	return view
}

// Get fetches a blog by id.
func (s *BlogService) Get(ctx context.Context, id string) (*AdminBlog, error) {
	blog, err := s.store.Blogs().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}

	view := s.decorate(*blog, CategoryIndex{})
	if blog.CategoryID != "" {
		if category, err := s.store.Categories().Get(ctx, blog.CategoryID); err == nil {
			view.CategoryName = category.Name
		}
	}
	return &view, nil
}

// Create validates and persists a blog.
// An explicit slug must be free; a slug derived from the title gets a suffix when taken.
func (s *BlogService) Create(ctx context.Context, in BlogInput) (*db.Blog, error) {
	title := trim(in.Title)
	if title == "" {
		return nil, invalidField("title", "title is required")
	}
	body := content.SanitizeEditor(in.Content)
	if body == "" {
		return nil, invalidField("content", "content is required")
	}

	status := in.Status
	if status == "" {
		status = db.BlogDraft
	}
	if !status.Valid() {
		return nil, errors.Wrapf(ErrInvalidStatus, "status %q", status)
	}

	categoryID, err := s.categoryID(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	var slug string
	if trim(in.Slug) != "" {
		slug, err = explicitSlug(ctx, s.store, in.Slug, "")
	} else {
		slug, err = uniqueSlug(ctx, s.store, s.now(), title, "")
	}
	if err != nil {
		return nil, err
	}

	blog := &db.Blog{
		Title:           title,
		Slug:            slug,
		Content:         body,
		FeaturedImage:   trim(in.FeaturedImage),
		CategoryID:      categoryID,
		AuthorID:        in.AuthorID,
		MetaTitle:       trim(in.MetaTitle),
		MetaDescription: trim(in.MetaDescription),
		Tags:            normalizeTags(in.Tags),
		Status:          status,
	}
	if err := s.store.Blogs().Create(ctx, blog); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, errors.Wrapf(ErrSlugTaken, "slug %q", slug)
		}
		return nil, errors.Wrap(err, "create blog")
	}

	log.Logger.Info("blog created", zap.String("id", blog.ID), zap.String("slug", blog.Slug), zap.String("status", string(blog.Status)))
	return blog, nil
}

// Update applies a partial update to an existing blog.
func (s *BlogService) Update(ctx context.Context, id string, in BlogUpdate) (*db.Blog, error) {
	blog, err := s.store.Blogs().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}

	if in.Title != nil {
		if trim(*in.Title) == "" {
			return nil, invalidField("title", "title is required")
		}
		blog.Title = trim(*in.Title)
	}
	if in.Content != nil {
		body := content.SanitizeEditor(*in.Content)
		if body == "" {
			return nil, invalidField("content", "content is required")
		}
		blog.Content = body
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, errors.Wrapf(ErrInvalidStatus, "status %q", *in.Status)
		}
		blog.Status = *in.Status
	}
	if in.Category != nil {
		if blog.CategoryID, err = s.categoryID(ctx, *in.Category); err != nil {
			return nil, err
		}
	}
	if in.Slug != nil && trim(*in.Slug) != "" && content.Slugify(*in.Slug) != blog.Slug {
		if blog.Slug, err = explicitSlug(ctx, s.store, *in.Slug, blog.ID); err != nil {
			return nil, err
		}
	}
	if in.FeaturedImage != nil {
		blog.FeaturedImage = trim(*in.FeaturedImage)
	}
	if in.MetaTitle != nil {
		blog.MetaTitle = trim(*in.MetaTitle)
	}
	if in.MetaDescription != nil {
		blog.MetaDescription = trim(*in.MetaDescription)
	}
	if in.Tags != nil {
		blog.Tags = normalizeTags(*in.Tags)
	}

	if err := s.store.Blogs().Update(ctx, blog); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrBlogNotFound
		case errors.Is(err, store.ErrConflict):
			return nil, errors.Wrapf(ErrSlugTaken, "slug %q", blog.Slug)
		}
		return nil, errors.Wrap(err, "update blog")
	}
	return blog, nil
}

// Delete removes a blog.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := s.store.Blogs().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBlogNotFound
		}
		return errors.Wrap(err, "delete blog")
	}
	log.Logger.Info("blog deleted", zap.String("id", id))
	return nil
}

// categoryID resolves an optional category key; unknown keys are a validation error.
func (s *BlogService) categoryID(ctx context.Context, key string) (string, error) {
	if trim(key) == "" {
		return "", nil
	}
	category, err := s.store.Categories().FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", invalidField("category", "category %q does not exist", trim(key))
		}
		return "", errors.Wrap(err, "resolve category")
	}
	return category.ID, nil
}

// normalizeTags trims, drops empties and de-duplicates case-insensitively.
func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = trim(tag)
		if tag == "" {
			continue
		}
		key := lowerTrim(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, tag)
	}
	return result
}
