package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lumina/internal/content"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/store"
)

// CategoryService wraps category related operations.
type CategoryService struct {
	store store.Store
}

// CategoryInput represents fields accepted when creating or updating a category.
// Slug is derived from Name when empty.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

// CategoryUsage 描述分类下已公开文章的数量。
type CategoryUsage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int64  `json:"count"`
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(st store.Store) *CategoryService {
	return &CategoryService{store: st}
}

// List returns categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]db.Category, error) {
	return s.store.Categories().List(ctx)
}

// Get fetches a category by id.
func (s *CategoryService) Get(ctx context.Context, id string) (*db.Category, error) {
	category, err := s.store.Categories().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func normalizeCategory(in CategoryInput) (CategoryInput, error) {
	in.Name = trim(in.Name)
	if in.Name == "" {
		return in, invalidField("name", "category name is required")
	}
	slugSource := in.Slug
	if trim(slugSource) == "" {
		slugSource = in.Name
	}
	in.Slug = content.Slugify(slugSource)
	in.Description = trim(in.Description)
	return in, nil
}

// Create inserts a new category with unique name and slug.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*db.Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.Categories().NameOrSlugTaken(ctx, in.Name, in.Slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCategoryExists
	}

	category := &db.Category{Name: in.Name, Slug: in.Slug, Description: in.Description}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrCategoryExists
		}
		return nil, errors.Wrap(err, "create category")
	}

	log.Logger.Info("category created", zap.String("id", category.ID), zap.String("slug", category.Slug))
	return category, nil
}

// Update changes a category while keeping name and slug unique.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*db.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in, err = normalizeCategory(in)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.Categories().NameOrSlugTaken(ctx, in.Name, in.Slug, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCategoryExists
	}

	category.Name = in.Name
	category.Slug = in.Slug
	category.Description = in.Description
	if err := s.store.Categories().Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrCategoryNotFound
		case errors.Is(err, store.ErrConflict):
			return nil, ErrCategoryExists
		}
		return nil, errors.Wrap(err, "update category")
	}
	return category, nil
}

// Delete removes a category if no blog references it.
// Guest posts keep their free-text category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.store.Blogs().Count(ctx, store.BlogFilter{CategoryID: id})
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.store.Categories().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return errors.Wrap(err, "delete category")
	}
	log.Logger.Info("category deleted", zap.String("id", id))
	return nil
}

// PostCounts 统计每个分类下已发布的编辑文章与已通过或已发布的投稿数量。
func (s *CategoryService) PostCounts(ctx context.Context) ([]CategoryUsage, error) {
	var (
		categories []db.Category
		blogCounts map[string]int64
		guests     []db.GuestPost
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		if categories, err = s.store.Categories().List(gctx); err != nil {
			return errors.Wrap(err, "list categories")
		}
		return nil
	})
	group.Go(func() (err error) {
		if blogCounts, err = s.store.Blogs().CountByCategory(gctx, db.BlogPublished); err != nil {
			return errors.Wrap(err, "count blogs")
		}
		return nil
	})
	group.Go(func() (err error) {
		guests, err = s.store.GuestPosts().List(gctx, store.GuestPostFilter{
			Statuses: []db.GuestPostStatus{db.GuestApproved, db.GuestPublished},
		})
		if err != nil {
			return errors.Wrap(err, "list guest posts")
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	idx := NewCategoryIndex(categories)
	guestCounts := make(map[string]int64, len(categories))
	for _, guest := range guests {
		if category, ok := idx.resolve(guest.CategoryID, guest.Category); ok {
			guestCounts[category.ID]++
		}
	}

	usages := make([]CategoryUsage, 0, len(categories))
	for _, category := range categories {
		usages = append(usages, CategoryUsage{
			ID:    category.ID,
			Name:  category.Name,
			Slug:  category.Slug,
			Count: blogCounts[category.ID] + guestCounts[category.ID],
		})
	}
	return usages, nil
}
