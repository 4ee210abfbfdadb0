package service

import (
	"context"
	"sort"
	"time"

	"github.com/Laisky/errors/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
)

const (
	// RecentArticleLimit 是仪表盘最近文章表格的行数。
	RecentArticleLimit = 6
	// recentFetchLimit 是每个集合为最近文章预取的记录数。
	recentFetchLimit = 10
	// FallbackAuthorName 在编辑文章找不到作者时使用。
	FallbackAuthorName = "Lumina Admin"
)

// DashboardStats 汇总仪表盘数字。
type DashboardStats struct {
	TotalViews    int64 `json:"totalViews"`
	ActivePosts   int64 `json:"activePosts"`
	PendingGuests int64 `json:"pendingGuests"`
}

// RecentArticle 是仪表盘最近文章表格的一行。
type RecentArticle struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Views     int64     `json:"views"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	Image     string    `json:"image"`
	Author    string    `json:"author"`
	Type      string    `json:"type"`
}

// Dashboard 是统计接口的返回值。
type Dashboard struct {
	Stats          DashboardStats  `json:"stats"`
	RecentArticles []RecentArticle `json:"recentArticles"`
}

// StatsService 每次请求都从存储重新计算仪表盘数据，不做缓存。
type StatsService struct {
	store store.Store
}

// NewStatsService 构造 StatsService。
func NewStatsService(st store.Store) *StatsService {
	return &StatsService{store: st}
}

// Dashboard 并发执行各项统计，任一查询失败则整体失败。
func (s *StatsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		blogViews, guestViews         int64
		publishedBlogs, publishedGuests int64
		pending                       int64
		recentBlogs                   []db.Blog
		recentGuests                  []db.GuestPost
	)

	group, gctx := errgroup.WithContext(ctx)
	run := func(name string, fn func() error) {
		group.Go(func() error {
			if err := fn(); err != nil {
				return errors.Wrap(err, name)
			}
			return nil
		})
	}

	run("sum blog views", func() (err error) {
		blogViews, err = s.store.Blogs().SumViews(gctx)
		return err
	})
	run("sum guest post views", func() (err error) {
		guestViews, err = s.store.GuestPosts().SumViews(gctx)
		return err
	})
	run("count published blogs", func() (err error) {
		publishedBlogs, err = s.store.Blogs().Count(gctx, store.BlogFilter{Status: db.BlogPublished})
		return err
	})
	run("count published guest posts", func() (err error) {
		publishedGuests, err = s.store.GuestPosts().Count(gctx, store.GuestPostFilter{
			Statuses: []db.GuestPostStatus{db.GuestPublished},
		})
		return err
	})
	run("count pending guest posts", func() (err error) {
		pending, err = s.store.GuestPosts().Count(gctx, store.GuestPostFilter{
			Statuses: []db.GuestPostStatus{db.GuestPending},
		})
		return err
	})
	run("list recent blogs", func() (err error) {
		recentBlogs, err = s.store.Blogs().List(gctx, store.BlogFilter{Page: store.Page{Limit: recentFetchLimit}})
		return err
	})
	run("list recent guest posts", func() (err error) {
		recentGuests, err = s.store.GuestPosts().List(gctx, store.GuestPostFilter{Page: store.Page{Limit: recentFetchLimit}})
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	authors, err := s.authorNames(ctx, recentBlogs)
	if err != nil {
		return nil, err
	}

	recent := make([]RecentArticle, 0, len(recentBlogs)+len(recentGuests))
	for _, blog := range recentBlogs {
		author := authors[blog.AuthorID]
		if author == "" {
			author = FallbackAuthorName
		}
		recent = append(recent, RecentArticle{
			ID:        blog.ID,
			Title:     blog.Title,
			Views:     blog.Views,
			Status:    string(blog.Status),
			CreatedAt: blog.CreatedAt,
			Image:     blog.FeaturedImage,
			Author:    author,
			Type:      "Admin",
		})
	}
	for _, guest := range recentGuests {
		recent = append(recent, RecentArticle{
			ID:        guest.ID,
			Title:     guest.ArticleTitle,
			Views:     guest.Views,
			Status:    string(guest.Status),
			CreatedAt: guest.CreatedAt,
			Image:     guest.Image,
			Author:    guest.Name,
			Type:      "Guest",
		})
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > RecentArticleLimit {
		recent = recent[:RecentArticleLimit]
	}

	return &Dashboard{
		Stats: DashboardStats{
			TotalViews:    blogViews + guestViews,
			ActivePosts:   publishedBlogs + publishedGuests,
			PendingGuests: pending,
		},
		RecentArticles: recent,
	}, nil
}

func (s *StatsService) authorNames(ctx context.Context, blogs []db.Blog) (map[string]string, error) {
	names := make(map[string]string)
	for _, blog := range blogs {
		if blog.AuthorID == "" {
			continue
		}
		if _, seen := names[blog.AuthorID]; seen {
			continue
		}

		user, err := s.store.Users().Get(ctx, blog.AuthorID)
		switch {
		case err == nil:
			names[blog.AuthorID] = user.Username
		case errors.Is(err, store.ErrNotFound):
			names[blog.AuthorID] = ""
		default:
			return nil, errors.Wrap(err, "load author")
		}
	}
	return names, nil
}
