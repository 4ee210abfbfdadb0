package service

import (
	"context"
	"sort"
	"strings"

	"github.com/Laisky/errors/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lumina/internal/content"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
)

// CategoryAll 表示不过滤分类。
const CategoryAll = "All"

// RelatedLimit 是详情页返回的相关文章数量上限。
const RelatedLimit = 3

// FeedService 合并编辑文章与已发布投稿，提供公共列表与详情。
type FeedService struct {
	store store.Store
}

// FeedPage 是一页公共列表。
type FeedPage struct {
	Items       []FeedItem
	TotalPages  int
	CurrentPage int
}

// DetailPost 在列表形态之上附加详情页字段。
type DetailPost struct {
	FeedItem
	Views           int64    `json:"views"`
	Tags            []string `json:"tags,omitempty"`
	MetaTitle       string   `json:"metaTitle,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	Website         string   `json:"website,omitempty"`
	Backlink        string   `json:"backlink,omitempty"`
	AnchorText      string   `json:"anchorText,omitempty"`
}

// PostDetail 是详情接口的返回值。
type PostDetail struct {
	Post     DetailPost `json:"post"`
	Category string     `json:"category"`
	Related  []FeedItem `json:"related"`
	ReadTime int        `json:"readTime"`
}

// NewFeedService 构造 FeedService。
func NewFeedService(st store.Store) *FeedService {
	return &FeedService{store: st}
}

// List 返回合并、按创建时间倒序排序后的第 page 页。
// category 可以是分类 ID、名称或 slug；为空或 "All" 时不过滤。
func (s *FeedService) List(ctx context.Context, page int, category string) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}

	blogFilter := store.BlogFilter{Status: db.BlogPublished}
	guestFilter := store.GuestPostFilter{Statuses: []db.GuestPostStatus{db.GuestPublished}}

	category = trim(category)
	if category != "" && !strings.EqualFold(category, CategoryAll) {
		resolved, err := s.store.Categories().FindByKey(ctx, category)
		switch {
		case err == nil:
			blogFilter.CategoryID = resolved.ID
			guestFilter.CategoryID = resolved.ID
			guestFilter.CategoryText = resolved.Name
		case errors.Is(err, store.ErrNotFound):
			// 未登记的分类：编辑文章按 ID 匹配，投稿按原始文本匹配
			blogFilter.CategoryID = category
			guestFilter.CategoryText = category
		default:
			return nil, errors.Wrap(err, "resolve category filter")
		}
	}

	var (
		blogs      []db.Blog
		guests     []db.GuestPost
		categories []db.Category
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		if blogs, err = s.store.Blogs().List(gctx, blogFilter); err != nil {
			return errors.Wrap(err, "list published blogs")
		}
		return nil
	})
	group.Go(func() (err error) {
		if guests, err = s.store.GuestPosts().List(gctx, guestFilter); err != nil {
			return errors.Wrap(err, "list published guest posts")
		}
		return nil
	})
	group.Go(func() (err error) {
		if categories, err = s.store.Categories().List(gctx); err != nil {
			return errors.Wrap(err, "list categories")
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := mergePosts(blogs, guests)
	idx := NewCategoryIndex(categories)

	result := &FeedPage{
		Items:       []FeedItem{},
		TotalPages:  totalPages(len(merged), PageSize),
		CurrentPage: page,
	}

	start := (page - 1) * PageSize
	if start >= len(merged) {
		return result, nil
	}
	end := start + PageSize
	if end > len(merged) {
		end = len(merged)
	}
	for _, post := range merged[start:end] {
		result.Items = append(result.Items, Normalize(post, idx))
	}
	return result, nil
}

// mergePosts 拼接编辑文章与投稿后按创建时间稳定倒序排序，
// 时间相同时保持编辑文章在前、各集合内部原有顺序不变。
func mergePosts(blogs []db.Blog, guests []db.GuestPost) []Post {
	merged := make([]Post, 0, len(blogs)+len(guests))
	for _, blog := range blogs {
		merged = append(merged, EditorialPost{Blog: blog})
	}
	for _, guest := range guests {
		merged = append(merged, GuestPost{Post: guest})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].createdAt().After(merged[j].createdAt())
	})
	return merged
}

// Detail 按 slug 查找已发布文章并原子地增加一次浏览量。
// 编辑文章优先于投稿：两者 slug 相同时总是返回编辑文章。
func (s *FeedService) Detail(ctx context.Context, slug string) (*PostDetail, error) {
	slug = trim(slug)
	if slug == "" {
		return nil, ErrPostNotFound
	}

	var post Post
	blog, err := s.store.Blogs().IncrementViews(ctx, slug)
	switch {
	case err == nil:
		post = EditorialPost{Blog: *blog}
	case errors.Is(err, store.ErrNotFound):
		guest, err := s.store.GuestPosts().IncrementViews(ctx, slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrPostNotFound
			}
			return nil, errors.Wrap(err, "load guest post")
		}
		post = GuestPost{Post: *guest}
	default:
		return nil, errors.Wrap(err, "load blog")
	}

	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	idx := NewCategoryIndex(categories)
	item := Normalize(post, idx)

	detail := &PostDetail{
		Post:     DetailPost{FeedItem: item},
		Category: item.CategoryName,
		Related:  []FeedItem{},
	}

	switch v := post.(type) {
	case EditorialPost:
		detail.Post.Views = v.Blog.Views
		detail.Post.Tags = v.Blog.Tags
		detail.Post.MetaTitle = v.Blog.MetaTitle
		detail.Post.MetaDescription = v.Blog.MetaDescription
		detail.ReadTime = content.ReadTime(v.Blog.Content)
	case GuestPost:
		detail.Post.Views = v.Post.Views
		detail.Post.Website = v.Post.Website
		detail.Post.Backlink = v.Post.Backlink
		detail.Post.AnchorText = v.Post.AnchorText
		detail.ReadTime = content.ReadTime(v.Post.ArticleContent)
	}

	if item.CategoryID != "" {
		if _, ok := idx.byID[item.CategoryID]; ok {
			related, err := s.store.Blogs().List(ctx, store.BlogFilter{
				Status:      db.BlogPublished,
				CategoryID:  item.CategoryID,
				ExcludeSlug: slug,
				Page:        store.Page{Limit: RelatedLimit},
			})
			if err != nil {
				return nil, errors.Wrap(err, "list related blogs")
			}
			for _, blog := range related {
				detail.Related = append(detail.Related, Normalize(EditorialPost{Blog: blog}, idx))
			}
		}
	}

	return detail, nil
}
