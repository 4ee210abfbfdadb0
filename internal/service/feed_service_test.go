package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/store"
)

func TestFeedListPaginatesMergedSet(t *testing.T) {
	st := setupServiceStore(t)
	ctx := context.Background()

	// 8 篇编辑文章与 7 篇投稿交错创建，另有未发布记录不应出现
	var want []string
	for i := 0; i < 15; i++ {
		createdAt := testEpoch.Add(time.Duration(i) * time.Hour)
		slug := fmt.Sprintf("post-%02d", i)
		if i%2 == 0 {
			seedBlog(t, st, slug, db.BlogPublished, "", createdAt)
		} else {
			seedGuest(t, st, slug, db.GuestPublished, "", createdAt)
		}
		want = append([]string{slug}, want...)
	}
	seedBlog(t, st, "draft", db.BlogDraft, "", testEpoch.Add(100*time.Hour))
	seedGuest(t, st, "pending", db.GuestPending, "", testEpoch.Add(101*time.Hour))
	seedGuest(t, st, "approved", db.GuestApproved, "", testEpoch.Add(102*time.Hour))

	feed := NewFeedService(st)
	first, err := feed.List(ctx, 1, "")
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if first.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", first.TotalPages)
	}

	var got []string
	seen := make(map[string]bool)
	for page := 1; page <= first.TotalPages; page++ {
		result, err := feed.List(ctx, page, "All")
		if err != nil {
			t.Fatalf("list page %d: %v", page, err)
		}
		if result.CurrentPage != page {
			t.Fatalf("expected current page %d, got %d", page, result.CurrentPage)
		}
		if len(result.Items) > PageSize {
			t.Fatalf("page %d has %d items", page, len(result.Items))
		}
		for _, item := range result.Items {
			if seen[item.Slug] {
				t.Fatalf("slug %s repeated across pages", item.Slug)
			}
			seen[item.Slug] = true
			got = append(got, item.Slug)
		}
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d items across pages, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order at %d: want %s, got %s", i, want[i], got[i])
		}
	}
}

func TestFeedListPageBounds(t *testing.T) {
	st := setupServiceStore(t)
	ctx := context.Background()
	feed := NewFeedService(st)

	empty, err := feed.List(ctx, 1, "")
	if err != nil {
		t.Fatalf("list empty feed: %v", err)
	}
	if empty.TotalPages != 0 || len(empty.Items) != 0 {
		t.Fatalf("expected empty feed, got %+v", empty)
	}

	seedBlog(t, st, "only", db.BlogPublished, "", testEpoch)

	clamped, err := feed.List(ctx, 0, "")
	if err != nil {
		t.Fatalf("list page 0: %v", err)
	}
	if clamped.CurrentPage != 1 || len(clamped.Items) != 1 {
		t.Fatalf("expected page 0 to clamp to 1, got %+v", clamped)
	}

	beyond, err := feed.List(ctx, 5, "")
	if err != nil {
		t.Fatalf("list page 5: %v", err)
	}
	if len(beyond.Items) != 0 || beyond.TotalPages != 1 || beyond.CurrentPage != 5 {
		t.Fatalf("unexpected page beyond range: %+v", beyond)
	}
}

func TestFeedNormalizesBothVariants(t *testing.T) {
	st := setupServiceStore(t)
	ctx := context.Background()

	tech := seedCategory(t, st, "Tech", "tech")
	seedBlog(t, st, "editorial", db.BlogPublished, tech.ID, testEpoch)
	seedGuest(t, st, "guest", db.GuestPublished, "tech", testEpoch.Add(time.Minute))

	result, err := NewFeedService(st).List(ctx, 1, "")
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	guest, blog := result.Items[0], result.Items[1]
	if guest.Type != KindGuest || guest.AuthorName != "Guest guest" || guest.Category != "tech" {
		t.Fatalf("unexpected guest item: %+v", guest)
	}
	if guest.CategoryID != tech.ID || guest.CategoryName != "Tech" {
		t.Fatalf("expected guest category to resolve to Tech, got %+v", guest)
	}
	if blog.Type != KindEditorial || blog.AuthorName != AdminDisplayName || blog.Category != tech.ID {
		t.Fatalf("unexpected blog item: %+v", blog)
	}
	if blog.Title != "Blog editorial" || blog.Content != "<p>editorial body</p>" {
		t.Fatalf("blog fields not mapped: %+v", blog)
	}
}

func TestFeedCategoryFilter(t *testing.T) {
	st := setupServiceStore(t)
	ctx := context.Background()

	tech := seedCategory(t, st, "Tech", "tech")
	life := seedCategory(t, st, "Life", "life")

	seedBlog(t, st, "tech-blog", db.BlogPublished, tech.ID, testEpoch)
	seedBlog(t, st, "life-blog", db.BlogPublished, life.ID, testEpoch.Add(time.Minute))
	seedGuest(t, st, "tech-guest", db.GuestPublished, "TECH", testEpoch.Add(2*time.Minute))
	seedGuest(t, st, "free-guest", db.GuestPublished, "Gardening", testEpoch.Add(3*time.Minute))

	tests := []struct {
		name     string
		category string
		want     []string
	}{
		{name: "all", category: "All", want: []string{"free-guest", "tech-guest", "life-blog", "tech-blog"}},
		{name: "by id", category: tech.ID, want: []string{"tech-guest", "tech-blog"}},
		{name: "by name", category: "tech", want: []string{"tech-guest", "tech-blog"}},
		{name: "by slug", category: "life", want: []string{"life-blog"}},
		{name: "free text", category: "gardening", want: []string{"free-guest"}},
		{name: "unknown", category: "nothing", want: nil},
	}

	feed := NewFeedService(st)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := feed.List(ctx, 1, tt.category)
			if err != nil {
				t.Fatalf("list feed: %v", err)
			}
			if len(result.Items) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, result.Items)
			}
			for i, item := range result.Items {
				if item.Slug != tt.want[i] {
					t.Fatalf("expected %v at %d, got %s", tt.want[i], i, item.Slug)
				}
			}
		})
	}
}

func TestMergePostsIsStable(t *testing.T) {
	same := testEpoch
	blogs := []db.Blog{
		{Model: db.Model{ID: "b1", CreatedAt: same}, Slug: "b1"},
		{Model: db.Model{ID: "b2", CreatedAt: same}, Slug: "b2"},
	}
	guests := []db.GuestPost{
		{Model: db.Model{ID: "g1", CreatedAt: same}, Slug: "g1"},
		{Model: db.Model{ID: "g2", CreatedAt: same.Add(time.Second)}, Slug: "g2"},
	}

	merged := mergePosts(blogs, guests)
	want := []string{"g2", "b1", "b2", "g1"}
	for i, post := range merged {
		if post.postID() != want[i] {
			t.Fatalf("expected %s at %d, got %s", want[i], i, post.postID())
		}
	}
}

func TestFeedDetailIncrementsViews(t *testing.T) {
	st := setupServiceStore(t)
	ctx := context.Background()

	tech := seedCategory(t, st, "Tech", "tech")
	seedBlog(t, st, "main", db.BlogPublished, tech.ID, testEpoch)
	seedBlog(t, st, "related-1", db.BlogPublished, tech.ID, testEpoch.Add(time.Minute))
	seedBlog(t, st, "related-2", db.BlogPublished, tech.ID, testEpoch.Add(2*time.Minute))
	seedBlog(t, st, "related-3", db.BlogPublished, tech.ID, testEpoch.Add(3*time.Minute))
	seedBlog(t, st, "related-4", db.BlogPublished, tech.ID, testEpoch.Add(4*time.Minute))
	seedBlog(t, st, "hidden", db.BlogDraft, tech.ID, testEpoch.Add(5*time.Minute))

	feed := NewFeedService(st)
	for want := int64(1); want <= 3; want++ {
		detail, err := feed.Detail(ctx, "main")
		if err != nil {
			t.Fatalf("detail: %v", err)
		}
		if detail.Post.Views != want {
			t.Fatalf("expected views %d, got %d", want, detail.Post.Views)
		}
	}

	detail, err := feed.Detail(ctx, "main")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Category != "Tech" {
		t.Fatalf("expected category Tech, got %q", detail.Category)
	}
	if detail.ReadTime != 1 {
		t.Fatalf("expected read time 1, got %d", detail.ReadTime)
	}
	if len(detail.Related) != RelatedLimit {
		t.Fatalf("expected %d related posts, got %d", RelatedLimit, len(detail.Related))
	}
	for _, related := range detail.Related {
		if related.Slug == "main" || related.Slug == "hidden" {
			t.Fatalf("unexpected related post %s", related.Slug)
		}
	}
}

func TestFeedDetailGuestAndNotFound(t *testing.T) {
	st := setupServiceStore(t)
	ctx := context.Background()

	seedGuest(t, st, "guest-post", db.GuestPublished, "Gardening", testEpoch)
	seedGuest(t, st, "waiting", db.GuestApproved, "", testEpoch)
	seedBlog(t, st, "draft", db.BlogDraft, "", testEpoch)

	feed := NewFeedService(st)
	detail, err := feed.Detail(ctx, "guest-post")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Post.Type != KindGuest || detail.Post.Views != 1 {
		t.Fatalf("unexpected guest detail: %+v", detail.Post)
	}
	if detail.Category != "Gardening" {
		t.Fatalf("expected free-text category name, got %q", detail.Category)
	}
	if len(detail.Related) != 0 {
		t.Fatalf("expected no related posts, got %d", len(detail.Related))
	}

	for _, slug := range []string{"waiting", "draft", "missing", ""} {
		if _, err := feed.Detail(ctx, slug); !errors.Is(err, ErrPostNotFound) {
			t.Fatalf("expected ErrPostNotFound for %q, got %v", slug, err)
		}
	}

	waiting, err := st.GuestPosts().List(ctx, store.GuestPostFilter{})
	if err != nil {
		t.Fatalf("list guests: %v", err)
	}
	for _, post := range waiting {
		if post.Slug == "waiting" && post.Views != 0 {
			t.Fatalf("unpublished post should not gain views, got %d", post.Views)
		}
	}
}
