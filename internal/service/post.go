package service

import (
	"time"

	"github.com/lumina/internal/db"
)

// PostKind 区分文章来源。
type PostKind string

const (
	KindEditorial PostKind = "admin"
	KindGuest     PostKind = "guest"
)

const (
	// AdminDisplayName 是编辑文章在列表中显示的作者名。
	AdminDisplayName = "Admin"
	// DefaultCategoryName 在分类无法解析时使用。
	DefaultCategoryName = "General"
)

// Post 是编辑文章与投稿的封闭联合类型，只有本包内的两个变体实现它。
type Post interface {
	Kind() PostKind
	postID() string
	createdAt() time.Time
}

// EditorialPost 是来自 Blog 集合的变体。
type EditorialPost struct {
	Blog db.Blog
}

// GuestPost 是来自 GuestPost 集合的变体。
type GuestPost struct {
	Post db.GuestPost
}

func (EditorialPost) Kind() PostKind         { return KindEditorial }
func (p EditorialPost) postID() string       { return p.Blog.ID }
func (p EditorialPost) createdAt() time.Time { return p.Blog.CreatedAt }

func (GuestPost) Kind() PostKind         { return KindGuest }
func (p GuestPost) postID() string       { return p.Post.ID }
func (p GuestPost) createdAt() time.Time { return p.Post.CreatedAt }

// FeedItem 是公共列表中统一的文章形态。
// Category 对编辑文章是分类 ID，对投稿是提交时填写的分类文本。
type FeedItem struct {
	ID           string    `json:"_id"`
	Title        string    `json:"articleTitle"`
	Content      string    `json:"articleContent"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	CategoryID   string    `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	Slug         string    `json:"slug"`
	AuthorName   string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	Type         PostKind  `json:"type"`
}

// CategoryIndex 以 ID、小写名称和 slug 查找分类。
type CategoryIndex struct {
	byID  map[string]db.Category
	byKey map[string]db.Category
}

func NewCategoryIndex(categories []db.Category) CategoryIndex {
	idx := CategoryIndex{
		byID:  make(map[string]db.Category, len(categories)),
		byKey: make(map[string]db.Category, len(categories)*2),
	}
	for _, category := range categories {
		idx.byID[category.ID] = category
		idx.byKey[lowerTrim(category.Name)] = category
		idx.byKey[category.Slug] = category
	}
	return idx
}

// resolve 先按 ID 查找，再按名称或 slug 查找。
func (idx CategoryIndex) resolve(id, text string) (db.Category, bool) {
	if category, ok := idx.byID[id]; ok && id != "" {
		return category, true
	}
	if key := lowerTrim(text); key != "" {
		category, ok := idx.byKey[key]
		return category, ok
	}
	return db.Category{}, false
}

// Normalize 将任一变体转换为公共列表形态。
func Normalize(p Post, idx CategoryIndex) FeedItem {
	switch v := p.(type) {
	case EditorialPost:
		item := FeedItem{
			ID:           v.Blog.ID,
			Title:        v.Blog.Title,
			Content:      v.Blog.Content,
			Image:        v.Blog.FeaturedImage,
			Category:     v.Blog.CategoryID,
			CategoryID:   v.Blog.CategoryID,
			CategoryName: DefaultCategoryName,
			Slug:         v.Blog.Slug,
			AuthorName:   AdminDisplayName,
			CreatedAt:    v.Blog.CreatedAt,
			Type:         KindEditorial,
		}
		if category, ok := idx.resolve(v.Blog.CategoryID, ""); ok {
			item.CategoryName = category.Name
		}
		return item
	case GuestPost:
		item := FeedItem{
			ID:           v.Post.ID,
			Title:        v.Post.ArticleTitle,
			Content:      v.Post.ArticleContent,
			Image:        v.Post.Image,
			Category:     v.Post.Category,
			CategoryID:   v.Post.CategoryID,
			CategoryName: DefaultCategoryName,
			Slug:         v.Post.Slug,
			AuthorName:   v.Post.Name,
			CreatedAt:    v.Post.CreatedAt,
			Type:         KindGuest,
		}
		if category, ok := idx.resolve(v.Post.CategoryID, v.Post.Category); ok {
			item.CategoryID = category.ID
			item.CategoryName = category.Name
		} else if text := trim(v.Post.Category); text != "" {
			item.CategoryName = text
		}
		return item
	default:
		return FeedItem{}
	}
}
