package db

// BlogStatus 是编辑文章的发布状态。
type BlogStatus string

const (
	BlogDraft     BlogStatus = "draft"
	BlogPublished BlogStatus = "published"
)

// Valid 判断状态值是否合法。
func (s BlogStatus) Valid() bool {
	return s == BlogDraft || s == BlogPublished
}

// Blog 定义了后台编辑撰写的文章。
type Blog struct {
	Model           `bson:",inline"`
	Title           string     `gorm:"not null" bson:"title" json:"title"`
	Slug            string     `gorm:"size:255;uniqueIndex;not null" bson:"slug" json:"slug"`
	Content         string     `gorm:"type:text" bson:"content" json:"content"`
	FeaturedImage   string     `bson:"featuredImage,omitempty" json:"featuredImage"`
	CategoryID      string     `gorm:"size:36;index" bson:"categoryId" json:"categoryId"`
	AuthorID        string     `gorm:"size:36" bson:"authorId,omitempty" json:"authorId,omitempty"`
	MetaTitle       string     `bson:"metaTitle,omitempty" json:"metaTitle"`
	MetaDescription string     `bson:"metaDescription,omitempty" json:"metaDescription"`
	Tags            []string   `gorm:"serializer:json" bson:"tags" json:"tags"`
	Status          BlogStatus `gorm:"size:16;index;not null;default:draft" bson:"status" json:"status"`
	Views           int64      `gorm:"not null;default:0" bson:"views" json:"views"`
}
