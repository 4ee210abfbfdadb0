package db

// GuestPostStatus 是投稿的审核状态。
type GuestPostStatus string

const (
	GuestPending   GuestPostStatus = "pending"
	GuestApproved  GuestPostStatus = "approved"
	GuestRejected  GuestPostStatus = "rejected"
	GuestPublished GuestPostStatus = "published"
)

// AuthorTypeGuest 是投稿固定的作者类型。
const AuthorTypeGuest = "guest"

// Valid 判断状态值是否合法。
func (s GuestPostStatus) Valid() bool {
	switch s {
	case GuestPending, GuestApproved, GuestRejected, GuestPublished:
		return true
	}
	return false
}

// GuestPost 定义了外部作者的投稿。
// Category 保留投稿时填写的原始文本，CategoryID 为解析后的分类主键，可能为空。
type GuestPost struct {
	Model          `bson:",inline"`
	Name           string          `gorm:"not null" bson:"name" json:"name"`
	Email          string          `gorm:"not null" bson:"email" json:"email"`
	Website        string          `bson:"website,omitempty" json:"website"`
	ArticleTitle   string          `gorm:"not null" bson:"articleTitle" json:"articleTitle"`
	Slug           string          `gorm:"size:255;uniqueIndex;not null" bson:"slug" json:"slug"`
	ArticleContent string          `gorm:"type:text" bson:"articleContent" json:"articleContent"`
	Category       string          `bson:"category,omitempty" json:"category"`
	CategoryID     string          `gorm:"size:36;index" bson:"categoryId,omitempty" json:"categoryId"`
	Image          string          `bson:"image,omitempty" json:"image"`
	Backlink       string          `bson:"backlink,omitempty" json:"backlink"`
	AnchorText     string          `bson:"anchorText,omitempty" json:"anchorText"`
	Views          int64           `gorm:"not null;default:0" bson:"views" json:"views"`
	Status         GuestPostStatus `gorm:"size:16;index;not null;default:pending" bson:"status" json:"status"`
	AuthorType     string          `gorm:"size:16;not null;default:guest" bson:"authorType" json:"authorType"`
}
