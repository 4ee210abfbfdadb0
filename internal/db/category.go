package db

// Category 定义了文章分类。
type Category struct {
	Model       `bson:",inline"`
	Name        string `gorm:"size:100;uniqueIndex;not null" bson:"name" json:"name"`
	Slug        string `gorm:"size:120;uniqueIndex;not null" bson:"slug" json:"slug"`
	Description string `gorm:"type:text" bson:"description,omitempty" json:"description"`
}
