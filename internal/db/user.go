package db

// RoleAdmin 是后台管理员角色。
const RoleAdmin = "admin"

// User 定义了后台账号。Password 保存 bcrypt 哈希。
type User struct {
	Model    `bson:",inline"`
	Username string `gorm:"size:100;uniqueIndex;not null" bson:"username" json:"username"`
	Password string `gorm:"not null" bson:"password" json:"-"`
	Role     string `gorm:"size:32;not null;default:admin" bson:"role" json:"role"`
}
