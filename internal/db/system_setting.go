package db

import "time"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;size:100" bson:"_id"`
	Value     string    `gorm:"type:text" bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	SettingKeySiteName        = "site_name"
	SettingKeySiteDescription = "site_description"
	SettingKeySiteURL         = "site_url"
	SettingKeyContactEmail    = "contact_email"
	SettingKeySEOTitle        = "seo_title"
	SettingKeySEODescription  = "seo_description"
	SettingKeyAnalyticsID     = "analytics_id"
	SettingKeyTwitter         = "social_twitter"
	SettingKeyFacebook        = "social_facebook"
	SettingKeyInstagram       = "social_instagram"
	SettingKeyLinkedIn        = "social_linkedin"
)

// SettingKeys 列出所有已知的设置键。
var SettingKeys = []string{
	SettingKeySiteName,
	SettingKeySiteDescription,
	SettingKeySiteURL,
	SettingKeyContactEmail,
	SettingKeySEOTitle,
	SettingKeySEODescription,
	SettingKeyAnalyticsID,
	SettingKeyTwitter,
	SettingKeyFacebook,
	SettingKeyInstagram,
	SettingKeyLinkedIn,
}
