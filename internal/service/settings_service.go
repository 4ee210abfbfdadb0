package service

import (
	"context"
	"net/mail"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/store"
)

const (
	DefaultSiteName        = "My Blog"
	DefaultSiteDescription = "A modern blog platform"
	DefaultSiteURL         = "http://localhost:3000"
	DefaultContactEmail    = "admin@example.com"
)

// SocialLinks 是站点的社交账号地址。
type SocialLinks struct {
	Twitter   string `json:"twitter"`
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`
}

// SiteSettings 描述后台可配置的站点信息。
type SiteSettings struct {
	SiteName        string      `json:"siteName"`
	SiteDescription string      `json:"siteDescription"`
	SiteURL         string      `json:"siteUrl"`
	ContactEmail    string      `json:"contactEmail"`
	SEOTitle        string      `json:"seoTitle"`
	SEODescription  string      `json:"seoDescription"`
	AnalyticsID     string      `json:"analyticsId"`
	SocialLinks     SocialLinks `json:"socialLinks"`
}

// SettingsService 提供站点设置的读取与更新能力。
type SettingsService struct {
	store          store.Store
	defaultSiteURL string
}

// NewSettingsService 构造 SettingsService。siteURL 为空时使用 DefaultSiteURL。
func NewSettingsService(st store.Store, siteURL string) *SettingsService {
	siteURL = trim(siteURL)
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return &SettingsService{store: st, defaultSiteURL: siteURL}
}

func (s *SettingsService) defaults() SiteSettings {
	return SiteSettings{
		SiteName:        DefaultSiteName,
		SiteDescription: DefaultSiteDescription,
		SiteURL:         s.defaultSiteURL,
		ContactEmail:    DefaultContactEmail,
	}
}

// Get 读取站点设置，未设置或为空的键返回默认值。
func (s *SettingsService) Get(ctx context.Context) (SiteSettings, error) {
	result := s.defaults()

	values, err := s.store.Settings().GetAll(ctx, db.SettingKeys)
	if err != nil {
		return result, errors.Wrap(err, "load site settings")
	}

	for key, value := range values {
		value = trim(value)
		switch key {
		case db.SettingKeySiteName:
			if value != "" {
				result.SiteName = value
			}
		case db.SettingKeySiteDescription:
			if value != "" {
				result.SiteDescription = value
			}
		case db.SettingKeySiteURL:
			if value != "" {
				result.SiteURL = value
			}
		case db.SettingKeyContactEmail:
			if value != "" {
				result.ContactEmail = value
			}
		case db.SettingKeySEOTitle:
			result.SEOTitle = value
		case db.SettingKeySEODescription:
			result.SEODescription = value
		case db.SettingKeyAnalyticsID:
			result.AnalyticsID = value
		case db.SettingKeyTwitter:
			result.SocialLinks.Twitter = value
		case db.SettingKeyFacebook:
			result.SocialLinks.Facebook = value
		case db.SettingKeyInstagram:
			result.SocialLinks.Instagram = value
		case db.SettingKeyLinkedIn:
			result.SocialLinks.LinkedIn = value
		}
	}

	return result, nil
}

// Update 保存站点设置，空的站点名称等字段回退默认值。
func (s *SettingsService) Update(ctx context.Context, input SiteSettings) (SiteSettings, error) {
	defaults := s.defaults()
	sanitized := SiteSettings{
		SiteName:        orDefault(input.SiteName, defaults.SiteName),
		SiteDescription: orDefault(input.SiteDescription, defaults.SiteDescription),
		SiteURL:         orDefault(input.SiteURL, defaults.SiteURL),
		ContactEmail:    orDefault(input.ContactEmail, defaults.ContactEmail),
		SEOTitle:        trim(input.SEOTitle),
		SEODescription:  trim(input.SEODescription),
		AnalyticsID:     trim(input.AnalyticsID),
		SocialLinks: SocialLinks{
			Twitter:   trim(input.SocialLinks.Twitter),
			Facebook:  trim(input.SocialLinks.Facebook),
			Instagram: trim(input.SocialLinks.Instagram),
			LinkedIn:  trim(input.SocialLinks.LinkedIn),
		},
	}

	if _, err := mail.ParseAddress(sanitized.ContactEmail); err != nil {
		return SiteSettings{}, invalidField("contactEmail", "contact email is invalid")
	}
	var err error
	if sanitized.SiteURL, err = optionalURL("siteUrl", sanitized.SiteURL); err != nil {
		return SiteSettings{}, err
	}
	links := &sanitized.SocialLinks
	if links.Twitter, err = optionalURL("socialLinks.twitter", links.Twitter); err != nil {
		return SiteSettings{}, err
	}
	if links.Facebook, err = optionalURL("socialLinks.facebook", links.Facebook); err != nil {
		return SiteSettings{}, err
	}
	if links.Instagram, err = optionalURL("socialLinks.instagram", links.Instagram); err != nil {
		return SiteSettings{}, err
	}
	if links.LinkedIn, err = optionalURL("socialLinks.linkedin", links.LinkedIn); err != nil {
		return SiteSettings{}, err
	}

	values := map[string]string{
		db.SettingKeySiteName:        sanitized.SiteName,
		db.SettingKeySiteDescription: sanitized.SiteDescription,
		db.SettingKeySiteURL:         sanitized.SiteURL,
		db.SettingKeyContactEmail:    sanitized.ContactEmail,
		db.SettingKeySEOTitle:        sanitized.SEOTitle,
		db.SettingKeySEODescription:  sanitized.SEODescription,
		db.SettingKeyAnalyticsID:     sanitized.AnalyticsID,
		db.SettingKeyTwitter:         sanitized.SocialLinks.Twitter,
		db.SettingKeyFacebook:        sanitized.SocialLinks.Facebook,
		db.SettingKeyInstagram:       sanitized.SocialLinks.Instagram,
		db.SettingKeyLinkedIn:        sanitized.SocialLinks.LinkedIn,
	}
	if err := s.store.Settings().Upsert(ctx, values); err != nil {
		return SiteSettings{}, errors.Wrap(err, "update site settings")
	}

	log.Logger.Info("site settings updated", zap.String("site_name", sanitized.SiteName))
	return sanitized, nil
}

func orDefault(value, fallback string) string {
	if value = trim(value); value == "" {
		return fallback
	}
	return value
}
