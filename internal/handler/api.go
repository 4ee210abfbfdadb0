package handler

import (
	"github.com/lumina/internal/limiter"
	"github.com/lumina/internal/media"
	"github.com/lumina/internal/service"
	"github.com/lumina/internal/store"
)

// Options 汇总构造 API 所需的依赖。
type Options struct {
	Store    store.Store
	Uploader *media.Uploader
	// GuestLimiter 限制公开投稿频率，为 nil 时不限流。
	GuestLimiter limiter.Limiter
	// LoginLimiter 限制登录尝试频率，为 nil 时不限流。
	LoginLimiter limiter.Limiter
	// SiteURL 是站点设置 siteUrl 的默认值。
	SiteURL string
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	store        store.Store
	feed         *service.FeedService
	guestPosts   *service.GuestPostService
	blogs        *service.BlogService
	categories   *service.CategoryService
	stats        *service.StatsService
	settings     *service.SettingsService
	accounts     *service.AccountService
	uploader     *media.Uploader
	guestLimiter limiter.Limiter
	loginLimiter limiter.Limiter
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	api := &API{
		store:        opts.Store,
		feed:         service.NewFeedService(opts.Store),
		guestPosts:   service.NewGuestPostService(opts.Store),
		blogs:        service.NewBlogService(opts.Store),
		categories:   service.NewCategoryService(opts.Store),
		stats:        service.NewStatsService(opts.Store),
		settings:     service.NewSettingsService(opts.Store, opts.SiteURL),
		accounts:     service.NewAccountService(opts.Store),
		uploader:     opts.Uploader,
		guestLimiter: opts.GuestLimiter,
		loginLimiter: opts.LoginLimiter,
	}
	if api.guestLimiter == nil {
		api.guestLimiter = limiter.Unlimited{}
	}
	if api.loginLimiter == nil {
		api.loginLimiter = limiter.Unlimited{}
	}
	return api
}
