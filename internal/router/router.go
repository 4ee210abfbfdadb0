package router

import (
	"net/http"
	"time"

	"github.com/Laisky/zap"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/config"
	"github.com/lumina/internal/handler"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/service"
)

const sessionName = "lumina_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, opts handler.Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// 本地存储时由本服务提供上传文件
	if cfg.MediaDriver == config.MediaLocal && cfg.UploadDir != "" {
		r.Static(cfg.UploadURLPath, cfg.UploadDir)
	}

	opts.SiteURL = cfg.SiteBaseURL
	api := handler.NewAPI(opts)

	r.GET("/healthz", api.HealthCheck)

	r.GET("/posts", api.ListPosts)
	r.GET("/posts/:slug", api.GetPost)
	r.GET("/categories", api.ListCategories)
	r.GET("/settings", api.PublicSettings)
	r.POST("/guest-post", api.SubmitGuestPost)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.POST("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/me", api.Me)
			auth.POST("/change-password", api.ChangePassword)

			auth.GET("/blogs", api.GetBlogs)
			auth.POST("/blogs", api.CreateBlog)
			auth.GET("/blogs/:id", api.GetBlog)
			auth.PUT("/blogs/:id", api.UpdateBlog)
			auth.DELETE("/blogs/:id", api.DeleteBlog)

			auth.GET("/guestposts", api.GetGuestPosts)
			auth.GET("/guestposts/:id", api.GetGuestPost)
			auth.PUT("/guestposts/:id", api.UpdateGuestPost)
			auth.DELETE("/guestposts/:id", api.DeleteGuestPost)
			auth.PUT("/guestposts/:id/approve", api.TransitionGuestPost(service.ActionApprove))
			auth.PUT("/guestposts/:id/reject", api.TransitionGuestPost(service.ActionReject))
			auth.PUT("/guestposts/:id/publish", api.TransitionGuestPost(service.ActionPublish))

			auth.GET("/categories", api.ListCategories)
			auth.POST("/categories", api.CreateCategory)
			auth.GET("/categories/post-counts", api.CategoryPostCounts)
			auth.GET("/categories/:id", api.GetCategory)
			auth.PUT("/categories/:id", api.UpdateCategory)
			auth.DELETE("/categories/:id", api.DeleteCategory)

			auth.GET("/stats", api.GetStats)
			auth.GET("/settings", api.GetSystemSettings)
			auth.PUT("/settings", api.UpdateSystemSettings)
			auth.POST("/uploads", api.UploadImage)
		}
	}

	return r
}

// requestLogger 记录每个请求的方法、路径、状态码与耗时。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("cost", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Logger.Warn("request", fields...)
			return
		}
		log.Logger.Debug("request", fields...)
	}
}
