package handler

import (
	"net/http"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/log"
	"github.com/lumina/internal/service"
)

// HealthCheck 提供监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	if err := a.store.Ping(c.Request.Context()); err != nil {
		log.Logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

// GetStats 返回仪表盘统计。
func (a *API) GetStats(c *gin.Context) {
	dashboard, err := a.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to fetch stats")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetSystemSettings 返回当前站点设置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.settings.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to fetch settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSystemSettings 保存站点设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var payload service.SiteSettings
	if !bindJSON(c, &payload, "invalid settings payload") {
		return
	}

	settings, err := a.settings.Update(c.Request.Context(), payload)
	if err != nil {
		respondServiceError(c, err, "failed to save settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "settings saved",
		"settings": settings,
	})
}
