package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/limiter"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/media"
	"github.com/lumina/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// bindPayload 按 Content-Type 绑定 JSON 或表单（含 multipart）请求体。
func bindPayload(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBind(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func idParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}

// statusFor 将服务层错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrBlogNotFound),
		errors.Is(err, service.ErrGuestPostNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrCategoryExists),
		errors.Is(err, service.ErrCategoryInUse),
		errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, media.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError 写出错误响应。4xx 返回错误本身的描述，
// 其余情况记录日志并返回 fallback，不暴露内部细节。
func respondServiceError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Logger.Error(fallback,
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		respondError(c, status, fallback)
		return
	}

	log.Logger.Debug("request rejected",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err))

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		respondError(c, status, verr.Message)
		return
	}
	respondError(c, status, err.Error())
}

// uploadFormImage 上传 multipart 表单中的 image 文件；未附带文件时返回空串。
func (a *API) uploadFormImage(c *gin.Context, field string) (string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return "", nil
	}

	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", errors.Wrapf(media.ErrInvalidImage, "read %s: %v", field, err)
	}
	return a.uploadFile(c, header)
}

func (a *API) uploadFile(c *gin.Context, header *multipart.FileHeader) (string, error) {
	if a.uploader == nil {
		return "", errors.Wrap(media.ErrUpstream, "image uploads are not configured")
	}

	file, err := header.Open()
	if err != nil {
		return "", errors.Wrap(media.ErrInvalidImage, err.Error())
	}
	defer file.Close()

	return a.uploader.Upload(c.Request.Context(), file)
}

// allow 按客户端 IP 检查限流；限流后端故障时放行并记录日志。
func allow(c *gin.Context, l limiter.Limiter, scope string) bool {
	ok, err := l.Allow(c.Request.Context(), scope+":"+c.ClientIP())
	if err != nil {
		log.Logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
		return true
	}
	if !ok {
		respondError(c, http.StatusTooManyRequests, service.ErrRateLimited.Error())
		return false
	}
	return true
}
