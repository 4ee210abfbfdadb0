package handler

import (
	"net/http"

	"github.com/Laisky/zap"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/log"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
	// currentUserIDKey 是 AuthRequired 写入 gin.Context 的当前用户 ID。
	currentUserIDKey = "currentUserID"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type changePasswordRequest struct {
	Current string `json:"current" binding:"required"`
	New     string `json:"new" binding:"required"`
}

// Login 处理用户登录请求，支持 JSON 与表单两种提交方式。
func (a *API) Login(c *gin.Context) {
	if !allow(c, a.loginLimiter, "login") {
		return
	}

	var req loginRequest
	if !bindPayload(c, &req, "username and password are required") {
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := a.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Logger.Info("admin login failed", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		respondServiceError(c, err, "login failed")
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		respondServiceError(c, err, "failed to save session")
		return
	}

	log.Logger.Info("admin logged in", zap.String("username", user.Username))
	c.JSON(http.StatusOK, gin.H{"message": "logged in", "user": user})
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondServiceError(c, err, "failed to clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me 返回当前登录的管理员。
func (a *API) Me(c *gin.Context) {
	user, err := a.accounts.Get(c.Request.Context(), c.GetString(currentUserIDKey))
	if err != nil {
		respondServiceError(c, err, "failed to load account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword 修改当前管理员的密码。
func (a *API) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req, "current and new password are required") {
		return
	}

	if err := a.accounts.ChangePassword(c.Request.Context(), c.GetString(currentUserIDKey), req.Current, req.New); err != nil {
		respondServiceError(c, err, "failed to change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// AuthRequired 是一个简单的认证中间件，未登录时返回 401。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionUserIDKey).(string)
		if !ok || userID == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		c.Set(currentUserIDKey, userID)
		c.Next()
	}
}
