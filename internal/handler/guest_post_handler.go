package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/service"
)

type guestPostUpdateRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Website        *string `json:"website"`
	ArticleTitle   *string `json:"articleTitle"`
	Slug           *string `json:"slug"`
	ArticleContent *string `json:"articleContent"`
	Category       *string `json:"category"`
	Image          *string `json:"image"`
	Backlink       *string `json:"backlink"`
	AnchorText     *string `json:"anchorText"`
	Status         *string `json:"status"`
}

// GetGuestPosts 返回后台投稿列表，支持 status 与 search 过滤。
func (a *API) GetGuestPosts(c *gin.Context) {
	posts, err := a.guestPosts.List(c.Request.Context(), service.GuestPostQuery{
		Status: db.GuestPostStatus(strings.TrimSpace(c.Query("status"))),
		Search: c.Query("search"),
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch guest posts")
		return
	}
	if posts == nil {
		posts = []db.GuestPost{}
	}
	c.JSON(http.StatusOK, posts)
}

// GetGuestPost 返回单篇投稿。
func (a *API) GetGuestPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	post, err := a.guestPosts.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch guest post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdateGuestPost 部分更新投稿；status 变化必须符合审核状态机。
func (a *API) UpdateGuestPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req guestPostUpdateRequest
	if !bindJSON(c, &req, "invalid guest post payload") {
		return
	}

	update := service.GuestPostUpdate{
		Name:           req.Name,
		Email:          req.Email,
		Website:        req.Website,
		ArticleTitle:   req.ArticleTitle,
		Slug:           req.Slug,
		ArticleContent: req.ArticleContent,
		Category:       req.Category,
		Image:          req.Image,
		Backlink:       req.Backlink,
		AnchorText:     req.AnchorText,
	}
	if req.Status != nil {
		status := db.GuestPostStatus(strings.TrimSpace(*req.Status))
		update.Status = &status
	}

	post, err := a.guestPosts.Update(c.Request.Context(), id, update)
	if err != nil {
		respondServiceError(c, err, "failed to update guest post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "guest post updated", "post": post})
}

// DeleteGuestPost 删除投稿。
func (a *API) DeleteGuestPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := a.guestPosts.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "failed to delete guest post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "guest post deleted"})
}

// TransitionGuestPost 返回执行指定审核操作的 handler。
func (a *API) TransitionGuestPost(action service.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		post, err := a.guestPosts.Transition(c.Request.Context(), id, action)
		if err != nil {
			respondServiceError(c, err, "failed to "+string(action)+" guest post")
			return
		}
		c.JSON(http.StatusOK, gin.H{"_id": post.ID, "status": post.Status, "post": post})
	}
}
