package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/service"
)

type guestPostRequest struct {
	Name           string `json:"name" form:"name"`
	Email          string `json:"email" form:"email"`
	Website        string `json:"website" form:"website"`
	ArticleTitle   string `json:"articleTitle" form:"articleTitle"`
	ArticleContent string `json:"articleContent" form:"articleContent"`
	ContentFormat  string `json:"contentFormat" form:"contentFormat"`
	Category       string `json:"category" form:"category"`
	// multipart 中 image 既可能是文件也可能是 URL 文本，表单侧手动读取
	Image          string `json:"image" form:"-"`
	Backlink       string `json:"backlink" form:"backlink"`
	AnchorText     string `json:"anchorText" form:"anchorText"`
}

// ListPosts 返回合并后的公共文章列表。
func (a *API) ListPosts(c *gin.Context) {
	page := 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid page")
			return
		}
		page = parsed
	}

	result, err := a.feed.List(c.Request.Context(), page, c.Query("category"))
	if err != nil {
		respondServiceError(c, err, "failed to fetch posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blogs":       result.Items,
		"totalPages":  result.TotalPages,
		"currentPage": result.CurrentPage,
	})
}

// GetPost 按 slug 返回已发布文章详情，并计一次浏览。
func (a *API) GetPost(c *gin.Context) {
	detail, err := a.feed.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err, "failed to fetch post")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListCategories 返回按名称排序的分类列表。
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to fetch categories")
		return
	}
	if categories == nil {
		categories = []db.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// PublicSettings 返回站点设置。
func (a *API) PublicSettings(c *gin.Context) {
	settings, err := a.settings.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to fetch settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SubmitGuestPost 接收公开投稿。校验通过后才上传附带的图片，再保存。
func (a *API) SubmitGuestPost(c *gin.Context) {
	if !allow(c, a.guestLimiter, "guest-post") {
		return
	}

	var req guestPostRequest
	if !bindPayload(c, &req, "invalid submission") {
		return
	}
	if c.ContentType() != binding.MIMEJSON {
		req.Image = c.PostForm("image")
	}

	ctx := c.Request.Context()
	post, err := a.guestPosts.Prepare(ctx, service.GuestSubmission{
		Name:           req.Name,
		Email:          req.Email,
		Website:        req.Website,
		ArticleTitle:   req.ArticleTitle,
		ArticleContent: req.ArticleContent,
		ContentFormat:  req.ContentFormat,
		Category:       req.Category,
		Image:          req.Image,
		Backlink:       req.Backlink,
		AnchorText:     req.AnchorText,
	})
	if err != nil {
		respondServiceError(c, err, "failed to submit guest post")
		return
	}

	// 同名文件优先于 URL 文本
	image, err := a.uploadFormImage(c, "image")
	if err != nil {
		respondServiceError(c, err, "failed to upload image")
		return
	}
	if image != "" {
		post.Image = image
	}

	if err := a.guestPosts.Save(ctx, post); err != nil {
		respondServiceError(c, err, "failed to submit guest post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "guest post submitted", "post": post})
}
