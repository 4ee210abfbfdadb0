package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/service"
)

// blogRequest 同时用于创建与部分更新；nil 字段表示未提交。
type blogRequest struct {
	Title           *string  `json:"title" form:"title"`
	Slug            *string  `json:"slug" form:"slug"`
	Content         *string  `json:"content" form:"content"`
	FeaturedImage   *string  `json:"featuredImage" form:"featuredImage"`
	Category        *string  `json:"category" form:"category"`
	MetaTitle       *string  `json:"metaTitle" form:"metaTitle"`
	MetaDescription *string  `json:"metaDescription" form:"metaDescription"`
	Tags            []string `json:"tags" form:"tags"`
	Status          *string  `json:"status" form:"status"`
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// splitTags 兼容表单中以逗号分隔的单个 tags 字段。
func splitTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		result = append(result, strings.Split(tag, ",")...)
	}
	return result
}

// GetBlogs 获取后台文章列表
func (a *API) GetBlogs(c *gin.Context) {
	blogs, err := a.blogs.List(c.Request.Context(), service.BlogQuery{
		Status:   db.BlogStatus(strings.TrimSpace(c.Query("status"))),
		Category: c.Query("category"),
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch blogs")
		return
	}
	c.JSON(http.StatusOK, blogs)
}

// GetBlog 获取单篇文章
func (a *API) GetBlog(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	blog, err := a.blogs.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch blog")
		return
	}
	c.JSON(http.StatusOK, blog)
}

// CreateBlog 创建新文章，multipart 请求可附带 image 文件作为封面。
func (a *API) CreateBlog(c *gin.Context) {
	var req blogRequest
	if !bindPayload(c, &req, "invalid blog payload") {
		return
	}

	image, err := a.uploadFormImage(c, "image")
	if err != nil {
		respondServiceError(c, err, "failed to upload image")
		return
	}
	if image == "" {
		image = deref(req.FeaturedImage)
	}

	blog, err := a.blogs.Create(c.Request.Context(), service.BlogInput{
		Title:           deref(req.Title),
		Slug:            deref(req.Slug),
		Content:         deref(req.Content),
		FeaturedImage:   image,
		Category:        deref(req.Category),
		MetaTitle:       deref(req.MetaTitle),
		MetaDescription: deref(req.MetaDescription),
		Tags:            splitTags(req.Tags),
		Status:          db.BlogStatus(strings.TrimSpace(deref(req.Status))),
		AuthorID:        c.GetString(currentUserIDKey),
	})
	if err != nil {
		respondServiceError(c, err, "failed to create blog")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "blog created", "blog": blog})
}

// UpdateBlog 更新文章
func (a *API) UpdateBlog(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req blogRequest
	if !bindPayload(c, &req, "invalid blog payload") {
		return
	}

	image, err := a.uploadFormImage(c, "image")
	if err != nil {
		respondServiceError(c, err, "failed to upload image")
		return
	}
	if image != "" {
		req.FeaturedImage = &image
	}

	update := service.BlogUpdate{
		Title:           req.Title,
		Slug:            req.Slug,
		Content:         req.Content,
		FeaturedImage:   req.FeaturedImage,
		Category:        req.Category,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	}
	if req.Tags != nil {
		tags := splitTags(req.Tags)
		update.Tags = &tags
	}
	if req.Status != nil {
		status := db.BlogStatus(strings.TrimSpace(*req.Status))
		update.Status = &status
	}

	blog, err := a.blogs.Update(c.Request.Context(), id, update)
	if err != nil {
		respondServiceError(c, err, "failed to update blog")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "blog updated", "blog": blog})
}

// DeleteBlog 删除文章
func (a *API) DeleteBlog(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := a.blogs.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "failed to delete blog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "blog deleted"})
}
