package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/service"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (r categoryRequest) toInput() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Slug: r.Slug, Description: r.Description}
}

// GetCategory 获取单个分类
func (a *API) GetCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	category, err := a.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory 创建新分类
func (a *API) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, "category name is required") {
		return
	}

	category, err := a.categories.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "category created", "category": category})
}

// UpdateCategory 更新分类
func (a *API) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req categoryRequest
	if !bindJSON(c, &req, "category name is required") {
		return
	}

	category, err := a.categories.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to update category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category updated", "category": category})
}

// DeleteCategory 删除分类
func (a *API) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := a.categories.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// CategoryPostCounts 返回每个分类下已公开的文章数。
func (a *API) CategoryPostCounts(c *gin.Context) {
	usages, err := a.categories.PostCounts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to count posts")
		return
	}
	c.JSON(http.StatusOK, usages)
}
