package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadImage 处理编辑器的图片上传请求
func (a *API) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}

	url, err := a.uploadFile(c, header)
	if err != nil {
		respondServiceError(c, err, "failed to upload image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "uploaded",
		"data": gin.H{
			"filePath": url,
			"url":      url,
		},
	})
}
