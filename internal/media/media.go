// Package media 负责校验上传的图片并保存到本地目录或 S3 兼容的对象存储。
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register gif decoder
	_ "image/jpeg" // register jpeg decoder
	_ "image/png"  // register png decoder
	"io"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register webp decoder
)

var (
	// ErrInvalidImage 表示上传内容不是受支持的图片格式。
	ErrInvalidImage = errors.New("invalid image")
	// ErrTooLarge 表示上传内容超过大小上限。
	ErrTooLarge = errors.New("image too large")
	// ErrUpstream 表示图片存储后端失败。
	ErrUpstream = errors.New("image storage failed")
)

var formats = map[string]struct {
	ext         string
	contentType string
}{
	"jpeg": {ext: ".jpg", contentType: "image/jpeg"},
	"png":  {ext: ".png", contentType: "image/png"},
	"gif":  {ext: ".gif", contentType: "image/gif"},
	"webp": {ext: ".webp", contentType: "image/webp"},
}

// Image 是已通过校验的图片内容。
type Image struct {
	Data        []byte
	Ext         string
	ContentType string
	Width       int
	Height      int
}

// Storage 保存图片并返回可公开访问的 URL。
type Storage interface {
	Save(ctx context.Context, name string, img Image) (string, error)
}

// Uploader 组合校验与存储，供服务层使用。
type Uploader struct {
	storage  Storage
	maxBytes int64
	now      func() time.Time
}

// NewUploader 构造 Uploader。maxBytes 不大于 0 时不限制大小。
func NewUploader(storage Storage, maxBytes int64) *Uploader {
	return &Uploader{storage: storage, maxBytes: maxBytes, now: time.Now}
}

// Decode 读取并校验图片头部。
func Decode(r io.Reader, maxBytes int64) (Image, error) {
	reader := r
	if maxBytes > 0 {
		reader = io.LimitReader(r, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return Image{}, errors.Wrap(err, "read image")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Image{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Image{}, errors.Wrap(ErrInvalidImage, "empty file")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, errors.Wrap(ErrInvalidImage, err.Error())
	}

	meta, ok := formats[format]
	if !ok {
		return Image{}, errors.Wrapf(ErrInvalidImage, "unsupported format %s", format)
	}

	return Image{
		Data:        data,
		Ext:         meta.ext,
		ContentType: meta.contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Upload 校验并保存图片，返回公开 URL。
func (u *Uploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	img, err := Decode(r, u.maxBytes)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s%s", u.now().Format("20060102"), uuid.NewString(), img.Ext)
	url, err := u.storage.Save(ctx, name, img)
	if err != nil {
		return "", errors.Wrap(ErrUpstream, err.Error())
	}
	return url, nil
}
