package media

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
)

// LocalStorage 将图片写入本地目录，由静态文件路由对外提供。
type LocalStorage struct {
	dir     string
	urlPath string
}

// NewLocalStorage 构造 LocalStorage，urlPath 为静态路由前缀。
func NewLocalStorage(dir, urlPath string) *LocalStorage {
	return &LocalStorage{
		dir:     dir,
		urlPath: "/" + strings.Trim(urlPath, "/"),
	}
}

// Dir 返回图片目录。
func (s *LocalStorage) Dir() string {
	return s.dir
}

// URLPath 返回静态路由前缀。
func (s *LocalStorage) URLPath() string {
	return s.urlPath
}

func (s *LocalStorage) Save(_ context.Context, name string, img Image) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), img.Data, 0o644); err != nil {
		return "", errors.Wrap(err, "write image")
	}
	return path.Join(s.urlPath, name), nil
}
