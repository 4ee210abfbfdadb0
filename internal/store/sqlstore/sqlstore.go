// Package sqlstore implements store.Store on top of gorm and sqlite.
package sqlstore

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/lumina/internal/store"
	"gorm.io/gorm"
)

// Store 是基于 gorm 的存储实现。
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New 使用已迁移的 gorm 连接构造存储。
func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// DB 暴露底层 gorm 实例，供命令行工具与测试使用。
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Blogs() store.BlogRepository           { return &blogRepo{db: s.db} }
func (s *Store) GuestPosts() store.GuestPostRepository { return &guestPostRepo{db: s.db} }
func (s *Store) Categories() store.CategoryRepository  { return &categoryRepo{db: s.db} }
func (s *Store) Users() store.UserRepository           { return &userRepo{db: s.db} }
func (s *Store) Settings() store.SettingRepository     { return &settingRepo{db: s.db} }

// Ping 检查数据库连接。
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接。
func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	return sqlDB.Close()
}

// translate 将 gorm 错误映射为 store 哨兵错误。
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return errors.Wrap(store.ErrConflict, err.Error())
	default:
		return err
	}
}

func applyPage(query *gorm.DB, page store.Page) *gorm.DB {
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}
	return query
}

// likePattern 不在 Go 侧转小写：SQLite 的 LIKE 只对 ASCII 忽略大小写。
func likePattern(raw string) string {
	return "%" + strings.TrimSpace(raw) + "%"
}
