package db

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Model 是所有记录共用的主键与时间戳字段。
// 主键为字符串 UUID，sqlite 与 MongoDB 两种存储保持一致。
type Model struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate 在插入前补齐主键。
func (m *Model) BeforeCreate(*gorm.DB) error {
	m.EnsureID()
	return nil
}

// EnsureID 为空主键生成 UUID。
func (m *Model) EnsureID() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
}

// Touch 设置创建与更新时间，供不经过 gorm 的存储使用。
func (m *Model) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Options 控制 sqlite 连接的打开方式。
type Options struct {
	// Silent 关闭 gorm 的 SQL 日志，测试中使用。
	Silent bool
}

// Open 打开 sqlite 数据库并执行自动迁移。
// databasePath 为空时将回退到默认值 lumina.db。
func Open(databasePath string, opts Options) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "lumina.db"
	}

	inMemory := isMemoryDSN(path)
	if !inMemory {
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
	}

	cfg := &gorm.Config{}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %q", path)
	}

	// 内存库每个连接各自独立，限制为单连接避免读到空库
	if inMemory {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, errors.Wrap(err, "get sql db")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate 为核心模型创建表。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&User{},
		&Category{},
		&Blog{},
		&GuestPost{},
		&SystemSetting{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
