package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Laisky/errors/v2"
)

const (
	// StoreSQLite 使用内嵌 sqlite 存储。
	StoreSQLite = "sqlite"
	// StoreMongo 使用 MongoDB 文档存储。
	StoreMongo = "mongo"

	// MediaLocal 将上传图片保存到本地目录。
	MediaLocal = "local"
	// MediaS3 将上传图片保存到 S3 兼容的对象存储。
	MediaS3 = "s3"

	// LimiterMemory 使用进程内限流。
	LimiterMemory = "memory"
	// LimiterRedis 使用 redis 共享限流。
	LimiterRedis = "redis"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	Port          string `toml:"port"`
	GinMode       string `toml:"gin_mode"`
	Debug         bool   `toml:"debug"`
	SessionSecret string `toml:"session_secret"`
	SessionSecure bool   `toml:"session_secure"`
	SiteBaseURL   string `toml:"site_base_url"`

	StoreDriver  string      `toml:"store_driver"`
	DatabasePath string      `toml:"database_path"`
	Mongo        MongoConfig `toml:"mongo"`

	MediaDriver    string   `toml:"media_driver"`
	UploadDir      string   `toml:"upload_dir"`
	UploadURLPath  string   `toml:"upload_url_path"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	S3             S3Config `toml:"s3"`

	RateLimitDriver string        `toml:"rate_limit_driver"`
	Redis           RedisConfig   `toml:"redis"`
	GuestPostLimit  int           `toml:"guest_post_limit"`
	GuestPostWindow time.Duration `toml:"guest_post_window"`
	LoginLimit      int           `toml:"login_limit"`
	LoginWindow     time.Duration `toml:"login_window"`

	SuperRootUserName string `toml:"super_root_user_name"`
	SuperRootPassword string `toml:"super_root_password"`
}

// MongoConfig 描述 MongoDB 连接信息。
type MongoConfig struct {
	Addr     string `toml:"addr"`
	DBName   string `toml:"db"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	AuthDB   string `toml:"auth_db"`
}

// S3Config 描述对象存储连接信息。
type S3Config struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
	PublicURL string `toml:"public_url"`
}

// RedisConfig 描述 redis 连接信息。
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	cfg := defaults()
	applyEnv(&cfg)
	cfg.finalize()
	return cfg
}

// LoadFile 先读取 TOML 配置文件，再用环境变量覆盖，最后校验。
// path 为空时等价于 Load。
func LoadFile(path string) (AppConfig, error) {
	cfg := defaults()

	if trimmed := strings.TrimSpace(path); trimmed != "" {
		if _, err := toml.DecodeFile(trimmed, &cfg); err != nil {
			return AppConfig{}, errors.Wrapf(err, "decode config file %q", trimmed)
		}
	}

	applyEnv(&cfg)
	cfg.finalize()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate 检查所选驱动的必填项。
func (c AppConfig) Validate() error {
	switch c.StoreDriver {
	case StoreSQLite:
		if c.DatabasePath == "" {
			return errors.New("database path is required for sqlite store")
		}
	case StoreMongo:
		if c.Mongo.Addr == "" || c.Mongo.DBName == "" {
			return errors.New("mongo addr and db are required for mongo store")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.StoreDriver)
	}

	switch c.MediaDriver {
	case MediaLocal:
		if c.UploadDir == "" {
			return errors.New("upload dir is required for local media")
		}
	case MediaS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return errors.New("s3 endpoint and bucket are required for s3 media")
		}
	default:
		return errors.Errorf("unknown media driver %q", c.MediaDriver)
	}

	switch c.RateLimitDriver {
	case LimiterMemory:
	case LimiterRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis addr is required for redis rate limiter")
		}
	default:
		return errors.Errorf("unknown rate limit driver %q", c.RateLimitDriver)
	}
	// 固定窗口按 window 取整分桶，窗口必须为正
	if c.GuestPostWindow <= 0 || c.LoginWindow <= 0 {
		return errors.Errorf("rate limit windows must be positive, got guest_post_window=%s login_window=%s",
			c.GuestPostWindow, c.LoginWindow)
	}

	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}

	return nil
}

func defaults() AppConfig {
	return AppConfig{
		Port:            "8080",
		GinMode:         "release",
		SessionSecret:   "lumina-dev-secret",
		SiteBaseURL:     "http://localhost:3000",
		StoreDriver:     StoreSQLite,
		DatabasePath:    "lumina.db",
		Mongo:           MongoConfig{DBName: "lumina"},
		MediaDriver:     MediaLocal,
		UploadDir:       "web/static/uploads",
		UploadURLPath:   "/static/uploads",
		MaxUploadBytes:  5 << 20,
		RateLimitDriver: LimiterMemory,
		GuestPostLimit:  5,
		GuestPostWindow: time.Hour,
		LoginLimit:      10,
		LoginWindow:     15 * time.Minute,
	}
}

func applyEnv(cfg *AppConfig) {
	cfg.Port = envString("PORT", cfg.Port)
	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.GinMode = envString("GIN_MODE", cfg.GinMode)
	cfg.Debug = envBool("DEBUG", cfg.Debug)
	cfg.SessionSecret = envString("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionSecure = envBool("SESSION_SECURE", cfg.SessionSecure)
	cfg.SiteBaseURL = envString("SITE_BASE_URL", cfg.SiteBaseURL)

	cfg.StoreDriver = strings.ToLower(envString("STORE_DRIVER", cfg.StoreDriver))
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.Mongo.Addr = envString("MONGO_ADDR", cfg.Mongo.Addr)
	cfg.Mongo.DBName = envString("MONGO_DB", cfg.Mongo.DBName)
	cfg.Mongo.User = envString("MONGO_USER", cfg.Mongo.User)
	cfg.Mongo.Password = envString("MONGO_PASSWORD", cfg.Mongo.Password)
	cfg.Mongo.AuthDB = envString("MONGO_AUTH_DB", cfg.Mongo.AuthDB)

	cfg.MediaDriver = strings.ToLower(envString("MEDIA_DRIVER", cfg.MediaDriver))
	cfg.UploadDir = envString("UPLOAD_DIR", cfg.UploadDir)
	cfg.UploadURLPath = envString("UPLOAD_URL_PATH", cfg.UploadURLPath)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.S3.Endpoint = envString("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.AccessKey = envString("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = envString("S3_SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.Bucket = envString("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.UseSSL = envBool("S3_USE_SSL", cfg.S3.UseSSL)
	cfg.S3.PublicURL = envString("S3_PUBLIC_URL", cfg.S3.PublicURL)

	cfg.RateLimitDriver = strings.ToLower(envString("RATE_LIMIT_DRIVER", cfg.RateLimitDriver))
	cfg.Redis.Addr = envString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = int(envInt64("REDIS_DB", int64(cfg.Redis.DB)))
	cfg.GuestPostLimit = int(envInt64("GUEST_POST_LIMIT", int64(cfg.GuestPostLimit)))
	cfg.GuestPostWindow = envDuration("GUEST_POST_WINDOW", cfg.GuestPostWindow)
	cfg.LoginLimit = int(envInt64("LOGIN_LIMIT", int64(cfg.LoginLimit)))
	cfg.LoginWindow = envDuration("LOGIN_WINDOW", cfg.LoginWindow)

	cfg.SuperRootUserName = envString("SUPER_ROOT_USER_NAME", cfg.SuperRootUserName)
	cfg.SuperRootPassword = envString("SUPER_ROOT_PASSWORD", cfg.SuperRootPassword)
}

func (c *AppConfig) finalize() {
	if c.ListenAddr == "" {
		c.ListenAddr = fmt.Sprintf(":%s", c.Port)
	}
	c.UploadURLPath = "/" + strings.Trim(c.UploadURLPath, "/")
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
