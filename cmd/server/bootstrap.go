package main

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lumina/internal/config"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/limiter"
	"github.com/lumina/internal/media"
	"github.com/lumina/internal/store"
	"github.com/lumina/internal/store/mongostore"
	"github.com/lumina/internal/store/sqlstore"
)

// openStore 按 store_driver 打开 sqlite 或 MongoDB 存储。
func openStore(ctx context.Context, cfg config.AppConfig) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		st, err := mongostore.New(ctx, mongostore.DialInfo{
			Addr:   cfg.Mongo.Addr,
			DBName: cfg.Mongo.DBName,
			User:   cfg.Mongo.User,
			Pwd:    cfg.Mongo.Password,
			AuthDB: cfg.Mongo.AuthDB,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreSQLite:
		gdb, err := db.Open(cfg.DatabasePath, db.Options{Silent: !cfg.Debug})
		if err != nil {
			return nil, err
		}
		return sqlstore.New(gdb), nil
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func newUploader(cfg config.AppConfig) (*media.Uploader, error) {
	switch cfg.MediaDriver {
	case config.MediaS3:
		storage, err := media.NewS3Storage(media.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
			PublicURL: cfg.S3.PublicURL,
			Prefix:    "uploads",
		})
		if err != nil {
			return nil, err
		}
		return media.NewUploader(storage, cfg.MaxUploadBytes), nil
	case config.MediaLocal:
		return media.NewUploader(media.NewLocalStorage(cfg.UploadDir, cfg.UploadURLPath), cfg.MaxUploadBytes), nil
	default:
		return nil, errors.Errorf("unknown media driver %q", cfg.MediaDriver)
	}
}

// limiters 是投稿与登录两个限流器，closer 释放共享连接。
type limiters struct {
	guest  limiter.Limiter
	login  limiter.Limiter
	closer func() error
}

func newLimiters(cfg config.AppConfig) (limiters, error) {
	switch cfg.RateLimitDriver {
	case config.LimiterRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return limiters{
			guest:  limiter.NewRedis(rdb, "lumina:ratelimit", cfg.GuestPostLimit, cfg.GuestPostWindow),
			login:  limiter.NewRedis(rdb, "lumina:ratelimit", cfg.LoginLimit, cfg.LoginWindow),
			closer: rdb.Close,
		}, nil
	case config.LimiterMemory:
		return limiters{
			guest:  limiter.NewMemory(cfg.GuestPostLimit, cfg.GuestPostWindow),
			login:  limiter.NewMemory(cfg.LoginLimit, cfg.LoginWindow),
			closer: func() error { return nil },
		}, nil
	default:
		return limiters{}, errors.Errorf("unknown rate limit driver %q", cfg.RateLimitDriver)
	}
}
