package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/lumina/internal/handler"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/router"
	"github.com/lumina/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "serve",
	Long:  `run the http api server`,
	Args:  gcmd.NoExtraArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := initialize(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Logger.Warn("close store", zap.Error(err))
		}
	}()

	uploader, err := newUploader(cfg)
	if err != nil {
		return errors.Wrap(err, "setup media")
	}

	limits, err := newLimiters(cfg)
	if err != nil {
		return errors.Wrap(err, "setup rate limiter")
	}
	defer func() {
		if err := limits.closer(); err != nil {
			log.Logger.Warn("close rate limiter", zap.Error(err))
		}
	}()

	// 确保超级管理员存在
	if err := service.NewAccountService(st).EnsureUser(ctx, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		return errors.Wrap(err, "ensure super root user")
	}

	r := router.SetupRouter(cfg, handler.Options{
		Store:        st,
		Uploader:     uploader,
		GuestLimiter: limits.guest,
		LoginLimiter: limits.login,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Logger.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("store", cfg.StoreDriver),
			zap.String("media", cfg.MediaDriver),
			zap.String("rate_limit", cfg.RateLimitDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	log.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown server")
	}
	return nil
}

func init() {
	rootCMD.AddCommand(serveCMD)
}
