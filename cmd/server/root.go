package main

import (
	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/lumina/internal/config"
	"github.com/lumina/internal/log"
)

var rootCMD = &cobra.Command{
	Use:   "lumina",
	Short: "lumina",
	Long:  `blog platform with guest submissions and an admin api`,
	Args:  gcmd.NoExtraArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// initialize 读取配置并按配置重建日志。
func initialize(cmd *cobra.Command) (config.AppConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.AppConfig{}, errors.Wrap(err, "read config flag")
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.AppConfig{}, err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	cfg.Debug = cfg.Debug || debug
	if err := log.Setup(cfg.Debug); err != nil {
		return config.AppConfig{}, errors.Wrap(err, "setup logger")
	}
	gin.SetMode(cfg.GinMode)

	return cfg, nil
}

func init() {
	rootCMD.PersistentFlags().StringP("config", "c", "", "toml config file path, env vars override it")
	rootCMD.PersistentFlags().Bool("debug", false, "run in debug mode")
}

// Execute execute root command
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		logSDK.Shared.Panic("start", zap.Error(err))
	}
}
