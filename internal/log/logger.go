// Package log 提供进程级共享的结构化日志实例。
package log

import (
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

// Logger 是全局日志实例，默认 info 级别。
var Logger logSDK.Logger

func init() {
	var err error
	if Logger, err = logSDK.NewConsoleWithName("lumina", logSDK.LevelInfo); err != nil {
		logSDK.Shared.Panic("new logger", zap.Error(err))
	}
}

// Setup 按配置重建全局日志实例。
func Setup(debug bool) error {
	level := logSDK.LevelInfo
	if debug {
		level = logSDK.LevelDebug
	}

	logger, err := logSDK.NewConsoleWithName("lumina", level)
	if err != nil {
		return err
	}

	Logger = logger
	return nil
}
