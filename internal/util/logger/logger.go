package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
)

// Install 按配置创建 Handler 并设为全局默认
//
// w 为 nil 时输出到 stderr。所有 log.Logger 返回的组件 logger
// 在下一次调用时即使用新的 Handler。
//
// 示例:
//
//	logger.Install(os.Stderr, logger.ConfigFromEnv())
func Install(w io.Writer, cfg *Config) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := slog.New(NewHandler(w, cfg))
	log.SetDefault(l)
	return l
}

// InstallFromEnv 使用环境变量配置安装默认 Handler
func InstallFromEnv() *slog.Logger {
	return Install(os.Stderr, ConfigFromEnv())
}
