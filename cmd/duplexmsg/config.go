package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dep2p/go-duplexmsg/config"
)

// 环境变量
const (
	envPreset         = "DUPLEXMSG_PRESET"
	envStrategy       = "DUPLEXMSG_COMMAND_STRATEGY"
	envMaxConcurrency = "DUPLEXMSG_COMMAND_MAX_CONCURRENCY"
	envAckTimeout     = "DUPLEXMSG_ACK_TIMEOUT"
	envSerializer     = "DUPLEXMSG_SERIALIZER"
	envIntrospect     = "DUPLEXMSG_INTROSPECT_ADDR"
)

// loadConfigFile 从 JSON 文件加载配置
func loadConfigFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}
	return config.FromJSON(data)
}

// applyEnvOverrides 应用环境变量覆盖
func applyEnvOverrides(cfg *config.Config) error {
	if v := os.Getenv(envPreset); v != "" {
		if err := config.ApplyPreset(cfg, v); err != nil {
			return fmt.Errorf("%s: %w", envPreset, err)
		}
	}
	if v := os.Getenv(envStrategy); v != "" {
		cfg.Command.Strategy = v
	}
	if v := os.Getenv(envMaxConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envMaxConcurrency, err)
		}
		cfg.Command.MaxConcurrency = n
	}
	if v := os.Getenv(envAckTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envAckTimeout, err)
		}
		cfg.Reliable.AckTimeout = config.Duration(d)
	}
	if v := os.Getenv(envSerializer); v != "" {
		cfg.Serializer.Format = v
	}
	if v := os.Getenv(envIntrospect); v != "" {
		cfg.Diagnostics.EnableIntrospect = true
		cfg.Diagnostics.IntrospectAddr = v
	}
	return nil
}
