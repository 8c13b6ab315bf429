package config

import (
	"errors"
	"fmt"
	"net"
)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enable 是否启用 Prometheus 指标
	// 默认: false
	Enable bool `json:"enable"`

	// Namespace 指标命名空间
	// 默认: duplexmsg
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Namespace: "duplexmsg"}
}

// Validate 验证配置
func (c MetricsConfig) Validate() error {
	if c.Enable && c.Namespace == "" {
		return errors.New("namespace required when metrics enabled")
	}
	return nil
}

// LogConfig 日志配置
type LogConfig struct {
	// FromEnv 是否按 DUPLEXMSG_LOG_* 环境变量安装全局日志 Handler
	// 默认: true
	FromEnv bool `json:"from_env"`

	// Level 未设置环境变量时的默认级别（debug/info/warn/error），空表示不改动
	Level string `json:"level,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{FromEnv: true}
}

// Validate 验证配置
func (c LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", c.Level)
	}
}

// DiagnosticsConfig 诊断配置
type DiagnosticsConfig struct {
	// EnableIntrospect 是否启动本地自省 HTTP 服务
	// 默认: false
	EnableIntrospect bool `json:"enable_introspect"`

	// IntrospectAddr 自省服务监听地址
	// 默认: 127.0.0.1:6060
	IntrospectAddr string `json:"introspect_addr"`
}

// DefaultDiagnosticsConfig 返回默认诊断配置
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{IntrospectAddr: "127.0.0.1:6060"}
}

// Validate 验证配置
func (c DiagnosticsConfig) Validate() error {
	if !c.EnableIntrospect {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.IntrospectAddr); err != nil {
		return fmt.Errorf("invalid introspect addr %q: %w", c.IntrospectAddr, err)
	}
	return nil
}
