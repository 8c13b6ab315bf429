// Package config 提供统一的配置管理
//
// 主 Config 聚合各组件的子配置，每个子配置在独立文件中定义，
// 可从 JSON 加载、保存并在使用前验证：
//
//	cfg := config.NewConfig()
//	cfg.Command.Strategy = "single"
//	cfg.Reliable.AckTimeout = config.Duration(2 * time.Second)
//
//	cfg, err := config.FromJSON(data)
//
// 本包只描述配置，不读取文件或环境变量；I/O 由应用层负责。
package config

import (
	"errors"
	"fmt"
)

// Config 完整配置
type Config struct {
	// Typed 类型化通道配置
	Typed TypedConfig `json:"typed"`

	// Reliable 可靠性包装配置
	Reliable ReliableConfig `json:"reliable"`

	// Command 命令引擎配置
	Command CommandConfig `json:"command"`

	// Serializer 序列化配置
	Serializer SerializerConfig `json:"serializer"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// Diagnostics 诊断配置
	Diagnostics DiagnosticsConfig `json:"diagnostics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Typed:       DefaultTypedConfig(),
		Reliable:    DefaultReliableConfig(),
		Command:     DefaultCommandConfig(),
		Serializer:  DefaultSerializerConfig(),
		Metrics:     DefaultMetricsConfig(),
		Log:         DefaultLogConfig(),
		Diagnostics: DefaultDiagnosticsConfig(),
	}
}

// Validate 验证所有子配置，返回第一个错误
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	subs := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"typed", c.Typed},
		{"reliable", c.Reliable},
		{"command", c.Command},
		{"serializer", c.Serializer},
		{"metrics", c.Metrics},
		{"log", c.Log},
		{"diagnostics", c.Diagnostics},
	}
	for _, s := range subs {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// MustValidate 验证配置，失败时 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}
