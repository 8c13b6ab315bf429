package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ============================================================================
//                              TypedConfig
// ============================================================================

// TypedConfig 类型化通道配置
type TypedConfig struct {
	// SyncTimeout SendAndWait 的默认超时
	// 默认: 30s
	SyncTimeout Duration `json:"sync_timeout"`
}

// DefaultTypedConfig 返回默认类型化通道配置
func DefaultTypedConfig() TypedConfig {
	return TypedConfig{SyncTimeout: Duration(30 * time.Second)}
}

// Validate 验证配置
func (c TypedConfig) Validate() error {
	if c.SyncTimeout <= 0 {
		return errors.New("sync_timeout must be positive")
	}
	return nil
}

// ============================================================================
//                              ReliableConfig
// ============================================================================

// ReliableConfig 可靠性包装配置
type ReliableConfig struct {
	// AckTimeout 等待确认的时长，超时即 NotDelivered
	// 默认: 11s
	AckTimeout Duration `json:"ack_timeout"`

	// SweepInterval 清扫间隔上限，实际间隔不超过 AckTimeout/2
	// 默认: 500ms
	SweepInterval Duration `json:"sweep_interval"`
}

// DefaultReliableConfig 返回默认可靠性配置
func DefaultReliableConfig() ReliableConfig {
	return ReliableConfig{
		AckTimeout:    Duration(11 * time.Second),
		SweepInterval: Duration(500 * time.Millisecond),
	}
}

// Validate 验证配置
func (c ReliableConfig) Validate() error {
	if c.AckTimeout <= 0 {
		return errors.New("ack_timeout must be positive")
	}
	if c.SweepInterval < 0 {
		return errors.New("sweep_interval must not be negative")
	}
	return nil
}

// ============================================================================
//                              CommandConfig
// ============================================================================

// 命令执行策略名
const (
	StrategyMulti  = "multi"
	StrategySingle = "single"
)

// CommandConfig 命令引擎配置
type CommandConfig struct {
	// Strategy 执行策略：multi（每命令独立执行）或 single（单 worker 顺序执行）
	// 默认: multi
	Strategy string `json:"strategy"`

	// MaxConcurrency multi 策略下同时执行的命令上限，0 表示不限
	// 默认: 0
	MaxConcurrency int `json:"max_concurrency"`

	// QueueSize single 策略的等待队列长度，队列满时命令直接失败
	// 默认: 1024
	QueueSize int `json:"queue_size"`
}

// DefaultCommandConfig 返回默认命令引擎配置
func DefaultCommandConfig() CommandConfig {
	return CommandConfig{
		Strategy:       StrategyMulti,
		MaxConcurrency: 0,
		QueueSize:      1024,
	}
}

// Validate 验证配置
func (c CommandConfig) Validate() error {
	switch strings.ToLower(c.Strategy) {
	case StrategyMulti, StrategySingle:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.MaxConcurrency < 0 {
		return errors.New("max_concurrency must not be negative")
	}
	if c.QueueSize <= 0 {
		return errors.New("queue_size must be positive")
	}
	return nil
}
