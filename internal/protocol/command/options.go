package command

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// Strategy 执行策略
type Strategy int

const (
	// MultiThread 每个命令独立执行
	MultiThread Strategy = iota
	// SingleThread 所有命令在一个 worker 上按到达顺序执行
	SingleThread
)

// String 返回策略名
func (s Strategy) String() string {
	switch s {
	case MultiThread:
		return "multi"
	case SingleThread:
		return "single"
	default:
		return "unknown"
	}
}

// ParseStrategy 解析策略名（single / multi）
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multi", "multithread":
		return MultiThread, nil
	case "single", "singlethread":
		return SingleThread, nil
	default:
		return MultiThread, fmt.Errorf("%w: unknown strategy %q", types.ErrInvalidArgument, s)
	}
}

// Config 命令引擎配置
type Config struct {
	// Strategy 执行策略
	Strategy Strategy

	// MaxConcurrency MultiThread 下的最大并发数，0 表示不限制
	MaxConcurrency int

	// QueueSize SingleThread 下等待执行的命令上限
	QueueSize int

	// Clock 时钟，用于 DequeueInputData/WaitIfPause 超时
	Clock clock.Clock

	// Reporter 指标
	Reporter metrics.Reporter

	// Typed 底层类型化通道选项
	Typed []typed.Option

	// Reliable 可靠通道选项（仅可靠变体使用）
	Reliable []reliable.Option
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Strategy:       MultiThread,
		MaxConcurrency: 0,
		QueueSize:      1024,
		Clock:          clock.New(),
		Reporter:       metrics.Nop(),
	}
}

// Option 配置选项函数
type Option func(*Config)

// WithStrategy 设置执行策略
func WithStrategy(s Strategy) Option {
	return func(c *Config) {
		c.Strategy = s
	}
}

// WithMaxConcurrency 设置 MultiThread 最大并发数
func WithMaxConcurrency(n int) Option {
	return func(c *Config) {
		c.MaxConcurrency = n
	}
}

// WithQueueSize 设置 SingleThread 队列上限
func WithQueueSize(n int) Option {
	return func(c *Config) {
		c.QueueSize = n
	}
}

// WithClock 设置时钟
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		if clk != nil {
			c.Clock = clk
		}
	}
}

// WithReporter 设置指标，同时用于底层通道
func WithReporter(r metrics.Reporter) Option {
	return func(c *Config) {
		c.Reporter = metrics.OrNop(r)
		c.Typed = append(c.Typed, typed.WithReporter(r))
		c.Reliable = append(c.Reliable, reliable.WithReporter(r))
	}
}

// WithTypedOptions 追加底层类型化通道选项
func WithTypedOptions(opts ...typed.Option) Option {
	return func(c *Config) {
		c.Typed = append(c.Typed, opts...)
	}
}

// WithReliableOptions 追加可靠通道选项
func WithReliableOptions(opts ...reliable.Option) Option {
	return func(c *Config) {
		c.Reliable = append(c.Reliable, opts...)
	}
}

func newConfig(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return cfg
}

// reliableOptions 可靠通道的完整选项：类型化选项在前
func (c *Config) reliableOptions() []reliable.Option {
	opts := []reliable.Option{reliable.WithTypedOptions(c.Typed...)}
	return append(opts, c.Reliable...)
}
