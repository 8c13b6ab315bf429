package reliable

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
)

// Config 可靠投递配置
type Config struct {
	// AckTimeout 确认超时
	AckTimeout time.Duration

	// SweepInterval 清扫间隔上限
	SweepInterval time.Duration

	// Clock 时钟
	Clock clock.Clock

	// Reporter 指标
	Reporter metrics.Reporter

	// Typed 底层类型化通道选项
	Typed []typed.Option
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		AckTimeout:    11 * time.Second,
		SweepInterval: 500 * time.Millisecond,
		Clock:         clock.New(),
		Reporter:      metrics.Nop(),
	}
}

// Option 配置选项函数
type Option func(*Config)

// WithAckTimeout 设置确认超时
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.AckTimeout = timeout
	}
}

// WithSweepInterval 设置清扫间隔上限
func WithSweepInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.SweepInterval = interval
	}
}

// WithClock 设置时钟，同时用于底层类型化通道
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		if clk != nil {
			c.Clock = clk
			c.Typed = append(c.Typed, typed.WithClock(clk))
		}
	}
}

// WithReporter 设置指标，同时用于底层类型化通道
func WithReporter(r metrics.Reporter) Option {
	return func(c *Config) {
		c.Reporter = metrics.OrNop(r)
		c.Typed = append(c.Typed, typed.WithReporter(r))
	}
}

// WithTypedOptions 追加底层类型化通道选项
func WithTypedOptions(opts ...typed.Option) Option {
	return func(c *Config) {
		c.Typed = append(c.Typed, opts...)
	}
}

func newConfig(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// sweepInterval 实际清扫间隔
func (c *Config) sweepInterval() time.Duration {
	interval := c.SweepInterval
	if half := c.AckTimeout / 2; half > 0 && (interval <= 0 || half < interval) {
		interval = half
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	return interval
}
