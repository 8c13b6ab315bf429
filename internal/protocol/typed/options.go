package typed

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/core/serializer"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
)

// Config 类型化通道配置
type Config struct {
	// SyncTimeout SendAndWait 未指定超时时使用的默认值
	SyncTimeout time.Duration

	// Serializer 序列化器，实现 PeerSerializer 时按对端选择
	Serializer interfaces.Serializer

	// Reporter 指标
	Reporter metrics.Reporter

	// Clock 时钟
	Clock clock.Clock
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		SyncTimeout: 30 * time.Second,
		Serializer:  serializer.NewJSON(),
		Reporter:    metrics.Nop(),
		Clock:       clock.New(),
	}
}

// Option 配置选项函数
type Option func(*Config)

// WithSyncTimeout 设置默认同步等待超时
func WithSyncTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.SyncTimeout = timeout
	}
}

// WithSerializer 设置序列化器
func WithSerializer(s interfaces.Serializer) Option {
	return func(c *Config) {
		if s != nil {
			c.Serializer = s
		}
	}
}

// WithReporter 设置指标
func WithReporter(r metrics.Reporter) Option {
	return func(c *Config) {
		c.Reporter = metrics.OrNop(r)
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

func newConfig(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
