package duplexmsg

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-duplexmsg/config"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// 覆盖 Serializer 配置构造的序列化器
	serializer interfaces.Serializer

	// 指标注册表，为空且启用指标时使用 prometheus.DefaultRegisterer
	registerer prometheus.Registerer

	// 所有组件共用的时钟
	clock clock.Clock

	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用完整配置，后续选项在其基础上修改
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		c := *cfg
		o.config = &c
		return nil
	}
}

// WithConfigJSON 从 JSON 加载配置
func WithConfigJSON(data []byte) Option {
	return func(o *options) error {
		cfg, err := config.FromJSON(data)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithPreset 应用预设（default / test / serial）
func WithPreset(name string) Option {
	return func(o *options) error {
		return config.ApplyPreset(o.config, name)
	}
}

// WithSyncTimeout 设置 SendAndWait 的默认超时
func WithSyncTimeout(d config.Duration) Option {
	return func(o *options) error {
		o.config.Typed.SyncTimeout = d
		return nil
	}
}

// WithAckTimeout 设置可靠投递的确认超时
func WithAckTimeout(d config.Duration) Option {
	return func(o *options) error {
		o.config.Reliable.AckTimeout = d
		return nil
	}
}

// WithCommandStrategy 设置命令执行策略（multi / single）
func WithCommandStrategy(strategy string) Option {
	return func(o *options) error {
		o.config.Command.Strategy = strategy
		return nil
	}
}

// WithMaxConcurrency 设置 multi 策略的并发上限
func WithMaxConcurrency(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("%w: negative max concurrency", ErrInvalidArgument)
		}
		o.config.Command.MaxConcurrency = n
		return nil
	}
}

// WithSerializer 使用自定义序列化器
//
// 实现 interfaces.PeerSerializer 时按对端选择。
func WithSerializer(s interfaces.Serializer) Option {
	return func(o *options) error {
		if s == nil {
			return errors.New("serializer is nil")
		}
		o.serializer = s
		return nil
	}
}

// WithMetrics 启用 Prometheus 指标并注册到 reg（nil 使用默认注册表）
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.config.Metrics.Enable = true
		o.registerer = reg
		return nil
	}
}

// WithIntrospect 启用本地自省 HTTP 服务，addr 为空时使用默认地址
func WithIntrospect(addr string) Option {
	return func(o *options) error {
		o.config.Diagnostics.EnableIntrospect = true
		if addr != "" {
			o.config.Diagnostics.IntrospectAddr = addr
		}
		return nil
	}
}

// WithClock 设置时钟，测试中可传入 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
