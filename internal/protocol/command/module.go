package command

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置（可选）
	Config *Config `optional:"true"`

	// Typed 类型化通道工厂（可选）
	Typed *typed.Factory `optional:"true"`

	// Reliable 可靠通道工厂（可选）
	Reliable *reliable.Factory `optional:"true"`

	// Reporter 指标（可选）
	Reporter metrics.Reporter `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Factory *Factory
}

// Factory 按统一配置创建命令代理端与执行端
type Factory struct {
	opts []Option
}

// NewFactory 创建工厂
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// Options 返回工厂配置对应的选项，extra 追加在后
func (f *Factory) Options(extra ...Option) []Option {
	opts := make([]Option, 0, len(f.opts)+len(extra))
	opts = append(opts, f.opts...)
	return append(opts, extra...)
}

// NewProxy 创建代理端
func (f *Factory) NewProxy(extra ...Option) *Proxy {
	return NewProxy(f.Options(extra...)...)
}

// NewReliableProxy 创建可靠代理端
func (f *Factory) NewReliableProxy(extra ...Option) *ReliableProxy {
	return NewReliableProxy(f.Options(extra...)...)
}

// NewReceiver 创建执行端
func (f *Factory) NewReceiver(process ProcessFunc, extra ...Option) (*Receiver, error) {
	return NewReceiver(process, f.Options(extra...)...)
}

// NewReliableReceiver 创建可靠执行端
func (f *Factory) NewReliableReceiver(process ProcessFunc, extra ...Option) (*ReliableReceiver, error) {
	return NewReliableReceiver(process, f.Options(extra...)...)
}

// ProvideFactory 提供工厂
func ProvideFactory(input ModuleInput) ModuleOutput {
	var opts []Option
	if input.Typed != nil {
		opts = append(opts, WithTypedOptions(input.Typed.Options()...))
	}
	if input.Reliable != nil {
		opts = append(opts, WithReliableOptions(input.Reliable.Options()...))
	}
	if input.Config != nil {
		cfg := *input.Config
		opts = append(opts,
			WithStrategy(cfg.Strategy),
			WithMaxConcurrency(cfg.MaxConcurrency),
			WithQueueSize(cfg.QueueSize),
			WithClock(cfg.Clock),
			WithTypedOptions(cfg.Typed...),
			WithReliableOptions(cfg.Reliable...),
		)
	}
	if input.Reporter != nil {
		opts = append(opts, WithReporter(input.Reporter))
	}
	return ModuleOutput{Factory: NewFactory(opts...)}
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("command",
		fx.Provide(ProvideFactory),
	)
}
