package reliable

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
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

// Factory 按统一配置创建可靠通道
//
//	s := reliable.NewSender[Req, Resp](factory.Options()...)
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

// ProvideFactory 提供工厂
func ProvideFactory(input ModuleInput) ModuleOutput {
	var opts []Option
	if input.Typed != nil {
		opts = append(opts, WithTypedOptions(input.Typed.Options()...))
	}
	if input.Config != nil {
		cfg := *input.Config
		opts = append(opts,
			WithAckTimeout(cfg.AckTimeout),
			WithSweepInterval(cfg.SweepInterval),
			WithTypedOptions(cfg.Typed...),
		)
		if cfg.Clock != nil {
			opts = append(opts, WithClock(cfg.Clock))
		}
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
	return fx.Module("reliable",
		fx.Provide(ProvideFactory),
	)
}
