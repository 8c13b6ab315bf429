package typed

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置（可选）
	Config *Config `optional:"true"`

	// Serializer 默认序列化器（可选）
	Serializer interfaces.Serializer `name:"serializer" optional:"true"`

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

// Factory 按统一配置创建类型化通道
//
// 泛型构造函数无法直接注入，由 Factory 携带配置：
//
//	sender := typed.NewSender[Req, Resp](factory.Options()...)
type Factory struct {
	cfg Config
}

// NewFactory 创建工厂
func NewFactory(opts ...Option) *Factory {
	return &Factory{cfg: *newConfig(opts)}
}

// Options 返回工厂配置对应的选项，extra 追加在后
func (f *Factory) Options(extra ...Option) []Option {
	cfg := f.cfg
	opts := []Option{
		WithSyncTimeout(cfg.SyncTimeout),
		WithSerializer(cfg.Serializer),
		WithReporter(cfg.Reporter),
		WithClock(cfg.Clock),
	}
	return append(opts, extra...)
}

// Config 返回工厂配置副本
func (f *Factory) Config() Config {
	return f.cfg
}

// ProvideFactory 提供工厂
func ProvideFactory(input ModuleInput) ModuleOutput {
	cfg := DefaultConfig()
	if input.Config != nil {
		c := *input.Config
		cfg = &c
	}
	if input.Serializer != nil {
		cfg.Serializer = input.Serializer
	}
	if input.Reporter != nil {
		cfg.Reporter = input.Reporter
	}
	if cfg.Serializer == nil || cfg.Reporter == nil || cfg.Clock == nil {
		def := DefaultConfig()
		if cfg.Serializer == nil {
			cfg.Serializer = def.Serializer
		}
		if cfg.Reporter == nil {
			cfg.Reporter = def.Reporter
		}
		if cfg.Clock == nil {
			cfg.Clock = def.Clock
		}
	}
	return ModuleOutput{Factory: &Factory{cfg: *cfg}}
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("typed",
		fx.Provide(ProvideFactory),
	)
}
