package duplexmsg

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	internalconfig "github.com/dep2p/go-duplexmsg/internal/config"
	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/core/serializer"
	"github.com/dep2p/go-duplexmsg/internal/debug/introspect"
	"github.com/dep2p/go-duplexmsg/internal/protocol/command"
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置分发 → 序列化器 → 指标
//  2. typed → reliable → command 工厂
//  3. 自省服务（启用时）
func buildFxApp(o *options, s *Stack) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		internalconfig.Module(),
		metrics.Module,
	}

	// ════════════════════════════════════════════════════════════════════════
	// 序列化器：用户提供的优先
	// ════════════════════════════════════════════════════════════════════════
	if o.serializer != nil {
		ser := o.serializer
		modules = append(modules, fx.Provide(fx.Annotate(
			func() interfaces.Serializer { return ser },
			fx.ResultTags(`name:"serializer"`),
		)))
	} else {
		modules = append(modules, serializer.Module())
	}

	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	if o.clock != nil {
		modules = append(modules, clockDecorators(o))
	}

	modules = append(modules,
		typed.Module(),
		reliable.Module(),
		command.Module(),
	)

	if o.config.Diagnostics.EnableIntrospect {
		modules = append(modules,
			introspect.Module(),
			fx.Populate(&s.introspect),
		)
	}

	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	modules = append(modules,
		fx.Populate(&s.typed, &s.reliable, &s.command, &s.reporter),
		fx.Invoke(func(p serializerParam) { s.serializer = p.Serializer }),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...), nil
}

type serializerParam struct {
	fx.In
	Serializer interfaces.Serializer `name:"serializer"`
}

// clockDecorators 把用户时钟写入各协议配置
func clockDecorators(o *options) fx.Option {
	clk := o.clock
	return fx.Decorate(
		func(c *typed.Config) *typed.Config {
			cp := *c
			cp.Clock = clk
			return &cp
		},
		func(c *reliable.Config) *reliable.Config {
			cp := *c
			cp.Clock = clk
			return &cp
		},
		func(c *command.Config) *command.Config {
			cp := *c
			cp.Clock = clk
			return &cp
		},
	)
}
