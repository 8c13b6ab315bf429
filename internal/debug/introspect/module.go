package introspect

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-duplexmsg/config"
	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
)

// Module 返回自省服务 Fx 模块
func Module() fx.Option {
	return fx.Module("introspect",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// Params 自省服务依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config        `optional:"true"`
	Reporter   metrics.Reporter      `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// ConfigFromUnified 从统一配置创建服务配置，未启用时返回 nil
func ConfigFromUnified(cfg *config.Config) *Config {
	if cfg == nil || !cfg.Diagnostics.EnableIntrospect {
		return nil
	}
	addr := cfg.Diagnostics.IntrospectAddr
	if addr == "" {
		addr = DefaultAddr
	}
	return &Config{Addr: addr}
}

// NewFromParams 从参数创建自省服务
//
// 注册表同时实现 Gatherer 时 /metrics 使用它，否则使用 prometheus.DefaultGatherer。
func NewFromParams(p Params) *Server {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if cfg == nil {
		return nil
	}

	cfg.Reporter = p.Reporter
	cfg.Gatherer = prometheus.DefaultGatherer
	if g, ok := p.Registerer.(prometheus.Gatherer); ok {
		cfg.Gatherer = g
	}
	return New(*cfg)
}

// registerLifecycle 注册生命周期钩子
func registerLifecycle(lc fx.Lifecycle, server *Server) {
	if server == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return server.Stop()
		},
	})
}
