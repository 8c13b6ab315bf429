package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Config 指标配置
type Config struct {
	// Enable 是否启用指标收集
	Enable bool

	// Namespace Prometheus 命名空间
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enable:    false,
		Namespace: "duplexmsg",
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	LC         fx.Lifecycle
	Config     *Config               `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(NewReporterFromParams),
)

// NewReporterFromParams 从参数创建 Reporter
//
// 未启用时返回 Nop()；未提供 Registerer 时注册到 prometheus.DefaultRegisterer。
func NewReporterFromParams(p Params) (Reporter, error) {
	cfg := DefaultConfig()
	if p.Config != nil {
		cfg = *p.Config
	}
	if !cfg.Enable {
		return Nop(), nil
	}

	reg := p.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c, err := NewCollector(cfg, reg)
	if err != nil {
		return nil, err
	}
	p.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			c.Unregister(reg)
			return nil
		},
	})
	return c, nil
}
