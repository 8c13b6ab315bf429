// Package config 将用户配置分发为各组件的内部配置
//
// ProvideConfig 作为 fx 提供者，把 config.Config 转换为
// typed/reliable/command/serializer/metrics 各自的 Config，
// 由各模块的 ModuleInput 以可选依赖注入。
package config

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-duplexmsg/config"
	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/core/serializer"
	"github.com/dep2p/go-duplexmsg/internal/protocol/command"
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
)

// ProviderResult fx 提供者结果
type ProviderResult struct {
	fx.Out

	Typed      *typed.Config
	Reliable   *reliable.Config
	Command    *command.Config
	Serializer *serializer.Config
	Metrics    *metrics.Config
}

// ProvideConfig 提供各组件配置
//
// 配置无效时返回错误，fx 应用启动失败。
func ProvideConfig(cfg *config.Config) (ProviderResult, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return ProviderResult{}, fmt.Errorf("config validation failed: %w", err)
	}

	cmd, err := ToCommand(cfg.Command)
	if err != nil {
		return ProviderResult{}, err
	}

	return ProviderResult{
		Typed:      ToTyped(cfg.Typed),
		Reliable:   ToReliable(cfg.Reliable),
		Command:    cmd,
		Serializer: ToSerializer(cfg.Serializer),
		Metrics:    ToMetrics(cfg.Metrics),
	}, nil
}

// Module 配置分发模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(ProvideConfig),
	)
}

// ============================================================================
//                              转换
// ============================================================================

// ToTyped 转换类型化通道配置；序列化器、指标与时钟由模块注入补齐
func ToTyped(c config.TypedConfig) *typed.Config {
	return &typed.Config{SyncTimeout: c.SyncTimeout.Std()}
}

// ToReliable 转换可靠性配置
func ToReliable(c config.ReliableConfig) *reliable.Config {
	return &reliable.Config{
		AckTimeout:    c.AckTimeout.Std(),
		SweepInterval: c.SweepInterval.Std(),
	}
}

// ToCommand 转换命令引擎配置
func ToCommand(c config.CommandConfig) (*command.Config, error) {
	strategy, err := command.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, err
	}
	return &command.Config{
		Strategy:       strategy,
		MaxConcurrency: c.MaxConcurrency,
		QueueSize:      c.QueueSize,
	}, nil
}

// ToSerializer 转换序列化配置
func ToSerializer(c config.SerializerConfig) *serializer.Config {
	return &serializer.Config{
		Format:            c.Format,
		Compress:          c.Compress,
		CompressThreshold: c.CompressThreshold,
	}
}

// ToMetrics 转换指标配置
func ToMetrics(c config.MetricsConfig) *metrics.Config {
	return &metrics.Config{
		Enable:    c.Enable,
		Namespace: c.Namespace,
	}
}
