package serializer

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
)

var logger = log.Logger("core/serializer")

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置（可选）
	Config *Config `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Serializer 默认序列化器
	Serializer interfaces.Serializer `name:"serializer"`
}

// ProvideSerializer 提供序列化器
func ProvideSerializer(input ModuleInput) (ModuleOutput, error) {
	s, err := New(input.Config)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Serializer: s}, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("serializer",
		fx.Provide(ProvideSerializer),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC         fx.Lifecycle
	Serializer interfaces.Serializer `name:"serializer"`
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Debug("释放序列化器资源")
			return closeIfCloser(input.Serializer)
		},
	})
}
