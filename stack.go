package duplexmsg

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-duplexmsg/config"
	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/debug/introspect"
	"github.com/dep2p/go-duplexmsg/internal/protocol/command"
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/logger"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
)

var stackLogger = log.Logger("duplexmsg")

const (
	startTimeout = 10 * time.Second
	stopTimeout  = 10 * time.Second
)

// Stats 指标快照
type Stats = metrics.Stats

// Stack 按统一配置创建各层通道，并负责它们的释放
//
// 由 Stack 创建的可靠通道与命令执行端在 Close 时一并关闭。
type Stack struct {
	cfg config.Config
	app *fx.App

	typed      *typed.Factory
	reliable   *reliable.Factory
	command    *command.Factory
	reporter   metrics.Reporter
	serializer interfaces.Serializer
	introspect *introspect.Server

	mu      sync.Mutex
	closed  bool
	closers []func() error
}

// New 创建并启动 Stack
func New(opts ...Option) (*Stack, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	installLogger(o.config.Log)

	s := &Stack{cfg: *o.config}
	app, err := buildFxApp(o, s)
	if err != nil {
		return nil, err
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, fmt.Errorf("start fx app: %w", err)
	}
	s.app = app

	stackLogger.Debug("Stack 已启动",
		"strategy", s.cfg.Command.Strategy,
		"format", s.cfg.Serializer.Format,
		"metrics", s.cfg.Metrics.Enable)
	return s, nil
}

// installLogger 按配置安装全局日志 Handler
//
// FromEnv 时只有设置了 DUPLEXMSG_LOG_LEVEL 或 DUPLEXMSG_LOG_FORMAT 才安装，
// 否则保持调用方已有的 slog 默认值。
func installLogger(c config.LogConfig) {
	if c.FromEnv && (os.Getenv(logger.EnvLevel) != "" || os.Getenv(logger.EnvFormat) != "") {
		logger.InstallFromEnv()
		return
	}
	if c.Level == "" {
		return
	}
	level, ok := logger.ParseLevel(c.Level)
	if !ok {
		return
	}
	lc := logger.DefaultConfig()
	lc.DefaultLevel = level
	logger.Install(nil, lc)
}

// Config 返回 Stack 使用的配置副本
func (s *Stack) Config() config.Config {
	return s.cfg
}

// Serializer 返回默认序列化器
func (s *Stack) Serializer() interfaces.Serializer {
	return s.serializer
}

// Stats 返回指标快照；未启用指标时为零值
func (s *Stack) Stats() Stats {
	return s.reporter.Snapshot()
}

// IntrospectAddr 返回自省服务的实际监听地址，未启用时为空
func (s *Stack) IntrospectAddr() string {
	if s.introspect == nil {
		return ""
	}
	return s.introspect.Addr()
}

// track 登记需要随 Stack 关闭的组件
func (s *Stack) track(closer func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStackClosed
	}
	s.closers = append(s.closers, closer)
	return nil
}

func (s *Stack) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close 关闭 Stack 创建的组件并停止 Fx 应用
//
// 可靠通道中尚未确认的消息会收到 NotDelivered。重复调用返回 ErrStackClosed。
func (s *Stack) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStackClosed
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i]())
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if stopErr := s.app.Stop(ctx); stopErr != nil {
		err = multierr.Append(err, fmt.Errorf("stop fx app: %w", stopErr))
	}

	if err != nil {
		stackLogger.Warn("Stack 关闭时出错", "err", err)
	} else {
		stackLogger.Debug("Stack 已关闭", "components", len(closers))
	}
	return err
}
