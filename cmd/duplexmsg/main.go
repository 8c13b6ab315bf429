// Package main 提供 duplexmsg 命令行工具
//
// 用于检查配置：合并配置文件、环境变量与命令行参数后验证并输出最终配置，
// 可选地用该配置启动一次 Stack 做自检，或持续运行并提供自省服务。
//
//	duplexmsg -config duplexmsg.json -print-config
//	DUPLEXMSG_PRESET=serial duplexmsg -check
//	duplexmsg -serve -introspect 127.0.0.1:6060
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	duplexmsg "github.com/dep2p/go-duplexmsg"
	"github.com/dep2p/go-duplexmsg/config"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
)

var logger = log.Logger("duplexmsg/cmd")

var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	preset      = flag.String("preset", "", "预设 (default/test/serial)")
	strategy    = flag.String("strategy", "", "命令执行策略 (multi/single)")
	printConfig = flag.Bool("print-config", false, "输出最终配置")
	check       = flag.Bool("check", false, "用最终配置启动并关闭一次 Stack")
	serve       = flag.Bool("serve", false, "启动 Stack 并运行至收到退出信号")
	introspect  = flag.String("introspect", "", "启用自省服务的监听地址")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(duplexmsg.VersionInfo())
		return nil
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	if *printConfig {
		data, err := cfg.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}

	if *check {
		logger.Info("启动自检", "version", duplexmsg.Version)
		stack, err := duplexmsg.New(duplexmsg.WithConfig(cfg))
		if err != nil {
			return fmt.Errorf("启动失败: %w", err)
		}
		if err := stack.Close(); err != nil {
			return fmt.Errorf("关闭失败: %w", err)
		}
		fmt.Println("配置有效，Stack 启动与关闭正常")
	}

	if *serve {
		return serveStack(cfg)
	}

	if !*printConfig && !*check {
		fmt.Println("配置有效")
	}
	return nil
}

// buildConfig 合并配置
//
// 优先级（从高到低）：命令行参数 > 环境变量 > 配置文件 > 默认值
func buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		if cfg, err = loadConfigFile(*configFile); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if *preset != "" {
		if err := config.ApplyPreset(cfg, *preset); err != nil {
			return nil, err
		}
	}
	if *strategy != "" {
		cfg.Command.Strategy = *strategy
	}
	if *introspect != "" {
		cfg.Diagnostics.EnableIntrospect = true
		cfg.Diagnostics.IntrospectAddr = *introspect
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serveStack 启动 Stack 并等待 SIGINT/SIGTERM
func serveStack(cfg *config.Config) error {
	stack, err := duplexmsg.New(duplexmsg.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	if addr := stack.IntrospectAddr(); addr != "" {
		fmt.Printf("自省服务: http://%s/debug/introspect\n", addr)
	}
	logger.Info("Stack 已启动，按 Ctrl+C 退出")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	logger.Info("正在关闭")
	return stack.Close()
}
