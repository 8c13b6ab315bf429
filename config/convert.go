package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// FromJSON 从 JSON 创建配置
//
// 未出现的字段保留默认值，结果已通过 Validate。
//
//	{
//	  "reliable": {"ack_timeout": "2s"},
//	  "command": {"strategy": "single", "queue_size": 64}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ToJSON 以缩进 JSON 导出配置
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// 预设名
const (
	PresetDefault = "default"
	PresetTest    = "test"
	PresetSerial  = "serial"
)

// ApplyPreset 应用预设
//
//   - "default": 默认值
//   - "test": 短超时，便于测试中快速观察超时与未送达
//   - "serial": 单 worker 顺序执行命令
func ApplyPreset(cfg *Config, name string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch name {
	case "":
	case PresetDefault:
		*cfg = *NewConfig()
	case PresetTest:
		cfg.Typed.SyncTimeout = Duration(2 * time.Second)
		cfg.Reliable.AckTimeout = Duration(200 * time.Millisecond)
		cfg.Reliable.SweepInterval = Duration(20 * time.Millisecond)
		cfg.Log.FromEnv = false
	case PresetSerial:
		cfg.Command.Strategy = StrategySingle
	default:
		return fmt.Errorf("unknown preset: %s", name)
	}
	return nil
}
