package config

import (
	"errors"
	"fmt"
)

// 序列化格式名
const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

// SerializerConfig 序列化配置
type SerializerConfig struct {
	// Format 默认序列化格式：json 或 proto
	// 默认: json
	Format string `json:"format"`

	// Compress 是否对载荷做 zstd 压缩
	// 默认: false
	Compress bool `json:"compress"`

	// CompressThreshold 小于该字节数的载荷不压缩
	// 默认: 512
	CompressThreshold int `json:"compress_threshold"`
}

// DefaultSerializerConfig 返回默认序列化配置
func DefaultSerializerConfig() SerializerConfig {
	return SerializerConfig{
		Format:            FormatJSON,
		CompressThreshold: 512,
	}
}

// Validate 验证配置
func (c SerializerConfig) Validate() error {
	switch c.Format {
	case FormatJSON, FormatProto:
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if c.CompressThreshold < 0 {
		return errors.New("compress_threshold must not be negative")
	}
	return nil
}
