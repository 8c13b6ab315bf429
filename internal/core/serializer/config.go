package serializer

import (
	"fmt"
	"io"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// 序列化格式
const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

// Config 序列化器配置
type Config struct {
	// Format 序列化格式：json 或 proto
	// 默认: json
	Format string

	// Compress 是否启用 zstd 压缩
	// 默认: false
	Compress bool

	// CompressThreshold 压缩阈值（字节）
	// 默认: 512
	CompressThreshold int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Format:            FormatJSON,
		Compress:          false,
		CompressThreshold: DefaultCompressThreshold,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Format {
	case FormatJSON, FormatProto:
	default:
		return fmt.Errorf("%w: unknown serializer format %q", types.ErrInvalidArgument, c.Format)
	}
	if c.CompressThreshold < 0 {
		return fmt.Errorf("%w: negative compress threshold", types.ErrInvalidArgument)
	}
	return nil
}

// New 按配置创建序列化器
//
// 启用压缩时返回的序列化器实现 io.Closer。
func New(cfg *Config) (interfaces.Serializer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base interfaces.Serializer
	switch cfg.Format {
	case FormatProto:
		base = NewProto()
	default:
		base = NewJSON()
	}

	if !cfg.Compress {
		return base, nil
	}
	return NewZstd(base, cfg.CompressThreshold)
}

// closeIfCloser 关闭实现了 io.Closer 的序列化器
func closeIfCloser(s interfaces.Serializer) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
