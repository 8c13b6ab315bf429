package serializer

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// 压缩帧首字节
const (
	frameRaw  byte = 0
	frameZstd byte = 1
)

// DefaultCompressThreshold 默认压缩阈值（字节）
const DefaultCompressThreshold = 512

// MaxDecodedSize 单帧解压后的上限（字节）
const MaxDecodedSize = 64 << 20

var errEmptyFrame = errors.New("empty frame")

// Zstd 压缩装饰器
//
// 先用内层序列化器编码，再在前面加 1 字节帧头：
// 小于阈值的载荷原样保存（帧头 0），否则用 zstd 压缩（帧头 1）。
// Encoder/Decoder 的 EncodeAll/DecodeAll 并发安全。
type Zstd struct {
	inner     interfaces.Serializer
	threshold int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

var _ interfaces.Serializer = (*Zstd)(nil)

// NewZstd 创建压缩装饰器
//
// threshold <= 0 时使用 DefaultCompressThreshold；解压超过 MaxDecodedSize 的帧返回错误。
func NewZstd(inner interfaces.Serializer, threshold int) (*Zstd, error) {
	return newZstd(inner, threshold, MaxDecodedSize)
}

func newZstd(inner interfaces.Serializer, threshold int, maxDecoded uint64) (*Zstd, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner serializer is nil", types.ErrInvalidArgument)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecoded))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Zstd{
		inner:     inner,
		threshold: threshold,
		enc:       enc,
		dec:       dec,
	}, nil
}

// Serialize 序列化并按需压缩
func (z *Zstd) Serialize(v any) ([]byte, error) {
	raw, err := z.inner.Serialize(v)
	if err != nil {
		return nil, err
	}

	if len(raw) < z.threshold {
		out := make([]byte, 0, len(raw)+1)
		out = append(out, frameRaw)
		return append(out, raw...), nil
	}

	out := make([]byte, 1, len(raw)/2+1)
	out[0] = frameZstd
	return z.enc.EncodeAll(raw, out), nil
}

// Deserialize 解压并反序列化
func (z *Zstd) Deserialize(data []byte, v any) error {
	if len(data) == 0 {
		return types.NewSerializationError("deserialize", v, errEmptyFrame)
	}

	switch data[0] {
	case frameRaw:
		return z.inner.Deserialize(data[1:], v)
	case frameZstd:
		raw, err := z.dec.DecodeAll(data[1:], nil)
		if err != nil {
			return types.NewSerializationError("deserialize", v, err)
		}
		return z.inner.Deserialize(raw, v)
	default:
		return types.NewSerializationError("deserialize", v, fmt.Errorf("unknown frame type %d", data[0]))
	}
}

// Close 释放编解码器资源
func (z *Zstd) Close() error {
	z.dec.Close()
	return z.enc.Close()
}
