package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// ErrUnsupportedType 不支持的类型
var ErrUnsupportedType = errors.New("wire: unsupported type")

// Supports 判断 v 是否为本包可编码的类型
func Supports(v any) bool {
	switch v.(type) {
	case types.TaggedEnvelope, *types.TaggedEnvelope,
		types.ReliableEnvelope, *types.ReliableEnvelope,
		types.CommandRequest, *types.CommandRequest,
		types.CommandResponse, *types.CommandResponse:
		return true
	default:
		return false
	}
}

// Marshal 编码 v
func Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case types.TaggedEnvelope:
		return appendTagged(nil, &m), nil
	case *types.TaggedEnvelope:
		return appendTagged(nil, m), nil
	case types.ReliableEnvelope:
		return appendReliable(nil, &m), nil
	case *types.ReliableEnvelope:
		return appendReliable(nil, m), nil
	case types.CommandRequest:
		return appendRequest(nil, &m), nil
	case *types.CommandRequest:
		return appendRequest(nil, m), nil
	case types.CommandResponse:
		return appendResponse(nil, &m), nil
	case *types.CommandResponse:
		return appendResponse(nil, m), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// Unmarshal 解码到 v，v 必须是本包支持类型的指针
func Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *types.TaggedEnvelope:
		*m = types.TaggedEnvelope{}
		return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			return taggedField(m, num, typ, b)
		})
	case *types.ReliableEnvelope:
		*m = types.ReliableEnvelope{}
		return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			return reliableField(m, num, typ, b)
		})
	case *types.CommandRequest:
		*m = types.CommandRequest{}
		return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			return requestField(m, num, typ, b)
		})
	case *types.CommandResponse:
		*m = types.CommandResponse{}
		return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			return responseField(m, num, typ, b)
		})
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// ============================================================================
//                              编码
// ============================================================================

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendTagged(b []byte, m *types.TaggedEnvelope) []byte {
	b = appendString(b, 1, m.TypeTag)
	b = appendBytes(b, 2, m.Payload)
	return b
}

func appendReliable(b []byte, m *types.ReliableEnvelope) []byte {
	b = appendVarint(b, 1, uint64(m.Kind))
	b = appendString(b, 2, m.MessageID)
	b = appendBytes(b, 3, m.Payload)
	return b
}

func appendRequest(b []byte, m *types.CommandRequest) []byte {
	b = appendString(b, 1, m.CommandID)
	b = appendVarint(b, 2, uint64(m.Kind))
	b = appendBytes(b, 3, m.InputFragment)
	return b
}

func appendResponse(b []byte, m *types.CommandResponse) []byte {
	b = appendString(b, 1, m.CommandID)
	b = appendVarint(b, 2, uint64(m.State))
	b = appendBytes(b, 3, m.ReturnFragment)
	b = appendString(b, 4, m.SequenceID)
	b = appendVarint(b, 5, protowire.EncodeBool(m.IsLast))
	b = appendString(b, 6, m.ErrorMessage)
	return b
}

// ============================================================================
//                              解码
// ============================================================================

// fieldFunc 处理一个字段，返回消耗的字节数；
// 返回 -1 表示不认识该字段，由调用方跳过
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeFields(data []byte, fn fieldFunc) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("wire: bad tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		m, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("wire: bad field %d: %w", num, protowire.ParseError(m))
			}
		}
		data = data[m:]
	}
	return nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("wire: expected bytes, got wire type %d", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("wire: bad bytes: %w", protowire.ParseError(n))
	}
	// 拷贝，避免引用调用方的缓冲区
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("wire: expected varint, got wire type %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, fmt.Errorf("wire: bad varint: %w", protowire.ParseError(n))
	}
	return v, n, nil
}
