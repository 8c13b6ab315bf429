package serializer

import (
	"errors"
	"reflect"

	"google.golang.org/protobuf/proto"

	"github.com/dep2p/go-duplexmsg/internal/core/wire"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// errNotProto 值既不是 proto.Message 也不是 wire 支持的类型
var errNotProto = errors.New("value is neither a proto.Message nor a wire envelope")

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

// Proto protobuf 序列化器
//
// 支持 proto.Message（含 wrapperspb 等 well-known 类型）
// 以及 pkg/types 中的信封和命令消息。
type Proto struct{}

var _ interfaces.Serializer = Proto{}

// NewProto 创建 protobuf 序列化器
func NewProto() Proto {
	return Proto{}
}

// Serialize 序列化
func (Proto) Serialize(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		data, err := proto.Marshal(m)
		if err != nil {
			return nil, types.NewSerializationError("serialize", v, err)
		}
		return data, nil
	}

	if wire.Supports(v) {
		data, err := wire.Marshal(v)
		if err != nil {
			return nil, types.NewSerializationError("serialize", v, err)
		}
		return data, nil
	}

	return nil, types.NewSerializationError("serialize", v, errNotProto)
}

// Deserialize 反序列化
//
// v 可以是 proto.Message，也可以是指向 proto.Message 指针的指针
// （泛型通道中 Resp 为 *wrapperspb.Int32Value 时即是这种情况）。
func (Proto) Deserialize(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		if err := proto.Unmarshal(data, m); err != nil {
			return types.NewSerializationError("deserialize", v, err)
		}
		return nil
	}

	if m, ok := allocProtoTarget(v); ok {
		if err := proto.Unmarshal(data, m); err != nil {
			return types.NewSerializationError("deserialize", v, err)
		}
		return nil
	}

	if wire.Supports(v) {
		if err := wire.Unmarshal(data, v); err != nil {
			return types.NewSerializationError("deserialize", v, err)
		}
		return nil
	}

	return types.NewSerializationError("deserialize", v, errNotProto)
}

// allocProtoTarget 处理 **T（T 实现 proto.Message）的情况，
// 为 *v 分配新值并返回
func allocProtoTarget(v any) (proto.Message, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, false
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Ptr || !elem.Type().Implements(protoMessageType) {
		return nil, false
	}

	fresh := reflect.New(elem.Type().Elem())
	elem.Set(fresh)
	return fresh.Interface().(proto.Message), true
}
