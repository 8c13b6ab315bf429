package dispatch

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

var logger = log.Logger("protocol/dispatch")

// Event 分发给处理器的消息
//
// 反序列化失败时 Err 非 nil，Value 为零值。
type Event[T any] struct {
	// ChannelID 通道标识
	ChannelID string

	// PeerID 对端 ID（输出端为本端响应接收者 ID）
	PeerID string

	// Tag 类型标签
	Tag string

	// Value 消息值
	Value T

	// Err 反序列化错误
	Err error
}

// origin 入站消息来源
type origin struct {
	channelID string
	peerID    string
}

// invoker 反序列化为具体类型并调用处理器
type invoker func(from origin, tag string, payload []byte, ser interfaces.Serializer)

// Registry 类型标签处理器表
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]invoker
}

// NewRegistry 创建处理器表
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]invoker)}
}

// Register 为标签注册处理器
//
// 标签为空或处理器为 nil 时返回 ErrInvalidArgument；标签已注册时返回 ErrDuplicateHandler。
func Register[T any](r *Registry, tag string, handler func(Event[T])) error {
	if tag == "" {
		return fmt.Errorf("%w: empty type tag", types.ErrInvalidArgument)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %q", types.ErrInvalidArgument, tag)
	}

	inv := func(from origin, tag string, payload []byte, ser interfaces.Serializer) {
		ev := Event[T]{ChannelID: from.channelID, PeerID: from.peerID, Tag: tag}
		if err := ser.Deserialize(payload, &ev.Value); err != nil {
			var zero T
			ev.Value = zero
			ev.Err = err
		}
		handler(ev)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[tag]; exists {
		return fmt.Errorf("%w: %q", types.ErrDuplicateHandler, tag)
	}
	r.handlers[tag] = inv
	logger.Debug("注册处理器", "tag", tag, "type", fmt.Sprintf("%T", *new(T)))
	return nil
}

// Unregister 注销标签的处理器，返回是否存在
func (r *Registry) Unregister(tag string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[tag]; !exists {
		return false
	}
	delete(r.handlers, tag)
	return true
}

// RegisteredTypes 返回已注册的标签（有序）
func (r *Registry) RegisteredTypes() []string {
	r.mu.RLock()
	tags := make([]string, 0, len(r.handlers))
	for tag := range r.handlers {
		tags = append(tags, tag)
	}
	r.mu.RUnlock()

	sort.Strings(tags)
	return tags
}

// IsRegistered 标签是否已注册
func (r *Registry) IsRegistered(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[tag]
	return ok
}

// dispatch 按标签路由，处理器在锁外调用
//
// 返回是否找到处理器；处理器 panic 时仍返回 true。
func (r *Registry) dispatch(from origin, env types.TaggedEnvelope, ser interfaces.Serializer) (found bool) {
	r.mu.RLock()
	inv := r.handlers[env.TypeTag]
	r.mu.RUnlock()

	if inv == nil {
		logger.Warn("未注册的类型标签，消息被丢弃",
			"tag", env.TypeTag,
			"channel", from.channelID,
			"peer", log.TruncateID(from.peerID, 8))
		return false
	}

	found = true
	defer func() {
		if err := types.RecoverHandlerError("dispatch."+env.TypeTag, recover()); err != nil {
			logger.Error("处理器执行失败", "tag", env.TypeTag, "err", err)
		}
	}()
	inv(from, env.TypeTag, env.Payload, ser)
	return found
}

// TypeTag 返回 T 的默认标签：带包路径的类型名
//
// 内置类型返回类型名本身，例如 "int32"、"string"。
func TypeTag[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	prefix := ""
	for t.Kind() == reflect.Ptr && t.Name() == "" {
		prefix += "*"
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return prefix + t.String()
	}
	return prefix + t.PkgPath() + "." + t.Name()
}

// wrap 序列化 v 并用标签包装
func wrap[T any](ser interfaces.Serializer, tag string, v T) (types.TaggedEnvelope, error) {
	if tag == "" {
		return types.TaggedEnvelope{}, fmt.Errorf("%w: empty type tag", types.ErrInvalidArgument)
	}
	payload, err := ser.Serialize(v)
	if err != nil {
		return types.TaggedEnvelope{}, err
	}
	return types.TaggedEnvelope{TypeTag: tag, Payload: payload}, nil
}
