package dispatch

import (
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

type envelopeSender = typed.Sender[types.TaggedEnvelope, types.TaggedEnvelope]
type envelopeReceiver = typed.Receiver[types.TaggedEnvelope, types.TaggedEnvelope]

// ============================================================================
//                              Sender - 输出端
// ============================================================================

// Sender 多类型输出端，入站响应按标签分发
type Sender struct {
	inner    *envelopeSender
	registry *Registry
	ser      interfaces.Serializer
}

// NewSender 创建多类型输出端
//
// 信封与负载使用同一序列化器。
func NewSender(opts ...typed.Option) *Sender {
	cfg := typed.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Sender{
		inner:    typed.NewSender[types.TaggedEnvelope, types.TaggedEnvelope](opts...),
		registry: NewRegistry(),
		ser:      cfg.Serializer,
	}
	s.inner.OnResponse(s.onResponse)
	return s
}

// Registry 返回响应处理器表
func (s *Sender) Registry() *Registry {
	return s.registry
}

// AttachOutputChannel 附加输出通道并打开连接
func (s *Sender) AttachOutputChannel(ch interfaces.DuplexOutputChannel) error {
	return s.inner.AttachOutputChannel(ch)
}

// DetachOutputChannel 分离输出通道
func (s *Sender) DetachOutputChannel() interfaces.DuplexOutputChannel {
	return s.inner.DetachOutputChannel()
}

// IsAttached 是否已附加
func (s *Sender) IsAttached() bool {
	return s.inner.IsAttached()
}

// OnConnectionOpened 订阅连接打开
func (s *Sender) OnConnectionOpened(fn func(types.ConnectionEvent)) *notify.Handle {
	return s.inner.OnConnectionOpened(fn)
}

// OnConnectionClosed 订阅连接关闭
func (s *Sender) OnConnectionClosed(fn func(types.ConnectionEvent)) *notify.Handle {
	return s.inner.OnConnectionClosed(fn)
}

func (s *Sender) peerID() string {
	if ch := s.inner.AttachedOutputChannel(); ch != nil {
		return ch.ResponseReceiverID()
	}
	return ""
}

func (s *Sender) onResponse(ev typed.ResponseEvent[types.TaggedEnvelope]) {
	if ev.Err != nil {
		logger.Warn("信封反序列化失败，消息被丢弃", "channel", ev.ChannelID, "err", ev.Err)
		return
	}
	peerID := s.peerID()
	s.registry.dispatch(origin{channelID: ev.ChannelID, peerID: peerID}, ev.Value, interfaces.SerializerFor(s.ser, peerID))
}

// Send 用标签包装 v 并发送
func Send[T any](s *Sender, tag string, v T) error {
	if !s.inner.IsAttached() {
		return types.ErrNotAttached
	}
	env, err := wrap(interfaces.SerializerFor(s.ser, s.peerID()), tag, v)
	if err != nil {
		return err
	}
	return s.inner.Send(env)
}

// ============================================================================
//                              Receiver - 输入端
// ============================================================================

// Receiver 多类型输入端，入站请求按标签分发
type Receiver struct {
	inner    *envelopeReceiver
	registry *Registry
	ser      interfaces.Serializer
}

// NewReceiver 创建多类型输入端
func NewReceiver(opts ...typed.Option) *Receiver {
	cfg := typed.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Receiver{
		inner:    typed.NewReceiver[types.TaggedEnvelope, types.TaggedEnvelope](opts...),
		registry: NewRegistry(),
		ser:      cfg.Serializer,
	}
	r.inner.OnRequest(r.onRequest)
	return r
}

// Registry 返回请求处理器表
func (r *Receiver) Registry() *Registry {
	return r.registry
}

// AttachInputChannel 附加输入通道
func (r *Receiver) AttachInputChannel(ch interfaces.DuplexInputChannel) error {
	return r.inner.AttachInputChannel(ch)
}

// DetachInputChannel 分离输入通道
func (r *Receiver) DetachInputChannel() interfaces.DuplexInputChannel {
	return r.inner.DetachInputChannel()
}

// IsAttached 是否已附加
func (r *Receiver) IsAttached() bool {
	return r.inner.IsAttached()
}

// ConnectedPeers 返回已连接对端
func (r *Receiver) ConnectedPeers() []string {
	return r.inner.ConnectedPeers()
}

// OnPeerConnected 订阅对端连接
func (r *Receiver) OnPeerConnected(fn func(types.ConnectionEvent)) *notify.Handle {
	return r.inner.OnPeerConnected(fn)
}

// OnPeerDisconnected 订阅对端断开
func (r *Receiver) OnPeerDisconnected(fn func(types.ConnectionEvent)) *notify.Handle {
	return r.inner.OnPeerDisconnected(fn)
}

func (r *Receiver) onRequest(ev typed.RequestEvent[types.TaggedEnvelope]) {
	if ev.Err != nil {
		logger.Warn("信封反序列化失败，消息被丢弃",
			"channel", ev.ChannelID,
			"peer", log.TruncateID(ev.PeerID, 8),
			"err", ev.Err)
		return
	}
	r.registry.dispatch(origin{channelID: ev.ChannelID, peerID: ev.PeerID}, ev.Value, interfaces.SerializerFor(r.ser, ev.PeerID))
}

// SendResponse 用标签包装 v 并发送给指定对端
func SendResponse[T any](r *Receiver, peerID, tag string, v T) error {
	if !r.inner.IsAttached() {
		return types.ErrNotAttached
	}
	env, err := wrap(interfaces.SerializerFor(r.ser, peerID), tag, v)
	if err != nil {
		return err
	}
	return r.inner.SendResponse(peerID, env)
}
