package reliable

import (
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

type envelopeSender = typed.Sender[types.ReliableEnvelope, types.ReliableEnvelope]

// Sender 可靠输出端
//
// 发出的请求与收到的响应都带确认：本端请求得到 Delivered/NotDelivered 通知，
// 收到的响应会立即回送确认。
type Sender[Req, Resp any] struct {
	*deliveries

	inner     *envelopeSender
	responses *notify.List[typed.ResponseEvent[Resp]]
}

// NewSender 创建可靠输出端
func NewSender[Req, Resp any](opts ...Option) *Sender[Req, Resp] {
	cfg := newConfig(opts)
	s := &Sender[Req, Resp]{
		deliveries: newDeliveries(cfg),
		inner:      typed.NewSender[types.ReliableEnvelope, types.ReliableEnvelope](cfg.Typed...),
		responses:  notify.NewList[typed.ResponseEvent[Resp]]("reliable.response"),
	}
	s.inner.OnResponse(s.onEnvelope)
	return s
}

// OnResponse 订阅响应
func (s *Sender[Req, Resp]) OnResponse(fn func(typed.ResponseEvent[Resp])) *notify.Handle {
	return s.responses.Subscribe(fn)
}

// OnConnectionOpened 订阅连接打开
func (s *Sender[Req, Resp]) OnConnectionOpened(fn func(types.ConnectionEvent)) *notify.Handle {
	return s.inner.OnConnectionOpened(fn)
}

// OnConnectionClosed 订阅连接关闭
func (s *Sender[Req, Resp]) OnConnectionClosed(fn func(types.ConnectionEvent)) *notify.Handle {
	return s.inner.OnConnectionClosed(fn)
}

// AttachOutputChannel 附加输出通道并打开连接
func (s *Sender[Req, Resp]) AttachOutputChannel(ch interfaces.DuplexOutputChannel) error {
	return s.inner.AttachOutputChannel(ch)
}

// DetachOutputChannel 分离输出通道
//
// 仍在等待确认的消息继续计时，超时后通知 NotDelivered。
func (s *Sender[Req, Resp]) DetachOutputChannel() interfaces.DuplexOutputChannel {
	return s.inner.DetachOutputChannel()
}

// IsAttached 是否已附加
func (s *Sender[Req, Resp]) IsAttached() bool {
	return s.inner.IsAttached()
}

// AttachedOutputChannel 返回已附加的通道
func (s *Sender[Req, Resp]) AttachedOutputChannel() interfaces.DuplexOutputChannel {
	return s.inner.AttachedOutputChannel()
}

// Send 发送请求，返回消息 ID
//
// 发送失败时不会产生投递通知。
func (s *Sender[Req, Resp]) Send(req Req) (string, error) {
	ch := s.inner.AttachedOutputChannel()
	if ch == nil {
		return "", types.ErrNotAttached
	}

	peerID := ch.ResponseReceiverID()
	payload, err := interfaces.SerializerFor(s.ser, peerID).Serialize(req)
	if err != nil {
		return "", err
	}
	return s.send(peerID, payload, s.inner.Send)
}

func (s *Sender[Req, Resp]) onEnvelope(ev typed.ResponseEvent[types.ReliableEnvelope]) {
	if ev.Err != nil {
		logger.Warn("可靠信封反序列化失败，消息被丢弃", "channel", ev.ChannelID, "err", ev.Err)
		return
	}

	env := ev.Value
	if env.IsAcknowledge() {
		s.acknowledged(env.MessageID)
		return
	}

	// 先确认，与是否有订阅者无关
	if err := s.inner.Send(ackFor(env)); err != nil {
		logger.Error("发送确认失败", "id", log.TruncateID(env.MessageID, 8), "err", err)
	}

	out := typed.ResponseEvent[Resp]{ChannelID: ev.ChannelID}
	peerID := ""
	if ch := s.inner.AttachedOutputChannel(); ch != nil {
		peerID = ch.ResponseReceiverID()
	}
	if err := interfaces.SerializerFor(s.ser, peerID).Deserialize(env.Payload, &out.Value); err != nil {
		var zero Resp
		out.Value = zero
		out.Err = err
	}
	s.responses.EmitOrWarn(out, "channel", ev.ChannelID, "id", log.TruncateID(env.MessageID, 8))
}
