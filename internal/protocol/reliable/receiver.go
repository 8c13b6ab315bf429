package reliable

import (
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

type envelopeReceiver = typed.Receiver[types.ReliableEnvelope, types.ReliableEnvelope]

// Receiver 可靠输入端
//
// 收到的请求立即回送确认；发出的响应得到 Delivered/NotDelivered 通知。
type Receiver[Req, Resp any] struct {
	*deliveries

	inner    *envelopeReceiver
	requests *notify.List[typed.RequestEvent[Req]]
}

// NewReceiver 创建可靠输入端
func NewReceiver[Req, Resp any](opts ...Option) *Receiver[Req, Resp] {
	cfg := newConfig(opts)
	r := &Receiver[Req, Resp]{
		deliveries: newDeliveries(cfg),
		inner:      typed.NewReceiver[types.ReliableEnvelope, types.ReliableEnvelope](cfg.Typed...),
		requests:   notify.NewList[typed.RequestEvent[Req]]("reliable.request"),
	}
	r.inner.OnRequest(r.onEnvelope)
	return r
}

// OnRequest 订阅请求
func (r *Receiver[Req, Resp]) OnRequest(fn func(typed.RequestEvent[Req])) *notify.Handle {
	return r.requests.Subscribe(fn)
}

// OnPeerConnected 订阅对端连接
func (r *Receiver[Req, Resp]) OnPeerConnected(fn func(types.ConnectionEvent)) *notify.Handle {
	return r.inner.OnPeerConnected(fn)
}

// OnPeerDisconnected 订阅对端断开
func (r *Receiver[Req, Resp]) OnPeerDisconnected(fn func(types.ConnectionEvent)) *notify.Handle {
	return r.inner.OnPeerDisconnected(fn)
}

// AttachInputChannel 附加输入通道
func (r *Receiver[Req, Resp]) AttachInputChannel(ch interfaces.DuplexInputChannel) error {
	return r.inner.AttachInputChannel(ch)
}

// DetachInputChannel 分离输入通道
func (r *Receiver[Req, Resp]) DetachInputChannel() interfaces.DuplexInputChannel {
	return r.inner.DetachInputChannel()
}

// IsAttached 是否已附加
func (r *Receiver[Req, Resp]) IsAttached() bool {
	return r.inner.IsAttached()
}

// AttachedInputChannel 返回已附加的通道
func (r *Receiver[Req, Resp]) AttachedInputChannel() interfaces.DuplexInputChannel {
	return r.inner.AttachedInputChannel()
}

// ConnectedPeers 返回已连接对端
func (r *Receiver[Req, Resp]) ConnectedPeers() []string {
	return r.inner.ConnectedPeers()
}

// IsPeerConnected 对端是否已连接
func (r *Receiver[Req, Resp]) IsPeerConnected(peerID string) bool {
	return r.inner.IsPeerConnected(peerID)
}

// SendResponse 向指定对端发送响应，返回消息 ID
func (r *Receiver[Req, Resp]) SendResponse(peerID string, resp Resp) (string, error) {
	if !r.inner.IsAttached() {
		return "", types.ErrNotAttached
	}

	payload, err := interfaces.SerializerFor(r.ser, peerID).Serialize(resp)
	if err != nil {
		return "", err
	}
	return r.send(peerID, payload, func(env types.ReliableEnvelope) error {
		return r.inner.SendResponse(peerID, env)
	})
}

func (r *Receiver[Req, Resp]) onEnvelope(ev typed.RequestEvent[types.ReliableEnvelope]) {
	if ev.Err != nil {
		logger.Warn("可靠信封反序列化失败，消息被丢弃",
			"channel", ev.ChannelID,
			"peer", log.TruncateID(ev.PeerID, 8),
			"err", ev.Err)
		return
	}

	env := ev.Value
	if env.IsAcknowledge() {
		r.acknowledged(env.MessageID)
		return
	}

	// 先确认，与是否有订阅者无关
	if err := r.inner.SendResponse(ev.PeerID, ackFor(env)); err != nil {
		logger.Error("发送确认失败",
			"id", log.TruncateID(env.MessageID, 8),
			"peer", log.TruncateID(ev.PeerID, 8),
			"err", err)
	}

	out := typed.RequestEvent[Req]{ChannelID: ev.ChannelID, PeerID: ev.PeerID}
	if err := interfaces.SerializerFor(r.ser, ev.PeerID).Deserialize(env.Payload, &out.Value); err != nil {
		var zero Req
		out.Value = zero
		out.Err = err
	}
	r.requests.EmitOrWarn(out, "channel", ev.ChannelID, "peer", log.TruncateID(ev.PeerID, 8))
}
