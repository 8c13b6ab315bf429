package typed

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// Receiver 类型化输入端
type Receiver[Req, Resp any] struct {
	cfg *Config

	mu      sync.RWMutex
	channel interfaces.DuplexInputChannel

	peersMu sync.RWMutex
	peers   map[string]struct{}

	requests     *notify.List[RequestEvent[Req]]
	connected    *notify.List[types.ConnectionEvent]
	disconnected *notify.List[types.ConnectionEvent]
}

// NewReceiver 创建类型化输入端
func NewReceiver[Req, Resp any](opts ...Option) *Receiver[Req, Resp] {
	return &Receiver[Req, Resp]{
		cfg:          newConfig(opts),
		peers:        make(map[string]struct{}),
		requests:     notify.NewList[RequestEvent[Req]]("typed.request"),
		connected:    notify.NewList[types.ConnectionEvent]("typed.peer_connected"),
		disconnected: notify.NewList[types.ConnectionEvent]("typed.peer_disconnected"),
	}
}

// ============================================================================
//                              订阅
// ============================================================================

// OnRequest 订阅请求
func (r *Receiver[Req, Resp]) OnRequest(fn func(RequestEvent[Req])) *notify.Handle {
	return r.requests.Subscribe(fn)
}

// OnPeerConnected 订阅对端连接
func (r *Receiver[Req, Resp]) OnPeerConnected(fn func(types.ConnectionEvent)) *notify.Handle {
	return r.connected.Subscribe(fn)
}

// OnPeerDisconnected 订阅对端断开
func (r *Receiver[Req, Resp]) OnPeerDisconnected(fn func(types.ConnectionEvent)) *notify.Handle {
	return r.disconnected.Subscribe(fn)
}

// ============================================================================
//                              附加/分离
// ============================================================================

// AttachInputChannel 附加输入通道
func (r *Receiver[Req, Resp]) AttachInputChannel(ch interfaces.DuplexInputChannel) error {
	if ch == nil {
		return fmt.Errorf("%w: nil input channel", types.ErrInvalidArgument)
	}

	r.mu.Lock()
	if r.channel != nil {
		r.mu.Unlock()
		return types.ErrAlreadyAttached
	}
	r.channel = ch
	r.mu.Unlock()

	ch.SetHandler(&inputHandler[Req, Resp]{r: r, ch: ch})
	logger.Debug("已附加输入通道", "channel", ch.ChannelID())
	return nil
}

// DetachInputChannel 分离输入通道
//
// 已连接对端集合被清空；返回被分离的通道，未附加时返回 nil。
func (r *Receiver[Req, Resp]) DetachInputChannel() interfaces.DuplexInputChannel {
	r.mu.Lock()
	ch := r.channel
	r.channel = nil
	r.mu.Unlock()

	if ch == nil {
		return nil
	}
	ch.SetHandler(nil)

	r.peersMu.Lock()
	r.peers = make(map[string]struct{})
	r.peersMu.Unlock()

	logger.Debug("已分离输入通道", "channel", ch.ChannelID())
	return ch
}

// IsAttached 是否已附加
func (r *Receiver[Req, Resp]) IsAttached() bool {
	return r.AttachedInputChannel() != nil
}

// AttachedInputChannel 返回已附加的通道
func (r *Receiver[Req, Resp]) AttachedInputChannel() interfaces.DuplexInputChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// ConnectedPeers 返回已连接对端（有序）
func (r *Receiver[Req, Resp]) ConnectedPeers() []string {
	r.peersMu.RLock()
	peers := make([]string, 0, len(r.peers))
	for id := range r.peers {
		peers = append(peers, id)
	}
	r.peersMu.RUnlock()

	sort.Strings(peers)
	return peers
}

// IsPeerConnected 对端是否已连接
func (r *Receiver[Req, Resp]) IsPeerConnected(peerID string) bool {
	r.peersMu.RLock()
	defer r.peersMu.RUnlock()
	_, ok := r.peers[peerID]
	return ok
}

// ============================================================================
//                              发送
// ============================================================================

// SendResponse 向指定对端发送响应
func (r *Receiver[Req, Resp]) SendResponse(peerID string, resp Resp) error {
	ch := r.AttachedInputChannel()
	if ch == nil {
		return types.ErrNotAttached
	}

	data, err := interfaces.SerializerFor(r.cfg.Serializer, peerID).Serialize(resp)
	if err != nil {
		r.cfg.Reporter.SendFailed(component)
		return err
	}

	if err := ch.SendResponse(peerID, data); err != nil {
		r.cfg.Reporter.SendFailed(component)
		return fmt.Errorf("typed: send response to %s: %w", log.TruncateID(peerID, 8), err)
	}
	r.cfg.Reporter.MessageSent(component)
	return nil
}

// Broadcast 向所有已连接对端发送响应
//
// 逐个发送，失败的对端不影响其余对端，错误合并返回。
func (r *Receiver[Req, Resp]) Broadcast(resp Resp) error {
	if !r.IsAttached() {
		return types.ErrNotAttached
	}

	var err error
	for _, peerID := range r.ConnectedPeers() {
		err = multierr.Append(err, r.SendResponse(peerID, resp))
	}
	return err
}

// ============================================================================
//                              入站
// ============================================================================

func (r *Receiver[Req, Resp]) isCurrent(ch interfaces.DuplexInputChannel) bool {
	return r.AttachedInputChannel() == ch
}

func (r *Receiver[Req, Resp]) onPeerConnected(ch interfaces.DuplexInputChannel, peerID string) {
	r.peersMu.Lock()
	r.peers[peerID] = struct{}{}
	r.peersMu.Unlock()

	logger.Debug("对端已连接", "channel", ch.ChannelID(), "peer", log.TruncateID(peerID, 8))
	r.connected.Emit(types.NewConnectionEvent(ch.ChannelID(), peerID))
}

func (r *Receiver[Req, Resp]) onPeerDisconnected(ch interfaces.DuplexInputChannel, peerID string) {
	r.peersMu.Lock()
	delete(r.peers, peerID)
	r.peersMu.Unlock()

	logger.Debug("对端已断开", "channel", ch.ChannelID(), "peer", log.TruncateID(peerID, 8))
	r.disconnected.Emit(types.NewConnectionEvent(ch.ChannelID(), peerID))
}

func (r *Receiver[Req, Resp]) onRequest(ch interfaces.DuplexInputChannel, peerID string, data []byte) {
	r.cfg.Reporter.MessageReceived(component)

	ev := RequestEvent[Req]{ChannelID: ch.ChannelID(), PeerID: peerID}
	if err := interfaces.SerializerFor(r.cfg.Serializer, peerID).Deserialize(data, &ev.Value); err != nil {
		var zero Req
		ev.Value = zero
		ev.Err = err
		logger.Debug("请求反序列化失败", "peer", log.TruncateID(peerID, 8), "err", err)
	}
	r.requests.EmitOrWarn(ev, "channel", ch.ChannelID(), "peer", log.TruncateID(peerID, 8))
}

// inputHandler 将通道回调转发给 Receiver
type inputHandler[Req, Resp any] struct {
	r  *Receiver[Req, Resp]
	ch interfaces.DuplexInputChannel
}

func (h *inputHandler[Req, Resp]) OnPeerConnected(peerID string) {
	if h.r.isCurrent(h.ch) {
		h.r.onPeerConnected(h.ch, peerID)
	}
}

func (h *inputHandler[Req, Resp]) OnPeerDisconnected(peerID string) {
	if h.r.isCurrent(h.ch) {
		h.r.onPeerDisconnected(h.ch, peerID)
	}
}

func (h *inputHandler[Req, Resp]) OnMessageReceived(peerID string, data []byte) {
	if h.r.isCurrent(h.ch) {
		h.r.onRequest(h.ch, peerID, data)
	}
}
