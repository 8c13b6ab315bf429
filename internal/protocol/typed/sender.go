package typed

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

var logger = log.Logger("protocol/typed")

const component = "typed"

// Sender 类型化输出端
type Sender[Req, Resp any] struct {
	cfg *Config

	mu      sync.RWMutex
	channel interfaces.DuplexOutputChannel

	responses *notify.List[ResponseEvent[Resp]]
	opened    *notify.List[types.ConnectionEvent]
	closed    *notify.List[types.ConnectionEvent]
}

// NewSender 创建类型化输出端
func NewSender[Req, Resp any](opts ...Option) *Sender[Req, Resp] {
	return &Sender[Req, Resp]{
		cfg:       newConfig(opts),
		responses: notify.NewList[ResponseEvent[Resp]]("typed.response"),
		opened:    notify.NewList[types.ConnectionEvent]("typed.connection_opened"),
		closed:    notify.NewList[types.ConnectionEvent]("typed.connection_closed"),
	}
}

// ============================================================================
//                              订阅
// ============================================================================

// OnResponse 订阅响应
func (s *Sender[Req, Resp]) OnResponse(fn func(ResponseEvent[Resp])) *notify.Handle {
	return s.responses.Subscribe(fn)
}

// OnConnectionOpened 订阅连接打开
func (s *Sender[Req, Resp]) OnConnectionOpened(fn func(types.ConnectionEvent)) *notify.Handle {
	return s.opened.Subscribe(fn)
}

// OnConnectionClosed 订阅连接关闭
func (s *Sender[Req, Resp]) OnConnectionClosed(fn func(types.ConnectionEvent)) *notify.Handle {
	return s.closed.Subscribe(fn)
}

// ============================================================================
//                              附加/分离
// ============================================================================

// AttachOutputChannel 附加输出通道并打开连接
func (s *Sender[Req, Resp]) AttachOutputChannel(ch interfaces.DuplexOutputChannel) error {
	if ch == nil {
		return fmt.Errorf("%w: nil output channel", types.ErrInvalidArgument)
	}

	s.mu.Lock()
	if s.channel != nil {
		s.mu.Unlock()
		return types.ErrAlreadyAttached
	}
	s.channel = ch
	s.mu.Unlock()

	ch.SetHandler(&outputHandler[Req, Resp]{s: s, ch: ch})
	if ch.IsConnected() {
		return nil
	}
	if err := ch.OpenConnection(); err != nil {
		s.mu.Lock()
		if s.channel == ch {
			s.channel = nil
		}
		s.mu.Unlock()
		ch.SetHandler(nil)
		return fmt.Errorf("typed: open connection: %w", err)
	}

	logger.Debug("已附加输出通道", "channel", ch.ChannelID(), "receiver", log.TruncateID(ch.ResponseReceiverID(), 8))
	return nil
}

// DetachOutputChannel 关闭连接并分离输出通道
//
// 返回被分离的通道，未附加时返回 nil。
func (s *Sender[Req, Resp]) DetachOutputChannel() interfaces.DuplexOutputChannel {
	s.mu.Lock()
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()

	if ch == nil {
		return nil
	}
	ch.SetHandler(nil)
	ch.CloseConnection()
	logger.Debug("已分离输出通道", "channel", ch.ChannelID())
	return ch
}

// IsAttached 是否已附加
func (s *Sender[Req, Resp]) IsAttached() bool {
	return s.AttachedOutputChannel() != nil
}

// AttachedOutputChannel 返回已附加的通道
func (s *Sender[Req, Resp]) AttachedOutputChannel() interfaces.DuplexOutputChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// ============================================================================
//                              发送
// ============================================================================

// Send 序列化并发送请求
func (s *Sender[Req, Resp]) Send(req Req) error {
	ch := s.AttachedOutputChannel()
	if ch == nil {
		return types.ErrNotAttached
	}

	ser := interfaces.SerializerFor(s.cfg.Serializer, ch.ResponseReceiverID())
	data, err := ser.Serialize(req)
	if err != nil {
		s.cfg.Reporter.SendFailed(component)
		return err
	}

	if err := ch.SendMessage(data); err != nil {
		s.cfg.Reporter.SendFailed(component)
		return fmt.Errorf("typed: send message: %w", err)
	}
	s.cfg.Reporter.MessageSent(component)
	return nil
}

func (s *Sender[Req, Resp]) isCurrent(ch interfaces.DuplexOutputChannel) bool {
	return s.AttachedOutputChannel() == ch
}

func (s *Sender[Req, Resp]) onResponse(ch interfaces.DuplexOutputChannel, data []byte) {
	s.cfg.Reporter.MessageReceived(component)

	ev := ResponseEvent[Resp]{ChannelID: ch.ChannelID()}
	ser := interfaces.SerializerFor(s.cfg.Serializer, ch.ResponseReceiverID())
	if err := ser.Deserialize(data, &ev.Value); err != nil {
		var zero Resp
		ev.Value = zero
		ev.Err = err
		logger.Debug("响应反序列化失败", "channel", ch.ChannelID(), "err", err)
	}
	s.responses.EmitOrWarn(ev, "channel", ch.ChannelID())
}

// outputHandler 将通道回调转发给 Sender
type outputHandler[Req, Resp any] struct {
	s  *Sender[Req, Resp]
	ch interfaces.DuplexOutputChannel
}

func (h *outputHandler[Req, Resp]) OnConnectionOpened() {
	if !h.s.isCurrent(h.ch) {
		return
	}
	h.s.opened.Emit(types.NewConnectionEvent(h.ch.ChannelID(), h.ch.ResponseReceiverID()))
}

func (h *outputHandler[Req, Resp]) OnConnectionClosed() {
	h.s.closed.Emit(types.NewConnectionEvent(h.ch.ChannelID(), h.ch.ResponseReceiverID()))
}

func (h *outputHandler[Req, Resp]) OnResponseReceived(data []byte) {
	if !h.s.isCurrent(h.ch) {
		return
	}
	h.s.onResponse(h.ch, data)
}
