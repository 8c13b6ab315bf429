package typed

import (
	"fmt"
	"sync"
	"time"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

type syncResult[Resp any] struct {
	value Resp
	err   error
}

// SyncSender 同步类型化输出端
//
// 在 Sender 之上提供 SendAndWait；异步 Send 与 OnResponse 仍然可用。
type SyncSender[Req, Resp any] struct {
	*Sender[Req, Resp]

	// callMu 串行化同步调用
	callMu sync.Mutex

	// slotMu 保护单槽会合点
	slotMu sync.Mutex
	slot   chan syncResult[Resp]
}

// NewSyncSender 创建同步类型化输出端
func NewSyncSender[Req, Resp any](opts ...Option) *SyncSender[Req, Resp] {
	s := &SyncSender[Req, Resp]{
		Sender: NewSender[Req, Resp](opts...),
	}
	s.Sender.OnResponse(s.onResponse)
	s.Sender.OnConnectionClosed(func(types.ConnectionEvent) {
		s.abort(types.ErrConnectionClosed)
	})
	return s
}

// SendAndWait 发送请求并阻塞等待响应
//
// timeout <= 0 时使用配置的 SyncTimeout。
// 返回响应值，或 ErrTimeout、ErrConnectionClosed、发送错误、响应反序列化错误。
func (s *SyncSender[Req, Resp]) SendAndWait(req Req, timeout time.Duration) (Resp, error) {
	var zero Resp

	s.callMu.Lock()
	defer s.callMu.Unlock()

	if timeout <= 0 {
		timeout = s.cfg.SyncTimeout
	}

	slot := make(chan syncResult[Resp], 1)
	s.slotMu.Lock()
	s.slot = slot
	s.slotMu.Unlock()
	defer s.clearSlot(slot)

	if err := s.Send(req); err != nil {
		return zero, err
	}

	timer := s.cfg.Clock.Timer(timeout)
	defer timer.Stop()

	select {
	case r := <-slot:
		return r.value, r.err
	case <-timer.C:
		return zero, fmt.Errorf("%w: no response within %s", types.ErrTimeout, timeout)
	}
}

// DetachOutputChannel 分离输出通道，正在等待的同步调用返回 ErrConnectionClosed
func (s *SyncSender[Req, Resp]) DetachOutputChannel() interfaces.DuplexOutputChannel {
	ch := s.Sender.DetachOutputChannel()
	s.abort(types.ErrConnectionClosed)
	return ch
}

func (s *SyncSender[Req, Resp]) onResponse(ev ResponseEvent[Resp]) {
	if !s.fill(syncResult[Resp]{value: ev.Value, err: ev.Err}) {
		logger.Debug("没有等待中的同步调用，响应仅交给异步订阅者", "channel", ev.ChannelID)
	}
}

func (s *SyncSender[Req, Resp]) abort(err error) {
	s.fill(syncResult[Resp]{err: err})
}

// fill 填充并清空会合点，没有等待者时返回 false
func (s *SyncSender[Req, Resp]) fill(r syncResult[Resp]) bool {
	s.slotMu.Lock()
	slot := s.slot
	s.slot = nil
	s.slotMu.Unlock()

	if slot == nil {
		return false
	}
	slot <- r
	return true
}

func (s *SyncSender[Req, Resp]) clearSlot(slot chan syncResult[Resp]) {
	s.slotMu.Lock()
	if s.slot == slot {
		s.slot = nil
	}
	s.slotMu.Unlock()
}
