package duplexmsg

import (
	"github.com/dep2p/go-duplexmsg/internal/protocol/command"
	"github.com/dep2p/go-duplexmsg/internal/protocol/dispatch"
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型化通道
// ════════════════════════════════════════════════════════════════════════════

// NewSender 创建类型化发送端
func NewSender[Req, Resp any](s *Stack, opts ...typed.Option) *typed.Sender[Req, Resp] {
	return typed.NewSender[Req, Resp](s.typed.Options(opts...)...)
}

// NewReceiver 创建类型化接收端
func NewReceiver[Req, Resp any](s *Stack, opts ...typed.Option) *typed.Receiver[Req, Resp] {
	return typed.NewReceiver[Req, Resp](s.typed.Options(opts...)...)
}

// NewSyncSender 创建同步发送端
func NewSyncSender[Req, Resp any](s *Stack, opts ...typed.Option) *typed.SyncSender[Req, Resp] {
	return typed.NewSyncSender[Req, Resp](s.typed.Options(opts...)...)
}

// ════════════════════════════════════════════════════════════════════════════
//                              类型分发
// ════════════════════════════════════════════════════════════════════════════

// NewDispatchSender 创建按类型标签分发响应的发送端
func (s *Stack) NewDispatchSender() *dispatch.Sender {
	return dispatch.NewSender(s.typed.Options()...)
}

// NewDispatchReceiver 创建按类型标签分发请求的接收端
func (s *Stack) NewDispatchReceiver() *dispatch.Receiver {
	return dispatch.NewReceiver(s.typed.Options()...)
}

// ════════════════════════════════════════════════════════════════════════════
//                              可靠通道
// ════════════════════════════════════════════════════════════════════════════

// NewReliableSender 创建可靠发送端，随 Stack 关闭
func NewReliableSender[Req, Resp any](s *Stack, opts ...reliable.Option) (*reliable.Sender[Req, Resp], error) {
	snd := reliable.NewSender[Req, Resp](s.reliable.Options(opts...)...)
	if err := s.track(closeFunc(snd.Close)); err != nil {
		snd.Close()
		return nil, err
	}
	return snd, nil
}

// NewReliableReceiver 创建可靠接收端，随 Stack 关闭
func NewReliableReceiver[Req, Resp any](s *Stack, opts ...reliable.Option) (*reliable.Receiver[Req, Resp], error) {
	rcv := reliable.NewReceiver[Req, Resp](s.reliable.Options(opts...)...)
	if err := s.track(closeFunc(rcv.Close)); err != nil {
		rcv.Close()
		return nil, err
	}
	return rcv, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              命令引擎
// ════════════════════════════════════════════════════════════════════════════

// NewCommandProxy 创建命令代理端
func (s *Stack) NewCommandProxy(opts ...command.Option) *CommandProxy {
	return s.command.NewProxy(opts...)
}

// NewReliableCommandProxy 创建可靠命令代理端，随 Stack 关闭
func (s *Stack) NewReliableCommandProxy(opts ...command.Option) (*ReliableProxy, error) {
	p := s.command.NewReliableProxy(opts...)
	if err := s.track(closeFunc(p.Close)); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewCommandReceiver 创建命令执行端，随 Stack 关闭
func (s *Stack) NewCommandReceiver(process CommandProcess, opts ...command.Option) (*CommandReceiver, error) {
	if s.isClosed() {
		return nil, ErrStackClosed
	}
	r, err := s.command.NewReceiver(process, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.track(closeFunc(r.Close)); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewReliableCommandReceiver 创建可靠命令执行端，随 Stack 关闭
func (s *Stack) NewReliableCommandReceiver(process CommandProcess, opts ...command.Option) (*ReliableReceiver, error) {
	if s.isClosed() {
		return nil, ErrStackClosed
	}
	r, err := s.command.NewReliableReceiver(process, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.track(closeFunc(r.Close)); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func closeFunc(fn func()) func() error {
	return func() error {
		fn()
		return nil
	}
}
