package command

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

var logger = log.Logger("protocol/command")

// ProcessFunc 用户处理例程
//
// 返回错误或 panic 时回送 Failed 响应；返回 ErrCanceled 时回送 Canceled 响应。
type ProcessFunc func(ctx *Context) error

// RequestEvent 执行端收到的命令请求
type RequestEvent = typed.RequestEvent[types.CommandRequest]

// server 执行端底层通道
type server interface {
	AttachInputChannel(ch interfaces.DuplexInputChannel) error
	DetachInputChannel() interfaces.DuplexInputChannel
	IsAttached() bool
	OnRequest(fn func(RequestEvent)) *notify.Handle
	OnPeerConnected(fn func(types.ConnectionEvent)) *notify.Handle
	OnPeerDisconnected(fn func(types.ConnectionEvent)) *notify.Handle
}

// LiveCommand 执行中的命令
type LiveCommand struct {
	ProxyID   string
	CommandID string
}

// Receiver 命令执行端
type Receiver struct {
	cfg     *Config
	process ProcessFunc
	server  server
	respond func(peerID string, resp types.CommandResponse) error
	exec    executor

	running atomic.Int32

	// 锁顺序: peersMu -> itemsMu
	peersMu sync.RWMutex
	peers   map[string]struct{}

	itemsMu sync.Mutex
	items   map[itemKey]*item
}

// NewReceiver 创建命令执行端
func NewReceiver(process ProcessFunc, opts ...Option) (*Receiver, error) {
	if process == nil {
		return nil, ErrNilProcess
	}
	cfg := newConfig(opts)

	inner := typed.NewReceiver[types.CommandRequest, types.CommandResponse](cfg.Typed...)
	return newReceiver(cfg, process, inner, inner.SendResponse), nil
}

func newReceiver(cfg *Config, process ProcessFunc, srv server, respond func(string, types.CommandResponse) error) *Receiver {
	r := &Receiver{
		cfg:     cfg,
		process: process,
		server:  srv,
		respond: respond,
		peers:   make(map[string]struct{}),
		items:   make(map[itemKey]*item),
	}

	switch cfg.Strategy {
	case SingleThread:
		r.exec = newSingleThread(cfg.QueueSize, r.run, r.discard)
	default:
		r.exec = newMultiThread(cfg.MaxConcurrency, r.run, r.discard)
	}

	srv.OnRequest(r.onRequest)
	srv.OnPeerConnected(func(ev types.ConnectionEvent) { r.onPeerConnected(ev.PeerID) })
	srv.OnPeerDisconnected(func(ev types.ConnectionEvent) { r.onPeerDisconnected(ev.PeerID) })
	return r
}

// ============================================================================
//                              附加/分离
// ============================================================================

// AttachInputChannel 附加输入通道
func (r *Receiver) AttachInputChannel(ch interfaces.DuplexInputChannel) error {
	return r.server.AttachInputChannel(ch)
}

// DetachInputChannel 分离输入通道
//
// 执行中的命令继续运行，但都被视为代理已断开。
func (r *Receiver) DetachInputChannel() interfaces.DuplexInputChannel {
	ch := r.server.DetachInputChannel()

	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	r.peers = make(map[string]struct{})

	r.itemsMu.Lock()
	defer r.itemsMu.Unlock()
	for _, it := range r.items {
		it.setConnected(false)
	}
	return ch
}

// IsAttached 是否已附加
func (r *Receiver) IsAttached() bool {
	return r.server.IsAttached()
}

// Close 停止执行策略，尚未开始的命令被丢弃；执行中的例程不受影响
func (r *Receiver) Close() {
	r.exec.close()
}

// ============================================================================
//                              查询
// ============================================================================

// LiveCommands 返回存活的命令项
func (r *Receiver) LiveCommands() []LiveCommand {
	r.itemsMu.Lock()
	out := make([]LiveCommand, 0, len(r.items))
	for k := range r.items {
		out = append(out, LiveCommand{ProxyID: k.proxyID, CommandID: k.commandID})
	}
	r.itemsMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ProxyID != out[j].ProxyID {
			return out[i].ProxyID < out[j].ProxyID
		}
		return out[i].CommandID < out[j].CommandID
	})
	return out
}

// ActiveCount 正在执行例程的命令数
func (r *Receiver) ActiveCount() int {
	return int(r.running.Load())
}

// ============================================================================
//                              连接
// ============================================================================

func (r *Receiver) isPeerConnectedLocked(peerID string) bool {
	_, ok := r.peers[peerID]
	return ok
}

func (r *Receiver) onPeerConnected(peerID string) {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	r.peers[peerID] = struct{}{}

	r.itemsMu.Lock()
	defer r.itemsMu.Unlock()
	for k, it := range r.items {
		if k.proxyID == peerID {
			it.setConnected(true)
		}
	}
}

func (r *Receiver) onPeerDisconnected(peerID string) {
	r.peersMu.Lock()
	defer r.peersMu.Unlock()
	delete(r.peers, peerID)

	r.itemsMu.Lock()
	defer r.itemsMu.Unlock()

	n := 0
	for k, it := range r.items {
		if k.proxyID == peerID {
			it.setConnected(false)
			n++
		}
	}
	if n > 0 {
		logger.Debug("代理断开，命令继续执行", "proxy", log.TruncateID(peerID, 8), "commands", n)
	}
}

// ============================================================================
//                              请求处理
// ============================================================================

func (r *Receiver) onRequest(ev RequestEvent) {
	if ev.Err != nil {
		logger.Warn("命令请求反序列化失败，请求被丢弃", "proxy", log.TruncateID(ev.PeerID, 8), "err", ev.Err)
		return
	}

	req := ev.Value
	if req.CommandID == "" {
		logger.Warn("命令请求缺少命令 ID，请求被丢弃", "proxy", log.TruncateID(ev.PeerID, 8))
		return
	}
	key := itemKey{proxyID: ev.PeerID, commandID: req.CommandID}

	if req.Kind == types.RequestExecute {
		r.execute(key, req.InputFragment)
		return
	}

	it := r.lookup(key)
	if it == nil {
		logger.Debug("命令不存在，忽略控制请求", "command", req.CommandID, "kind", req.Kind)
		return
	}

	switch req.Kind {
	case types.RequestPause:
		it.pause()
	case types.RequestResume:
		it.resume()
	case types.RequestCancel:
		it.cancel()
	default:
		logger.Warn("未知的控制请求", "command", req.CommandID, "kind", int(req.Kind))
	}
}

func (r *Receiver) lookup(key itemKey) *item {
	r.itemsMu.Lock()
	defer r.itemsMu.Unlock()
	return r.items[key]
}

// execute 首个 Execute 创建命令项并提交执行，之后的只追加分片
func (r *Receiver) execute(key itemKey, fragment []byte) {
	r.peersMu.RLock()
	r.itemsMu.Lock()
	it, exists := r.items[key]
	if !exists {
		it = newItem(key, r.isPeerConnectedLocked(key.proxyID), r.cfg.Clock.Now())
		r.items[key] = it
	}
	r.itemsMu.Unlock()
	r.peersMu.RUnlock()

	it.enqueue(fragment)
	if exists {
		return
	}

	logger.Debug("提交命令", "command", key.commandID, "proxy", log.TruncateID(key.proxyID, 8), "strategy", r.cfg.Strategy)
	if err := r.exec.submit(it); err != nil {
		logger.Warn("命令提交失败", "command", key.commandID, "err", err)
		r.remove(it)
		ctx := newContext(r, it)
		if rerr := ctx.RespondFailed(err.Error()); rerr != nil {
			logger.Error("发送失败响应出错", "command", key.commandID, "err", rerr)
		}
	}
}

func (r *Receiver) remove(it *item) {
	r.itemsMu.Lock()
	defer r.itemsMu.Unlock()
	if r.items[it.key] == it {
		delete(r.items, it.key)
	}
}

// discard 丢弃未执行的命令项
func (r *Receiver) discard(it *item) {
	r.remove(it)
	logger.Debug("丢弃未执行的命令", "command", it.key.commandID)
}

// run 调用处理例程，结束后移除命令项
func (r *Receiver) run(it *item) {
	defer r.remove(it)

	r.running.Add(1)
	defer r.running.Add(-1)

	r.cfg.Reporter.CommandStarted()
	start := r.cfg.Clock.Now()

	ctx := newContext(r, it)
	err := r.invoke(ctx)

	switch {
	case err == nil:
	case errors.Is(err, types.ErrCanceled):
		if rerr := ctx.RespondCanceled(); rerr != nil {
			logger.Error("发送取消响应出错", "command", it.key.commandID, "err", rerr)
		}
	default:
		logger.Warn("命令执行失败", "command", it.key.commandID, "err", err)
		if rerr := ctx.RespondFailed(err.Error()); rerr != nil {
			logger.Error("发送失败响应出错", "command", it.key.commandID, "err", rerr)
		}
	}

	label := "Returned"
	if state, ok := ctx.finalState(); ok && state.IsTerminal() {
		label = state.String()
	}
	r.cfg.Reporter.CommandFinished(label, r.cfg.Clock.Since(start))
}

func (r *Receiver) invoke(ctx *Context) (err error) {
	defer func() {
		if rerr := types.RecoverHandlerError("command."+ctx.CommandID(), recover()); rerr != nil {
			err = rerr
		}
	}()
	return r.process(ctx)
}
