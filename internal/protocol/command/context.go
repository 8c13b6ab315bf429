package command

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// Context 处理例程的执行上下文
//
// 暂停与取消都是协作式信号，例程需要自行检查。
type Context struct {
	r  *Receiver
	it *item

	mu        sync.Mutex
	lastState types.CommandState
	responded bool
}

func newContext(r *Receiver, it *item) *Context {
	return &Context{r: r, it: it}
}

// CommandID 命令 ID
func (c *Context) CommandID() string {
	return c.it.key.commandID
}

// ProxyID 代理（对端）ID
func (c *Context) ProxyID() string {
	return c.it.key.proxyID
}

// DequeueInputData 取出下一个输入分片
//
// timeout <= 0 时一直等待。超时返回 ErrTimeout，命令被取消时返回 ErrCanceled。
func (c *Context) DequeueInputData(timeout time.Duration) ([]byte, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := c.r.cfg.Clock.Timer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		f, ok, err := c.it.dequeue()
		if err != nil {
			return nil, err
		}
		if ok {
			return f, nil
		}

		select {
		case <-c.it.arrived:
		case <-c.it.canceled:
		case <-deadline:
			return nil, fmt.Errorf("%w: no input within %s", types.ErrTimeout, timeout)
		}
	}
}

// NumberOfPendingFragments 等待取出的分片数
func (c *Context) NumberOfPendingFragments() int {
	return c.it.pending()
}

// CurrentRequest 最近一次控制请求
func (c *Context) CurrentRequest() types.RequestKind {
	return c.it.currentRequest()
}

// IsCanceled 是否已取消
func (c *Context) IsCanceled() bool {
	return c.CurrentRequest() == types.RequestCancel
}

// Done 命令被取消时关闭
func (c *Context) Done() <-chan struct{} {
	return c.it.canceled
}

// IsProxyConnected 代理是否仍连接
func (c *Context) IsProxyConnected() bool {
	return c.it.isConnected()
}

// WaitIfPause 暂停时阻塞，直到 Resume、Cancel 或超时
//
// timeout <= 0 时一直等待。放行返回 true，超时返回 false。
func (c *Context) WaitIfPause(timeout time.Duration) bool {
	gate := c.it.gateChan()

	select {
	case <-gate:
		return true
	default:
	}

	if timeout <= 0 {
		<-gate
		return true
	}

	timer := c.r.cfg.Clock.Timer(timeout)
	defer timer.Stop()

	select {
	case <-gate:
		return true
	case <-timer.C:
		return false
	}
}

// Respond 向代理发送响应
//
// 代理已断开时响应无法送达，静默丢弃并返回 nil。
func (c *Context) Respond(state types.CommandState, fragment []byte, sequenceID string, isLast bool) error {
	return c.respond(types.CommandResponse{
		CommandID:      c.CommandID(),
		State:          state,
		ReturnFragment: fragment,
		SequenceID:     sequenceID,
		IsLast:         isLast,
	})
}

// RespondPaused 上报已暂停
func (c *Context) RespondPaused() error {
	return c.Respond(types.StatePaused, nil, "", true)
}

// RespondCanceled 上报已取消
func (c *Context) RespondCanceled() error {
	return c.Respond(types.StateCanceled, nil, "", true)
}

// RespondFailed 上报失败
func (c *Context) RespondFailed(message string) error {
	return c.respond(types.CommandResponse{
		CommandID:    c.CommandID(),
		State:        types.StateFailed,
		IsLast:       true,
		ErrorMessage: message,
	})
}

func (c *Context) respond(resp types.CommandResponse) error {
	c.mu.Lock()
	c.lastState = resp.State
	c.responded = true
	c.mu.Unlock()

	err := c.r.respond(c.ProxyID(), resp)
	if err == nil {
		return nil
	}
	if !c.IsProxyConnected() || errors.Is(err, types.ErrNotConnected) {
		logger.Debug("代理已断开，响应被丢弃",
			"command", c.CommandID(),
			"proxy", log.TruncateID(c.ProxyID(), 8),
			"state", resp.State)
		return nil
	}
	return err
}

// finalState 例程结束时最后上报的状态
func (c *Context) finalState() (types.CommandState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastState, c.responded
}
