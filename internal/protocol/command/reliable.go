package command

import (
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// ============================================================================
//                              ReliableProxy - 可靠代理端
// ============================================================================

// ReliableProxy 可靠命令代理端
//
// 每个控制请求都有独立的 Delivered/NotDelivered 通知，与命令状态无关。
// 控制方法返回消息 ID。
type ReliableProxy struct {
	inner *reliable.Sender[types.CommandRequest, types.CommandResponse]
}

// NewReliableProxy 创建可靠命令代理端
func NewReliableProxy(opts ...Option) *ReliableProxy {
	cfg := newConfig(opts)
	return &ReliableProxy{
		inner: reliable.NewSender[types.CommandRequest, types.CommandResponse](cfg.reliableOptions()...),
	}
}

// OnResponse 订阅命令响应
func (p *ReliableProxy) OnResponse(fn func(ResponseEvent)) *notify.Handle {
	return p.inner.OnResponse(fn)
}

// OnDelivered 订阅请求投递成功
func (p *ReliableProxy) OnDelivered(fn func(types.DeliveryEvent)) *notify.Handle {
	return p.inner.OnDelivered(fn)
}

// OnNotDelivered 订阅请求投递超时
func (p *ReliableProxy) OnNotDelivered(fn func(types.DeliveryEvent)) *notify.Handle {
	return p.inner.OnNotDelivered(fn)
}

// OnConnectionOpened 订阅连接打开
func (p *ReliableProxy) OnConnectionOpened(fn func(types.ConnectionEvent)) *notify.Handle {
	return p.inner.OnConnectionOpened(fn)
}

// OnConnectionClosed 订阅连接关闭
func (p *ReliableProxy) OnConnectionClosed(fn func(types.ConnectionEvent)) *notify.Handle {
	return p.inner.OnConnectionClosed(fn)
}

// AttachOutputChannel 附加输出通道并打开连接
func (p *ReliableProxy) AttachOutputChannel(ch interfaces.DuplexOutputChannel) error {
	return p.inner.AttachOutputChannel(ch)
}

// DetachOutputChannel 分离输出通道
func (p *ReliableProxy) DetachOutputChannel() interfaces.DuplexOutputChannel {
	return p.inner.DetachOutputChannel()
}

// IsAttached 是否已附加
func (p *ReliableProxy) IsAttached() bool {
	return p.inner.IsAttached()
}

// PendingCount 等待确认的请求数
func (p *ReliableProxy) PendingCount() int {
	return p.inner.PendingCount()
}

// Close 停止确认跟踪，等待中的请求通知 NotDelivered
func (p *ReliableProxy) Close() {
	p.inner.Close()
}

// Execute 执行命令，返回消息 ID
func (p *ReliableProxy) Execute(commandID string, input []byte) (string, error) {
	return p.send(commandID, types.RequestExecute, input)
}

// ExecuteNew 以新生成的命令 ID 执行命令，返回命令 ID 与消息 ID
func (p *ReliableProxy) ExecuteNew(input []byte) (commandID, messageID string, err error) {
	commandID = types.NewCommandID()
	messageID, err = p.Execute(commandID, input)
	if err != nil {
		return "", "", err
	}
	return commandID, messageID, nil
}

// SendInput 向执行中的命令追加输入分片
func (p *ReliableProxy) SendInput(commandID string, fragment []byte) (string, error) {
	return p.Execute(commandID, fragment)
}

// Pause 暂停命令
func (p *ReliableProxy) Pause(commandID string) (string, error) {
	return p.send(commandID, types.RequestPause, nil)
}

// Resume 恢复命令
func (p *ReliableProxy) Resume(commandID string) (string, error) {
	return p.send(commandID, types.RequestResume, nil)
}

// Cancel 取消命令
func (p *ReliableProxy) Cancel(commandID string) (string, error) {
	return p.send(commandID, types.RequestCancel, nil)
}

func (p *ReliableProxy) send(commandID string, kind types.RequestKind, input []byte) (string, error) {
	req, err := newRequest(commandID, kind, input)
	if err != nil {
		return "", err
	}
	return p.inner.Send(req)
}

// ============================================================================
//                              ReliableReceiver - 可靠执行端
// ============================================================================

// ReliableReceiver 可靠命令执行端
//
// 每个响应都有独立的 Delivered/NotDelivered 通知。
type ReliableReceiver struct {
	*Receiver

	inner *reliable.Receiver[types.CommandRequest, types.CommandResponse]
}

// NewReliableReceiver 创建可靠命令执行端
func NewReliableReceiver(process ProcessFunc, opts ...Option) (*ReliableReceiver, error) {
	if process == nil {
		return nil, ErrNilProcess
	}
	cfg := newConfig(opts)

	inner := reliable.NewReceiver[types.CommandRequest, types.CommandResponse](cfg.reliableOptions()...)
	respond := func(peerID string, resp types.CommandResponse) error {
		_, err := inner.SendResponse(peerID, resp)
		return err
	}
	return &ReliableReceiver{
		Receiver: newReceiver(cfg, process, inner, respond),
		inner:    inner,
	}, nil
}

// OnDelivered 订阅响应投递成功
func (r *ReliableReceiver) OnDelivered(fn func(types.DeliveryEvent)) *notify.Handle {
	return r.inner.OnDelivered(fn)
}

// OnNotDelivered 订阅响应投递超时
func (r *ReliableReceiver) OnNotDelivered(fn func(types.DeliveryEvent)) *notify.Handle {
	return r.inner.OnNotDelivered(fn)
}

// PendingCount 等待确认的响应数
func (r *ReliableReceiver) PendingCount() int {
	return r.inner.PendingCount()
}

// Close 停止执行策略与确认跟踪
func (r *ReliableReceiver) Close() {
	r.Receiver.Close()
	r.inner.Close()
}
