package command

import (
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// ResponseEvent 代理端收到的命令响应
type ResponseEvent = typed.ResponseEvent[types.CommandResponse]

// Proxy 命令代理端
type Proxy struct {
	inner *typed.Sender[types.CommandRequest, types.CommandResponse]
}

// NewProxy 创建命令代理端
func NewProxy(opts ...Option) *Proxy {
	cfg := newConfig(opts)
	return &Proxy{
		inner: typed.NewSender[types.CommandRequest, types.CommandResponse](cfg.Typed...),
	}
}

// OnResponse 订阅命令响应
func (p *Proxy) OnResponse(fn func(ResponseEvent)) *notify.Handle {
	return p.inner.OnResponse(fn)
}

// OnConnectionOpened 订阅连接打开
func (p *Proxy) OnConnectionOpened(fn func(types.ConnectionEvent)) *notify.Handle {
	return p.inner.OnConnectionOpened(fn)
}

// OnConnectionClosed 订阅连接关闭
func (p *Proxy) OnConnectionClosed(fn func(types.ConnectionEvent)) *notify.Handle {
	return p.inner.OnConnectionClosed(fn)
}

// AttachOutputChannel 附加输出通道并打开连接
func (p *Proxy) AttachOutputChannel(ch interfaces.DuplexOutputChannel) error {
	return p.inner.AttachOutputChannel(ch)
}

// DetachOutputChannel 分离输出通道
func (p *Proxy) DetachOutputChannel() interfaces.DuplexOutputChannel {
	return p.inner.DetachOutputChannel()
}

// IsAttached 是否已附加
func (p *Proxy) IsAttached() bool {
	return p.inner.IsAttached()
}

// Execute 执行命令；同一命令 ID 的后续 Execute 只追加输入分片
func (p *Proxy) Execute(commandID string, input []byte) error {
	return p.send(commandID, types.RequestExecute, input)
}

// ExecuteNew 以新生成的命令 ID 执行命令
func (p *Proxy) ExecuteNew(input []byte) (string, error) {
	id := types.NewCommandID()
	if err := p.Execute(id, input); err != nil {
		return "", err
	}
	return id, nil
}

// SendInput 向执行中的命令追加输入分片
func (p *Proxy) SendInput(commandID string, fragment []byte) error {
	return p.Execute(commandID, fragment)
}

// Pause 暂停命令
func (p *Proxy) Pause(commandID string) error {
	return p.send(commandID, types.RequestPause, nil)
}

// Resume 恢复命令
func (p *Proxy) Resume(commandID string) error {
	return p.send(commandID, types.RequestResume, nil)
}

// Cancel 取消命令
func (p *Proxy) Cancel(commandID string) error {
	return p.send(commandID, types.RequestCancel, nil)
}

func (p *Proxy) send(commandID string, kind types.RequestKind, input []byte) error {
	req, err := newRequest(commandID, kind, input)
	if err != nil {
		return err
	}
	return p.inner.Send(req)
}

func newRequest(commandID string, kind types.RequestKind, input []byte) (types.CommandRequest, error) {
	if commandID == "" {
		return types.CommandRequest{}, ErrEmptyCommandID
	}
	return types.CommandRequest{CommandID: commandID, Kind: kind, InputFragment: input}, nil
}
