package mem

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
)

var logger = log.Logger("core/duplex/mem")

var (
	// ErrChannelExists 同名输入通道已存在
	ErrChannelExists = errors.New("mem: input channel already exists")

	// ErrNotListening 目标输入通道不存在或未监听
	ErrNotListening = errors.New("mem: input channel not listening")

	// ErrAlreadyConnected 输出通道已连接
	ErrAlreadyConnected = errors.New("mem: output channel already connected")
)

// Network 进程内通道注册表
type Network struct {
	mu     sync.Mutex
	inputs map[string]*InputChannel
}

// NewNetwork 创建进程内网络
func NewNetwork() *Network {
	return &Network{
		inputs: make(map[string]*InputChannel),
	}
}

// NewInputChannel 创建并开始监听输入通道
func (n *Network) NewInputChannel(channelID string) (*InputChannel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.inputs[channelID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrChannelExists, channelID)
	}

	in := newInputChannel(n, channelID)
	n.inputs[channelID] = in
	return in, nil
}

// NewOutputChannel 创建输出通道
//
// responseReceiverID 为空时自动生成。
func (n *Network) NewOutputChannel(channelID, responseReceiverID string) *OutputChannel {
	if responseReceiverID == "" {
		responseReceiverID = uuid.New().String()
	}
	return &OutputChannel{
		network:            n,
		channelID:          channelID,
		responseReceiverID: responseReceiverID,
	}
}

func (n *Network) lookup(channelID string) *InputChannel {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.inputs[channelID]
}

func (n *Network) remove(channelID string, in *InputChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.inputs[channelID] == in {
		delete(n.inputs, channelID)
	}
}
