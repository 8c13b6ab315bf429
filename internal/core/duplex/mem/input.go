package mem

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// connection 一条进程内连接
type connection struct {
	peerID string
	in     *InputChannel
	out    *OutputChannel

	// toServer 投递给输入端回调的事件
	toServer *eventQueue
	// toClient 投递给输出端回调的事件
	toClient *eventQueue
}

// InputChannel 进程内双工输入通道
type InputChannel struct {
	network   *Network
	channelID string

	mu        sync.RWMutex
	handler   interfaces.InputHandler
	listening bool
	conns     map[string]*connection
	drop      func(peerID string, data []byte) bool
}

var _ interfaces.DuplexInputChannel = (*InputChannel)(nil)

func newInputChannel(n *Network, channelID string) *InputChannel {
	return &InputChannel{
		network:   n,
		channelID: channelID,
		listening: true,
		conns:     make(map[string]*connection),
	}
}

// ChannelID 通道标识
func (c *InputChannel) ChannelID() string {
	return c.channelID
}

// SetHandler 设置回调
func (c *InputChannel) SetHandler(h interfaces.InputHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// IsListening 是否正在监听
func (c *InputChannel) IsListening() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listening
}

// SetDropFilter 设置出站丢弃过滤器，返回 true 的数据被静默丢弃
func (c *InputChannel) SetDropFilter(drop func(peerID string, data []byte) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop = drop
}

// ConnectedPeers 返回当前连接的对端
func (c *InputChannel) ConnectedPeers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	peers := make([]string, 0, len(c.conns))
	for id := range c.conns {
		peers = append(peers, id)
	}
	return peers
}

// SendResponse 向指定对端发送数据
func (c *InputChannel) SendResponse(peerID string, data []byte) error {
	c.mu.RLock()
	conn := c.conns[peerID]
	drop := c.drop
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("%w: peer %s", types.ErrNotConnected, peerID)
	}
	if drop != nil && drop(peerID, data) {
		logger.Debug("丢弃出站数据", "peer", peerID, "size", len(data))
		return nil
	}

	buf := append([]byte(nil), data...)
	ok := conn.toClient.push(func() {
		if h := conn.out.handlerSnapshot(); h != nil {
			h.OnResponseReceived(buf)
		}
	})
	if !ok {
		return fmt.Errorf("%w: peer %s", types.ErrNotConnected, peerID)
	}
	return nil
}

// DisconnectPeer 主动断开指定对端
func (c *InputChannel) DisconnectPeer(peerID string) error {
	if !c.disconnect(peerID) {
		return fmt.Errorf("%w: peer %s", types.ErrNotConnected, peerID)
	}
	return nil
}

// StopListening 停止监听并断开所有对端
func (c *InputChannel) StopListening() {
	c.mu.Lock()
	c.listening = false
	peers := make([]string, 0, len(c.conns))
	for id := range c.conns {
		peers = append(peers, id)
	}
	c.mu.Unlock()

	for _, id := range peers {
		c.disconnect(id)
	}
	c.network.remove(c.channelID, c)
}

func (c *InputChannel) handlerSnapshot() interfaces.InputHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

// connect 由输出通道调用，建立连接
func (c *InputChannel) connect(out *OutputChannel) (*connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.listening {
		return nil, ErrNotListening
	}
	peerID := out.responseReceiverID
	if _, exists := c.conns[peerID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyConnected, peerID)
	}

	conn := &connection{
		peerID:   peerID,
		in:       c,
		out:      out,
		toServer: newEventQueue(),
		toClient: newEventQueue(),
	}
	c.conns[peerID] = conn

	conn.toServer.push(func() {
		if h := c.handlerSnapshot(); h != nil {
			h.OnPeerConnected(peerID)
		}
	})
	return conn, nil
}

// disconnect 关闭连接并通知两端
func (c *InputChannel) disconnect(peerID string) bool {
	c.mu.Lock()
	conn := c.conns[peerID]
	delete(c.conns, peerID)
	c.mu.Unlock()

	if conn == nil {
		return false
	}

	conn.toServer.close(func() {
		if h := c.handlerSnapshot(); h != nil {
			h.OnPeerDisconnected(peerID)
		}
	})
	conn.out.clearConn(conn)
	conn.toClient.close(func() {
		if h := conn.out.handlerSnapshot(); h != nil {
			h.OnConnectionClosed()
		}
	})
	return true
}
