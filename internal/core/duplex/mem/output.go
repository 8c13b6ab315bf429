package mem

import (
	"sync"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// OutputChannel 进程内双工输出通道
type OutputChannel struct {
	network            *Network
	channelID          string
	responseReceiverID string

	mu      sync.RWMutex
	handler interfaces.OutputHandler
	conn    *connection
	drop    func(data []byte) bool
}

var _ interfaces.DuplexOutputChannel = (*OutputChannel)(nil)

// ChannelID 通道标识
func (c *OutputChannel) ChannelID() string {
	return c.channelID
}

// ResponseReceiverID 本端响应接收者 ID
func (c *OutputChannel) ResponseReceiverID() string {
	return c.responseReceiverID
}

// SetHandler 设置回调
func (c *OutputChannel) SetHandler(h interfaces.OutputHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// SetDropFilter 设置出站丢弃过滤器，返回 true 的数据被静默丢弃
func (c *OutputChannel) SetDropFilter(drop func(data []byte) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop = drop
}

// OpenConnection 连接到同名输入通道
func (c *OutputChannel) OpenConnection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return ErrAlreadyConnected
	}

	in := c.network.lookup(c.channelID)
	if in == nil {
		return ErrNotListening
	}

	conn, err := in.connect(c)
	if err != nil {
		return err
	}
	c.conn = conn

	conn.toClient.push(func() {
		if h := c.handlerSnapshot(); h != nil {
			h.OnConnectionOpened()
		}
	})
	return nil
}

// CloseConnection 关闭连接
func (c *OutputChannel) CloseConnection() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn != nil {
		conn.in.disconnect(conn.peerID)
	}
}

// IsConnected 是否已连接
func (c *OutputChannel) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// SendMessage 发送数据
func (c *OutputChannel) SendMessage(data []byte) error {
	c.mu.RLock()
	conn := c.conn
	drop := c.drop
	c.mu.RUnlock()

	if conn == nil {
		return types.ErrNotConnected
	}
	if drop != nil && drop(data) {
		logger.Debug("丢弃出站数据", "peer", c.responseReceiverID, "size", len(data))
		return nil
	}

	buf := append([]byte(nil), data...)
	ok := conn.toServer.push(func() {
		if h := conn.in.handlerSnapshot(); h != nil {
			h.OnMessageReceived(conn.peerID, buf)
		}
	})
	if !ok {
		return types.ErrNotConnected
	}
	return nil
}

func (c *OutputChannel) handlerSnapshot() interfaces.OutputHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

func (c *OutputChannel) clearConn(conn *connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
	}
}
