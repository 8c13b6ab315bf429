// Package interfaces 定义 go-duplexmsg 公共接口
//
// 本文件定义双工通道接口。
package interfaces

// ============================================================================
//                              输入端（服务端，多对端）
// ============================================================================

// InputHandler 输入端回调
//
// 由通道实现从其自身的 goroutine 调用，可能并发。
type InputHandler interface {
	// OnPeerConnected 对端连接
	OnPeerConnected(peerID string)

	// OnPeerDisconnected 对端断开
	OnPeerDisconnected(peerID string)

	// OnMessageReceived 收到对端消息
	OnMessageReceived(peerID string, data []byte)
}

// DuplexInputChannel 双工输入通道
//
// 接收多个对端的消息，并可按响应接收者 ID 回复。
type DuplexInputChannel interface {
	// ChannelID 通道标识
	ChannelID() string

	// SetHandler 设置回调，传入 nil 表示解除
	SetHandler(h InputHandler)

	// SendResponse 向指定对端发送数据
	SendResponse(peerID string, data []byte) error

	// DisconnectPeer 主动断开指定对端
	DisconnectPeer(peerID string) error

	// IsListening 是否正在监听
	IsListening() bool
}

// ============================================================================
//                              输出端（客户端，单连接）
// ============================================================================

// OutputHandler 输出端回调
type OutputHandler interface {
	// OnConnectionOpened 连接已打开
	OnConnectionOpened()

	// OnConnectionClosed 连接已关闭
	OnConnectionClosed()

	// OnResponseReceived 收到服务端数据
	OnResponseReceived(data []byte)
}

// DuplexOutputChannel 双工输出通道
type DuplexOutputChannel interface {
	// ChannelID 通道标识
	ChannelID() string

	// ResponseReceiverID 本端在服务端的响应接收者 ID
	ResponseReceiverID() string

	// SetHandler 设置回调，传入 nil 表示解除
	SetHandler(h OutputHandler)

	// OpenConnection 打开连接
	OpenConnection() error

	// CloseConnection 关闭连接
	CloseConnection()

	// IsConnected 是否已连接
	IsConnected() bool

	// SendMessage 发送数据
	SendMessage(data []byte) error
}
