// Package testutil 提供测试辅助工具
package testutil

import (
	"sync"
	"time"
)

// 测试数据固件
//
// 提供测试中常用的常量值，确保测试一致性。

const (
	// DefaultChannelID 默认测试通道 ID
	DefaultChannelID = "test-channel"

	// DefaultTimeout 默认等待超时
	DefaultTimeout = 2 * time.Second
)

// InputRecorder 记录输入通道回调
type InputRecorder struct {
	mu           sync.Mutex
	Connected    []string
	Disconnected []string
	Messages     []PeerMessage

	// MessageCh 每条消息的副本
	MessageCh chan PeerMessage
}

// PeerMessage 带来源的消息
type PeerMessage struct {
	PeerID string
	Data   []byte
}

// NewInputRecorder 创建输入回调记录器
func NewInputRecorder() *InputRecorder {
	return &InputRecorder{MessageCh: make(chan PeerMessage, 1024)}
}

// OnPeerConnected 实现 interfaces.InputHandler
func (r *InputRecorder) OnPeerConnected(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Connected = append(r.Connected, peerID)
}

// OnPeerDisconnected 实现 interfaces.InputHandler
func (r *InputRecorder) OnPeerDisconnected(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Disconnected = append(r.Disconnected, peerID)
}

// OnMessageReceived 实现 interfaces.InputHandler
func (r *InputRecorder) OnMessageReceived(peerID string, data []byte) {
	msg := PeerMessage{PeerID: peerID, Data: data}
	r.mu.Lock()
	r.Messages = append(r.Messages, msg)
	r.mu.Unlock()

	select {
	case r.MessageCh <- msg:
	default:
	}
}

// Counts 返回连接、断开、消息计数
func (r *InputRecorder) Counts() (connected, disconnected, messages int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Connected), len(r.Disconnected), len(r.Messages)
}

// OutputRecorder 记录输出通道回调
type OutputRecorder struct {
	mu        sync.Mutex
	Opened    int
	Closed    int
	Responses [][]byte

	// ResponseCh 每条响应的副本
	ResponseCh chan []byte
}

// NewOutputRecorder 创建输出回调记录器
func NewOutputRecorder() *OutputRecorder {
	return &OutputRecorder{ResponseCh: make(chan []byte, 1024)}
}

// OnConnectionOpened 实现 interfaces.OutputHandler
func (r *OutputRecorder) OnConnectionOpened() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Opened++
}

// OnConnectionClosed 实现 interfaces.OutputHandler
func (r *OutputRecorder) OnConnectionClosed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed++
}

// OnResponseReceived 实现 interfaces.OutputHandler
func (r *OutputRecorder) OnResponseReceived(data []byte) {
	r.mu.Lock()
	r.Responses = append(r.Responses, data)
	r.mu.Unlock()

	select {
	case r.ResponseCh <- data:
	default:
	}
}

// Counts 返回打开、关闭、响应计数
func (r *OutputRecorder) Counts() (opened, closed, responses int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Opened, r.Closed, len(r.Responses)
}
