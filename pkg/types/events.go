// Package types 定义 go-duplexmsg 公共类型
//
// 本文件定义事件相关类型。
package types

import "time"

// ============================================================================
//                              连接事件
// ============================================================================

// ConnectionEvent 连接事件
//
// 输入端表示某个代理（对端）连接或断开；
// 输出端表示本端连接打开或关闭。
type ConnectionEvent struct {
	// ChannelID 通道标识
	ChannelID string

	// PeerID 对端响应接收者 ID
	PeerID string

	// Time 事件时间
	Time time.Time
}

// NewConnectionEvent 创建连接事件
func NewConnectionEvent(channelID, peerID string) ConnectionEvent {
	return ConnectionEvent{
		ChannelID: channelID,
		PeerID:    peerID,
		Time:      time.Now(),
	}
}

// ============================================================================
//                              投递事件
// ============================================================================

// DeliveryEvent 可靠投递通知
//
// 每个消息 ID 只会收到一次 Delivered 或 NotDelivered，二者互斥。
type DeliveryEvent struct {
	// MessageID 消息 ID
	MessageID string

	// PeerID 消息的目标对端
	PeerID string

	// Time 事件时间
	Time time.Time
}
