package typed

// ResponseEvent 输出端收到的响应
//
// 反序列化失败时 Err 非 nil，Value 为零值。
type ResponseEvent[Resp any] struct {
	// ChannelID 通道标识
	ChannelID string

	// Value 响应值
	Value Resp

	// Err 反序列化错误
	Err error
}

// RequestEvent 输入端收到的请求
//
// 反序列化失败时 Err 非 nil，Value 为零值。
type RequestEvent[Req any] struct {
	// ChannelID 通道标识
	ChannelID string

	// PeerID 发送方响应接收者 ID
	PeerID string

	// Value 请求值
	Value Req

	// Err 反序列化错误
	Err error
}
