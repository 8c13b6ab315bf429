package types

// ============================================================================
//                              TaggedEnvelope
// ============================================================================

// TaggedEnvelope 类型分发信封
//
// 多种逻辑消息类型共用一个通道时，通过 TypeTag 区分并路由到对应处理器。
type TaggedEnvelope struct {
	// TypeTag 应用指定的稳定类型标签
	TypeTag string `json:"typeTag"`

	// Payload 已序列化的消息值
	Payload []byte `json:"payload"`
}

// ============================================================================
//                              ReliableEnvelope
// ============================================================================

// ReliableEnvelope 可靠投递信封
//
// Message 携带新生成的 MessageID 和数据；
// Acknowledge 复用原消息的 MessageID，不携带数据。
type ReliableEnvelope struct {
	// Kind 信封类型
	Kind EnvelopeKind `json:"kind"`

	// MessageID 消息 ID
	MessageID string `json:"messageId"`

	// Payload 应用数据（Acknowledge 时为空）
	Payload []byte `json:"payload,omitempty"`
}

// IsAcknowledge 是否为确认信封
func (e *ReliableEnvelope) IsAcknowledge() bool {
	return e.Kind == KindAcknowledge
}

// ============================================================================
//                              命令协议
// ============================================================================

// CommandRequest 代理端发往执行端的命令请求
type CommandRequest struct {
	// CommandID 命令 ID
	CommandID string `json:"commandId"`

	// Kind 控制请求
	Kind RequestKind `json:"kind"`

	// InputFragment 输入分片；nil 表示无分片，空切片是有效的空分片
	InputFragment []byte `json:"inputFragment"`
}

// CommandResponse 执行端发往代理端的命令响应
type CommandResponse struct {
	// CommandID 命令 ID
	CommandID string `json:"commandId"`

	// State 命令状态
	State CommandState `json:"state"`

	// ReturnFragment 返回数据分片；nil 表示无分片，空切片是有效的空分片
	ReturnFragment []byte `json:"returnFragment"`

	// SequenceID 分片所属的序列 ID
	SequenceID string `json:"sequenceId"`

	// IsLast 是否为该序列的最后一个分片
	IsLast bool `json:"isLast"`

	// ErrorMessage 失败时的错误信息
	ErrorMessage string `json:"errorMessage"`
}
