package types

// ============================================================================
//                              EnvelopeKind - 可靠信封类型
// ============================================================================

// EnvelopeKind 可靠信封类型
type EnvelopeKind int

const (
	// KindMessage 携带应用数据的消息
	KindMessage EnvelopeKind = iota
	// KindAcknowledge 对消息的确认，不携带数据
	KindAcknowledge
)

// String 返回信封类型的字符串表示
func (k EnvelopeKind) String() string {
	switch k {
	case KindMessage:
		return "Message"
	case KindAcknowledge:
		return "Acknowledge"
	default:
		return "Unknown"
	}
}

// ============================================================================
//                              RequestKind - 命令控制请求
// ============================================================================

// RequestKind 代理端发出的命令控制请求
type RequestKind int

const (
	// RequestExecute 执行命令（默认），后续同 ID 的 Execute 只追加输入分片
	RequestExecute RequestKind = iota
	// RequestPause 暂停
	RequestPause
	// RequestResume 恢复
	RequestResume
	// RequestCancel 取消
	RequestCancel
)

// String 返回控制请求的字符串表示
func (k RequestKind) String() string {
	switch k {
	case RequestExecute:
		return "Execute"
	case RequestPause:
		return "Pause"
	case RequestResume:
		return "Resume"
	case RequestCancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// ============================================================================
//                              CommandState - 命令状态
// ============================================================================

// CommandState 执行端上报给代理端的命令状态
type CommandState int

const (
	// StateNotStarted 尚未开始
	StateNotStarted CommandState = iota
	// StateInProgress 执行中
	StateInProgress
	// StatePaused 已暂停
	StatePaused
	// StateCompleted 已完成
	StateCompleted
	// StateCanceled 已取消
	StateCanceled
	// StateFailed 执行失败
	StateFailed
)

// String 返回命令状态的字符串表示
func (s CommandState) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateInProgress:
		return "InProgress"
	case StatePaused:
		return "Paused"
	case StateCompleted:
		return "Completed"
	case StateCanceled:
		return "Canceled"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal 是否为终态（Completed/Canceled/Failed）
func (s CommandState) IsTerminal() bool {
	return s == StateCompleted || s == StateCanceled || s == StateFailed
}
