package duplexmsg

import (
	"errors"

	"github.com/dep2p/go-duplexmsg/internal/protocol/command"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              公共错误
// ════════════════════════════════════════════════════════════════════════════

var (
	// ErrStackClosed Stack 已关闭
	ErrStackClosed = errors.New("duplexmsg: stack closed")

	// ────────────────────────────────────────────────────────────────────────
	// 通道
	// ────────────────────────────────────────────────────────────────────────

	ErrNotAttached      = types.ErrNotAttached
	ErrAlreadyAttached  = types.ErrAlreadyAttached
	ErrNotConnected     = types.ErrNotConnected
	ErrConnectionClosed = types.ErrConnectionClosed
	ErrTimeout          = types.ErrTimeout

	// ────────────────────────────────────────────────────────────────────────
	// 编解码与处理器
	// ────────────────────────────────────────────────────────────────────────

	ErrSerialization    = types.ErrSerialization
	ErrDuplicateHandler = types.ErrDuplicateHandler
	ErrInvalidArgument  = types.ErrInvalidArgument
	ErrHandler          = types.ErrHandler

	// ────────────────────────────────────────────────────────────────────────
	// 命令
	// ────────────────────────────────────────────────────────────────────────

	ErrCanceled       = types.ErrCanceled
	ErrQueueFull      = command.ErrQueueFull
	ErrEmptyCommandID = command.ErrEmptyCommandID
	ErrNilProcess     = command.ErrNilProcess
)

// SerializationError 带操作与类型信息的序列化错误
type SerializationError = types.SerializationError

// HandlerError 用户回调出错或 panic
type HandlerError = types.HandlerError

// ════════════════════════════════════════════════════════════════════════════
//                              常用类型
// ════════════════════════════════════════════════════════════════════════════

type (
	ConnectionEvent = types.ConnectionEvent
	DeliveryEvent   = types.DeliveryEvent
	CommandState    = types.CommandState
	RequestKind     = types.RequestKind

	CommandContext   = command.Context
	CommandProcess   = command.ProcessFunc
	CommandResponse  = command.ResponseEvent
	CommandProxy     = command.Proxy
	CommandReceiver  = command.Receiver
	ReliableProxy    = command.ReliableProxy
	ReliableReceiver = command.ReliableReceiver
)

// 命令状态
const (
	StateNotStarted = types.StateNotStarted
	StateInProgress = types.StateInProgress
	StatePaused     = types.StatePaused
	StateCompleted  = types.StateCompleted
	StateCanceled   = types.StateCanceled
	StateFailed     = types.StateFailed
)
