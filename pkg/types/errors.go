// Package types 定义 go-duplexmsg 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              通道相关错误
// ============================================================================

var (
	// ErrNotAttached 尚未附加底层双工通道
	ErrNotAttached = errors.New("duplex channel not attached")

	// ErrAlreadyAttached 已附加底层双工通道
	ErrAlreadyAttached = errors.New("duplex channel already attached")

	// ErrNotConnected 未连接
	ErrNotConnected = errors.New("not connected")

	// ErrConnectionClosed 等待期间连接已关闭
	ErrConnectionClosed = errors.New("connection closed")

	// ErrTimeout 同步等待或确认超时
	ErrTimeout = errors.New("timeout")
)

// ============================================================================
//                              编解码与处理器错误
// ============================================================================

var (
	// ErrSerialization 序列化/反序列化失败
	ErrSerialization = errors.New("serialization failed")

	// ErrDuplicateHandler 类型标签已注册处理器
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrInvalidArgument 无效参数
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrHandler 用户回调出错
	ErrHandler = errors.New("handler failed")

	// ErrCanceled 命令已取消
	ErrCanceled = errors.New("canceled")
)

// ============================================================================
//                              带上下文的错误类型
// ============================================================================

// SerializationError 序列化错误
//
// 可通过 errors.Is(err, ErrSerialization) 判断。
type SerializationError struct {
	// Op 操作：serialize 或 deserialize
	Op string

	// Type 目标类型名
	Type string

	// Cause 底层错误
	Cause error
}

// NewSerializationError 创建序列化错误
func NewSerializationError(op string, v any, cause error) *SerializationError {
	return &SerializationError{
		Op:    op,
		Type:  fmt.Sprintf("%T", v),
		Cause: cause,
	}
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Type, e.Cause)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Type)
}

// Is 使 errors.Is(err, ErrSerialization) 成立
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// HandlerError 用户回调错误
//
// 回调中的 panic 或返回的错误被捕获后包装为 HandlerError，
// 只记录日志或转换为失败响应，不会传播到监听循环。
type HandlerError struct {
	// Source 出错的回调来源
	Source string

	// Cause 底层错误
	Cause error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Cause)
}

// Is 使 errors.Is(err, ErrHandler) 成立
func (e *HandlerError) Is(target error) bool {
	return target == ErrHandler
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// RecoverHandlerError 将 recover() 的结果转换为 HandlerError
//
// r 为 nil 时返回 nil。
func RecoverHandlerError(source string, r any) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return &HandlerError{Source: source, Cause: err}
	}
	return &HandlerError{Source: source, Cause: fmt.Errorf("panic: %v", r)}
}
