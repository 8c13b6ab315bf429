package command

import "errors"

// 错误定义
var (
	// ErrNilProcess 处理例程为 nil
	ErrNilProcess = errors.New("command: process func is nil")

	// ErrEmptyCommandID 命令 ID 为空
	ErrEmptyCommandID = errors.New("command: empty command id")

	// ErrQueueFull SingleThread 队列已满
	ErrQueueFull = errors.New("command: execution queue full")

	// ErrClosed 执行端已关闭
	ErrClosed = errors.New("command: receiver closed")
)
