package reliable

import "errors"

// 错误定义
var (
	// ErrClosed 已关闭
	ErrClosed = errors.New("reliable: closed")
)
