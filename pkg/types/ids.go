package types

import "github.com/google/uuid"

// NewMessageID 生成可靠信封的消息 ID
func NewMessageID() string {
	return uuid.New().String()
}

// NewCommandID 生成命令 ID
func NewCommandID() string {
	return uuid.New().String()
}

// NewSequenceID 生成输出分片的序列 ID
func NewSequenceID() string {
	return uuid.New().String()
}
