// Package interfaces 定义 go-duplexmsg 对外部协作者的接口契约
//
// 核心层只依赖这里的接口，不依赖任何具体传输或序列化实现：
//
//   - duplex.go     - 双工通道（输入端多对端、输出端单连接）及其回调
//   - serializer.go - 可插拔序列化器，可按对端提供不同变体
//
// 契约约定：
//   - 每个对端内消息有序，跨对端不保证顺序
//   - 不保证投递，这正是 reliable 包存在的原因
//   - 回调可能来自多个 goroutine 并发调用
package interfaces
