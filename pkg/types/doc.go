// Package types 定义 go-duplexmsg 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 职能
//
// pkg/types 的职能是定义 **Go 内部数据结构**：
//   - 信封类型（TaggedEnvelope、ReliableEnvelope）
//   - 命令协议消息（CommandRequest、CommandResponse）
//   - 枚举、事件类型、公共错误
//
// # 与 internal/core/wire 的区别
//
// pkg/types 定义内存结构，
// internal/core/wire 定义这些结构在线上的 protobuf 编码。
//
// # 文件组织
//
//   - enums.go     - EnvelopeKind, RequestKind, CommandState
//   - envelopes.go - TaggedEnvelope, ReliableEnvelope, CommandRequest, CommandResponse
//   - events.go    - ConnectionEvent, DeliveryEvent
//   - ids.go       - 消息 ID 与命令 ID 生成
//   - errors.go    - 公共错误定义
package types
