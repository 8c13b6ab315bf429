// Package serializer 提供 interfaces.Serializer 的实现
//
// # 实现
//
//   - JSON     - encoding/json，适合调试和跨语言对接
//   - Proto    - protobuf：proto.Message 走 proto.Marshal，
//     信封和命令消息走 internal/core/wire 的 protobuf 线格式
//   - Zstd     - 压缩装饰器，超过阈值的载荷使用 zstd 压缩
//   - PerPeer  - 按对端选择序列化器（实现 interfaces.PeerSerializer）
//
// # 错误
//
// 所有失败都返回 *types.SerializationError，
// 可通过 errors.Is(err, types.ErrSerialization) 判断。
//
// # Fx 集成
//
//	app := fx.New(
//	    fx.Supply(serializer.DefaultConfig()),
//	    serializer.Module(),
//	)
package serializer
