// Package dispatch 实现按类型标签分发的多类型通道
//
// 多种逻辑消息类型共用一个 TaggedEnvelope 类型化通道：
// 发送时用类型标签包装序列化后的值，接收时按标签查找处理器，
// 反序列化为具体类型后调用处理器。
//
// 标签由应用在注册时显式给出，不依赖运行时类型名：
//
//	reg := receiver.Registry()
//	dispatch.Register(reg, "int32", func(ev dispatch.Event[int32]) {
//	    if ev.Err != nil {
//	        return
//	    }
//	    fmt.Println(ev.Value)
//	})
//
//	dispatch.Send(sender, "int32", int32(42))
//
// 需要默认标签时可使用 TypeTag[T]()，它返回带包路径的类型名。
//
// 未注册标签的消息记录日志后丢弃；反序列化失败时以 Err 调用同一处理器。
package dispatch
