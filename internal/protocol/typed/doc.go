// Package typed 实现类型化双工通道
//
// typed 在无类型的双工字节通道之上绑定一对请求/响应类型：
//   - Sender: 输出端，序列化请求并发送，反序列化响应后通知订阅者
//   - Receiver: 输入端，反序列化请求后通知订阅者，按对端发送响应
//   - SyncSender: 同步请求，SendAndWait 阻塞到响应、超时或连接关闭
//
// # 快速开始
//
//	sender := typed.NewSender[Request, Response]()
//	sender.OnResponse(func(ev typed.ResponseEvent[Response]) {
//	    if ev.Err != nil {
//	        return
//	    }
//	    fmt.Println(ev.Value)
//	})
//	if err := sender.AttachOutputChannel(out); err != nil {
//	    return err
//	}
//	err := sender.Send(Request{...})
//
// # 错误处理
//
// 发送路径的错误（未附加、序列化失败、传输失败）同步返回给调用方。
// 接收路径的反序列化失败以 Err 字段通知订阅者；没有订阅者时记录日志并丢弃。
//
// # 并发安全
//
// 所有方法都是并发安全的；回调在锁外调用，可在回调中再次发送。
// SyncSender 同一时刻只允许一个同步调用，并发调用在内部互斥锁上排队。
package typed
