// Package command 实现可暂停、可取消的远程命令执行
//
// 代理端（Proxy）发出 Execute/Pause/Resume/Cancel 请求，执行端（Receiver）
// 按 (代理 ID, 命令 ID) 维护命令项，调用用户处理例程并回送状态响应。
//
// # 执行端
//
//	rcv, err := command.NewReceiver(func(ctx *command.Context) error {
//	    a, err := ctx.DequeueInputData(time.Second)
//	    if err != nil {
//	        return err
//	    }
//	    if !ctx.WaitIfPause(0) {
//	        return nil
//	    }
//	    return ctx.Respond(types.StateCompleted, result(a), "", true)
//	}, command.WithStrategy(command.MultiThread))
//	_ = rcv.AttachInputChannel(in)
//
// # 代理端
//
//	proxy := command.NewProxy()
//	proxy.OnResponse(func(ev command.ResponseEvent) { ... })
//	_ = proxy.AttachOutputChannel(out)
//	_ = proxy.Execute("sum", input)
//	_ = proxy.Pause("sum")
//	_ = proxy.Resume("sum")
//
// # 执行策略
//
//   - SingleThread: 单个 worker 按首次 Execute 到达顺序依次执行所有命令
//   - MultiThread: 每个命令独立 goroutine 执行，可用 MaxConcurrency 限制并发
//
// 同一命令的输入分片总是按到达顺序交给例程。
//
// # 协作式控制
//
// 暂停与取消都不会抢占例程：Pause 使之后的 WaitIfPause 阻塞，Resume 放行，
// Cancel 同时放行 WaitIfPause 并使阻塞的 DequeueInputData 返回 ErrCanceled。
//
// 代理断开后命令不会自动取消，IsProxyConnected 变为 false，
// 之后发往该代理的响应被静默丢弃。
//
// 例程返回后命令项即被移除；返回错误或 panic 时回送 Failed 响应。
package command
