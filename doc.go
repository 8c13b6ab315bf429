// Package duplexmsg 提供基于双工通道的类型化消息与远程命令执行
//
// 传输层只需实现 pkg/interfaces 中的 DuplexInputChannel / DuplexOutputChannel，
// 本库在其上叠加四层能力：
//
//   - 类型化通道：请求/响应值的序列化，以及同步的 SendAndWait
//   - 类型分发：按类型标签把多种消息复用到一个通道并分发给处理器
//   - 可靠性包装：消息 ID + 确认，超时未确认上报 NotDelivered
//   - 命令引擎：代理端执行、暂停、恢复、取消执行端的长时命令
//
// # 快速开始
//
//	stack, err := duplexmsg.New(duplexmsg.WithPreset(config.PresetSerial))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stack.Close()
//
//	rcv, _ := stack.NewCommandReceiver(func(ctx *duplexmsg.CommandContext) error {
//	    in, err := ctx.DequeueInputData(time.Second)
//	    if err != nil {
//	        return err
//	    }
//	    return ctx.Respond(duplexmsg.StateCompleted, in, "", true)
//	})
//	rcv.AttachInputChannel(input)
//
//	proxy := stack.NewCommandProxy()
//	proxy.AttachOutputChannel(output)
//	proxy.Execute("echo", []byte("hi"))
//
// 泛型通道通过包级函数创建：
//
//	sender := duplexmsg.NewSyncSender[AddRequest, AddResponse](stack)
//	resp, err := sender.SendAndWait(AddRequest{A: 1, B: 2}, time.Second)
//
// # 诊断
//
// WithMetrics 启用 Prometheus 指标，WithIntrospect 在本地启动自省 HTTP 服务
// (/debug/introspect、/metrics、/debug/pprof、/health)：
//
//	stack, _ := duplexmsg.New(
//	    duplexmsg.WithMetrics(prometheus.NewRegistry()),
//	    duplexmsg.WithIntrospect("127.0.0.1:6060"),
//	)
//	fmt.Println(stack.IntrospectAddr())
//
// # 文件组织
//
//   - stack.go    - Stack 门面与生命周期
//   - channels.go - 各层通道的构造
//   - options.go  - 用户选项
//   - fx.go       - Fx 模块装配
//   - errors.go   - 错误与常用类型的再导出
//   - version.go  - 版本信息
package duplexmsg
