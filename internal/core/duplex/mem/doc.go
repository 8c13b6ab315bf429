// Package mem 提供进程内的双工通道实现
//
// Network 充当一个进程内的"地址空间"：InputChannel 以 channelID 注册监听，
// OutputChannel 通过同一个 channelID 连接。每个连接的每个方向有独立的
// 有序事件队列和投递 goroutine，因此：
//
//   - 同一对端的消息与连接事件严格有序
//   - 不同对端之间并发投递
//   - 发送方永不阻塞（队列无界）
//
// 为了测试可靠性层，两端都支持丢弃过滤器（SetDropFilter），
// 被过滤的数据静默丢失，发送方仍然得到成功返回，与真实的不可靠传输一致。
//
// 使用示例:
//
//	net := mem.NewNetwork()
//	in, _ := net.NewInputChannel("calc")
//	out := net.NewOutputChannel("calc", "")
//	_ = out.OpenConnection()
package mem
