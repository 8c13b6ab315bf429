// Package reliable 实现基于确认的可靠投递通知
//
// reliable 包装 ReliableEnvelope 类型化通道：
//   - 每条发出的消息生成新的 MessageID，在物理发送前登记到跟踪表
//   - 对端收到消息后立即回送同 ID 的 Acknowledge，再交给应用订阅者
//   - 收到 Acknowledge 时移除跟踪记录并通知 Delivered
//   - 后台清扫超过确认超时的记录并通知 NotDelivered
//
// 每个 MessageID 的 Delivered 与 NotDelivered 互斥，且只通知一次。
// Acknowledge 本身不会再被确认，也不做重传。
//
// # 快速开始
//
//	s := reliable.NewSender[Request, Response](reliable.WithAckTimeout(time.Second))
//	s.OnDelivered(func(ev types.DeliveryEvent) { ... })
//	s.OnNotDelivered(func(ev types.DeliveryEvent) { ... })
//	_ = s.AttachOutputChannel(out)
//	id, err := s.Send(Request{...})
//
// # 清扫
//
// 清扫 goroutine 只在跟踪表非空时运行：首次登记时启动，表清空后退出。
// 实际清扫间隔为 min(SweepInterval, AckTimeout/2)，超时判断以清扫时刻为准，不精确。
package reliable
