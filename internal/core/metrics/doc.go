// Package metrics 提供消息中间件的监控指标
//
// metrics 模块基于 Prometheus 统计各层消息流量：
//   - 消息发送/接收/失败计数（按组件）
//   - 可靠投递结果（delivered / not_delivered）与跟踪中的消息数
//   - 命令执行数、活跃数与耗时分布
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	c, err := metrics.NewCollector(metrics.Config{Enable: true, Namespace: "duplexmsg"}, reg)
//
//	c.MessageSent("typed")
//	c.DeliveryResolved(true)
//
//	stats := c.Snapshot()
//	fmt.Printf("sent=%d delivered=%d\n", stats.MessagesSent, stats.Delivered)
//
// # 禁用
//
// 未启用时各组件使用 Nop()，所有方法为空操作。
//
// # 并发安全
//
// 所有方法都是并发安全的。
package metrics
