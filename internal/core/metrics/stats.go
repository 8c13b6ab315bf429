package metrics

// Stats 指标快照
type Stats struct {
	MessagesSent     int64 // 已发送消息数
	MessagesReceived int64 // 已接收消息数
	SendFailures     int64 // 发送失败数
	Delivered        int64 // 已确认投递数
	NotDelivered     int64 // 确认超时数
	Tracked          int64 // 当前跟踪中的消息数
	CommandsStarted  int64 // 已启动命令数
	CommandsActive   int64 // 执行中的命令数
}
