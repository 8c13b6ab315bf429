package metrics

import "time"

// Reporter 提供记录和检索指标的方法
type Reporter interface {
	// MessageSent 记录一条发出的消息
	MessageSent(component string)

	// MessageReceived 记录一条收到的消息
	MessageReceived(component string)

	// SendFailed 记录一次发送失败
	SendFailed(component string)

	// DeliveryResolved 记录可靠消息的最终结果
	DeliveryResolved(delivered bool)

	// SetTracked 设置当前跟踪中的消息数
	SetTracked(n int)

	// CommandStarted 记录命令开始执行
	CommandStarted()

	// CommandFinished 记录命令执行结束
	CommandFinished(state string, elapsed time.Duration)

	// Snapshot 返回当前统计快照
	Snapshot() Stats
}

// 确保实现 Reporter 接口
var (
	_ Reporter = (*Collector)(nil)
	_ Reporter = nopReporter{}
)

// Nop 返回空实现
func Nop() Reporter {
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) MessageSent(string)                    {}
func (nopReporter) MessageReceived(string)                {}
func (nopReporter) SendFailed(string)                     {}
func (nopReporter) DeliveryResolved(bool)                 {}
func (nopReporter) SetTracked(int)                        {}
func (nopReporter) CommandStarted()                       {}
func (nopReporter) CommandFinished(string, time.Duration) {}
func (nopReporter) Snapshot() Stats                       { return Stats{} }

// OrNop 返回 r，r 为 nil 时返回空实现
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop()
	}
	return r
}
