package metrics

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Collector Prometheus 指标收集器
//
// 计数同时保存在原子计数器中，用于 Snapshot。
type Collector struct {
	sent     atomic.Int64
	received atomic.Int64
	failed   atomic.Int64
	ok       atomic.Int64
	lost     atomic.Int64
	tracked  atomic.Int64
	started  atomic.Int64
	active   atomic.Int64

	messages        *prometheus.CounterVec
	sendFailures    *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	trackedGauge    prometheus.Gauge
	commands        *prometheus.CounterVec
	activeGauge     prometheus.Gauge
	commandDuration prometheus.Histogram
}

// NewCollector 创建收集器并注册到 reg
//
// reg 为 nil 时只创建不注册。
func NewCollector(cfg Config, reg prometheus.Registerer) (*Collector, error) {
	ns := cfg.Namespace

	c := &Collector{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "messages_total",
			Help:      "Messages handled, by component and direction.",
		}, []string{"component", "direction"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "send_failures_total",
			Help:      "Failed sends, by component.",
		}, []string{"component"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "reliable_deliveries_total",
			Help:      "Resolved reliable messages, by result.",
		}, []string{"result"}),
		trackedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "reliable_tracked_messages",
			Help:      "Reliable messages awaiting acknowledgement.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "commands_total",
			Help:      "Finished commands, by final state.",
		}, []string{"state"}),
		activeGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "commands_active",
			Help:      "Commands currently executing.",
		}),
		commandDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "command_duration_seconds",
			Help:      "Command execution time.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	if reg != nil {
		if err := c.register(reg); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.messages,
		c.sendFailures,
		c.deliveries,
		c.trackedGauge,
		c.commands,
		c.activeGauge,
		c.commandDuration,
	}
}

func (c *Collector) register(reg prometheus.Registerer) error {
	var err error
	for _, col := range c.collectors() {
		if e := reg.Register(col); e != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(e, &already) && already.ExistingCollector == col {
				continue
			}
			err = multierr.Append(err, e)
		}
	}
	if err != nil {
		return fmt.Errorf("metrics: register: %w", err)
	}
	return nil
}

// Unregister 从 reg 注销全部指标
func (c *Collector) Unregister(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	for _, col := range c.collectors() {
		reg.Unregister(col)
	}
}

// MessageSent 实现 Reporter
func (c *Collector) MessageSent(component string) {
	c.sent.Add(1)
	c.messages.WithLabelValues(component, "out").Inc()
}

// MessageReceived 实现 Reporter
func (c *Collector) MessageReceived(component string) {
	c.received.Add(1)
	c.messages.WithLabelValues(component, "in").Inc()
}

// SendFailed 实现 Reporter
func (c *Collector) SendFailed(component string) {
	c.failed.Add(1)
	c.sendFailures.WithLabelValues(component).Inc()
}

// DeliveryResolved 实现 Reporter
func (c *Collector) DeliveryResolved(delivered bool) {
	if delivered {
		c.ok.Add(1)
		c.deliveries.WithLabelValues("delivered").Inc()
		return
	}
	c.lost.Add(1)
	c.deliveries.WithLabelValues("not_delivered").Inc()
}

// SetTracked 实现 Reporter
func (c *Collector) SetTracked(n int) {
	c.tracked.Store(int64(n))
	c.trackedGauge.Set(float64(n))
}

// CommandStarted 实现 Reporter
func (c *Collector) CommandStarted() {
	c.started.Add(1)
	c.active.Add(1)
	c.activeGauge.Inc()
}

// CommandFinished 实现 Reporter
func (c *Collector) CommandFinished(state string, elapsed time.Duration) {
	c.active.Add(-1)
	c.activeGauge.Dec()
	c.commands.WithLabelValues(state).Inc()
	c.commandDuration.Observe(elapsed.Seconds())
}

// Snapshot 实现 Reporter
func (c *Collector) Snapshot() Stats {
	return Stats{
		MessagesSent:     c.sent.Load(),
		MessagesReceived: c.received.Load(),
		SendFailures:     c.failed.Load(),
		Delivered:        c.ok.Load(),
		NotDelivered:     c.lost.Load(),
		Tracked:          c.tracked.Load(),
		CommandsStarted:  c.started.Load(),
		CommandsActive:   c.active.Load(),
	}
}
