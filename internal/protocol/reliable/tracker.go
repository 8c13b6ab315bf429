package reliable

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
)

// record 等待确认的消息
//
// inFlight 期间底层发送尚未返回，清扫与关闭都跳过它。
type record struct {
	messageID string
	peerID    string
	sentAt    time.Time
	inFlight  bool
}

// tracker 等待确认的消息表
//
// 每条记录只会被移除一次：由确认、清扫、关闭或发送失败之一移除。
type tracker struct {
	clock    clock.Clock
	timeout  time.Duration
	interval time.Duration
	reporter metrics.Reporter

	// onExpired 在锁外调用
	onExpired func([]record)

	mu      sync.Mutex
	items   map[string]record
	running bool
	closed  bool
	stop    chan struct{}
}

func newTracker(cfg *Config, onExpired func([]record)) *tracker {
	return &tracker{
		clock:     cfg.Clock,
		timeout:   cfg.AckTimeout,
		interval:  cfg.sweepInterval(),
		reporter:  cfg.Reporter,
		onExpired: onExpired,
		items:     make(map[string]record),
		stop:      make(chan struct{}),
	}
}

// add 以发送中状态登记消息，必要时启动清扫
func (t *tracker) add(messageID, peerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	t.items[messageID] = record{messageID: messageID, peerID: peerID, inFlight: true}
	t.reporter.SetTracked(len(t.items))

	if !t.running {
		t.running = true
		// ticker 在登记时同步创建，时钟推进不会早于它
		ticker := t.clock.Ticker(t.interval)
		go t.loop(ticker)
	}
	return nil
}

// commit 发送成功后开始计时
//
// 发送期间 tracker 已关闭时记录随即移除并返回，由调用方通知 NotDelivered。
func (t *tracker) commit(messageID string) (expired []record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.items[messageID]
	if !ok {
		return nil
	}
	if t.closed {
		delete(t.items, messageID)
		t.reporter.SetTracked(len(t.items))
		return []record{rec}
	}
	rec.inFlight = false
	rec.sentAt = t.clock.Now()
	t.items[messageID] = rec
	return nil
}

// remove 移除消息，返回是否存在
func (t *tracker) remove(messageID string) (record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.items[messageID]
	if ok {
		delete(t.items, messageID)
		t.reporter.SetTracked(len(t.items))
	}
	return rec, ok
}

// len 返回等待确认的消息数
func (t *tracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// close 停止清扫，并将已发出的剩余记录全部视为超时
//
// 发送中的记录留待 commit 或发送失败时处理。
func (t *tracker) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.stop)
	rest := t.drainLocked(func(r record) bool { return !r.inFlight })
	t.mu.Unlock()

	if len(rest) > 0 {
		t.onExpired(rest)
	}
}

func (t *tracker) loop(ticker *clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			expired, idle := t.sweep()
			if len(expired) > 0 {
				t.onExpired(expired)
			}
			if idle {
				return
			}
		}
	}
}

// sweep 移除超时记录；表为空时标记清扫停止
func (t *tracker) sweep() (expired []record, idle bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	expired = t.drainLocked(func(r record) bool {
		return !r.inFlight && now.Sub(r.sentAt) >= t.timeout
	})

	if len(t.items) == 0 {
		t.running = false
		return expired, true
	}
	return expired, false
}

func (t *tracker) drainLocked(match func(record) bool) []record {
	var out []record
	for id, r := range t.items {
		if match(r) {
			delete(t.items, id)
			out = append(out, r)
		}
	}
	if len(out) > 0 {
		t.reporter.SetTracked(len(t.items))
	}
	return out
}
