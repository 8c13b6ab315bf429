package command

import (
	"sync"
	"time"

	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// itemKey 命令项键
type itemKey struct {
	proxyID   string
	commandID string
}

// item 执行端命令项
type item struct {
	key     itemKey
	created time.Time

	mu        sync.Mutex
	fragments [][]byte
	request   types.RequestKind
	connected bool

	// arrived 有新分片时非阻塞写入
	arrived chan struct{}

	// gate 关闭表示放行；暂停时替换为新的未关闭通道
	gate     chan struct{}
	gateOpen bool

	canceled     chan struct{}
	cancelClosed bool
}

func newItem(key itemKey, connected bool, now time.Time) *item {
	gate := make(chan struct{})
	close(gate)
	return &item{
		key:       key,
		created:   now,
		request:   types.RequestExecute,
		connected: connected,
		arrived:   make(chan struct{}, 1),
		gate:      gate,
		gateOpen:  true,
		canceled:  make(chan struct{}),
	}
}

// enqueue 追加输入分片
func (it *item) enqueue(fragment []byte) {
	if fragment == nil {
		return
	}

	it.mu.Lock()
	it.fragments = append(it.fragments, fragment)
	it.mu.Unlock()

	select {
	case it.arrived <- struct{}{}:
	default:
	}
}

// dequeue 取出一个分片；已取消时返回 ErrCanceled
func (it *item) dequeue() ([]byte, bool, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.cancelClosed {
		return nil, false, types.ErrCanceled
	}
	if len(it.fragments) == 0 {
		return nil, false, nil
	}
	f := it.fragments[0]
	it.fragments[0] = nil
	it.fragments = it.fragments[1:]
	return f, true, nil
}

func (it *item) pending() int {
	it.mu.Lock()
	defer it.mu.Unlock()
	return len(it.fragments)
}

func (it *item) currentRequest() types.RequestKind {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.request
}

func (it *item) isConnected() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.connected
}

func (it *item) setConnected(connected bool) {
	it.mu.Lock()
	it.connected = connected
	it.mu.Unlock()
}

func (it *item) gateChan() <-chan struct{} {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.gate
}

// pause 关闭放行门；已取消的命令不再暂停
func (it *item) pause() {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.cancelClosed {
		return
	}
	it.request = types.RequestPause
	if it.gateOpen {
		it.gate = make(chan struct{})
		it.gateOpen = false
	}
}

// resume 打开放行门
func (it *item) resume() {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.cancelClosed {
		return
	}
	it.request = types.RequestResume
	it.openGateLocked()
}

// cancel 打开放行门并唤醒分片等待
func (it *item) cancel() {
	it.mu.Lock()
	defer it.mu.Unlock()

	it.request = types.RequestCancel
	it.openGateLocked()
	if !it.cancelClosed {
		it.cancelClosed = true
		close(it.canceled)
	}
}

func (it *item) openGateLocked() {
	if !it.gateOpen {
		close(it.gate)
		it.gateOpen = true
	}
}
