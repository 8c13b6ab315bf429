package mem

import "sync"

// eventQueue 无界有序事件队列，由单个 goroutine 顺序执行
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []func()
	closed bool
	done   chan struct{}
}

func newEventQueue() *eventQueue {
	q := &eventQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// push 追加事件，队列关闭后返回 false
func (q *eventQueue) push(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, fn)
	q.cond.Signal()
	return true
}

// close 追加最后一个事件后关闭队列，已入队的事件仍会执行
func (q *eventQueue) close(last func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	if last != nil {
		q.events = append(q.events, last)
	}
	q.closed = true
	q.cond.Signal()
}

func (q *eventQueue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.events) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.events) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.events[0]
		q.events[0] = nil
		q.events = q.events[1:]
		q.mu.Unlock()

		fn()
	}
}
