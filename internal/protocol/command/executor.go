package command

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// executor 执行策略
type executor interface {
	// submit 提交命令项，不阻塞入站线程
	submit(it *item) error
	// close 停止接收，未开始的命令项被丢弃
	close()
}

// ============================================================================
//                              SingleThread
// ============================================================================

// singleThread 单 worker 按提交顺序执行
type singleThread struct {
	run     func(*item)
	discard func(*item)

	mu     sync.Mutex
	queue  chan *item
	closed bool
	stop   chan struct{}
	done   chan struct{}
}

func newSingleThread(size int, run, discard func(*item)) *singleThread {
	e := &singleThread{
		run:     run,
		discard: discard,
		queue:   make(chan *item, size),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *singleThread) submit(it *item) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	select {
	case e.queue <- it:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *singleThread) loop() {
	defer close(e.done)

	for {
		select {
		case <-e.stop:
			e.drain()
			return
		case it := <-e.queue:
			e.run(it)
		}
	}
}

func (e *singleThread) drain() {
	for {
		select {
		case it := <-e.queue:
			e.discard(it)
		default:
			return
		}
	}
}

func (e *singleThread) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.stop)
	e.mu.Unlock()
}

// ============================================================================
//                              MultiThread
// ============================================================================

// multiThread 每个命令独立 goroutine，可选并发上限
type multiThread struct {
	run     func(*item)
	discard func(*item)
	sem     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
}

func newMultiThread(maxConcurrency int, run, discard func(*item)) *multiThread {
	ctx, cancel := context.WithCancel(context.Background())
	e := &multiThread{run: run, discard: discard, ctx: ctx, cancel: cancel}
	if maxConcurrency > 0 {
		e.sem = semaphore.NewWeighted(int64(maxConcurrency))
	}
	return e
}

func (e *multiThread) submit(it *item) error {
	if e.ctx.Err() != nil {
		return ErrClosed
	}

	go func() {
		if e.sem != nil {
			if err := e.sem.Acquire(e.ctx, 1); err != nil {
				e.discard(it)
				return
			}
			defer e.sem.Release(1)
		}
		e.run(it)
	}()
	return nil
}

func (e *multiThread) close() {
	e.cancel()
}
