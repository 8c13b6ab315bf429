// Package notify 提供有序回调列表
//
// 每种通知一个 List，回调按注册顺序在锁外依次调用；
// 回调中的 panic 被捕获并记录，不影响后续回调，也不影响调用方的处理循环。
// 回调可以在执行中重新进入组件（例如在回调里再次发送），不会死锁。
package notify

import (
	"sync"

	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

var logger = log.Logger("util/notify")

// Handle 订阅句柄
type Handle struct {
	id     uint64
	remove func(uint64)
	once   sync.Once
}

// Unsubscribe 取消订阅，可重复调用
func (h *Handle) Unsubscribe() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.remove(h.id)
	})
}

type entry[E any] struct {
	id uint64
	fn func(E)
}

// List 某一种通知的回调列表
type List[E any] struct {
	// name 用于日志
	name string

	mu      sync.RWMutex
	nextID  uint64
	entries []entry[E]
}

// NewList 创建回调列表
func NewList[E any](name string) *List[E] {
	return &List[E]{name: name}
}

// Subscribe 注册回调，fn 为 nil 时返回 nil
func (l *List[E]) Subscribe(fn func(E)) *Handle {
	if fn == nil {
		return nil
	}

	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, entry[E]{id: id, fn: fn})
	l.mu.Unlock()

	return &Handle{id: id, remove: l.remove}
}

// Len 返回回调数量
func (l *List[E]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear 清空所有回调
func (l *List[E]) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// Emit 在锁外按注册顺序调用所有回调
//
// 返回是否至少有一个回调。
func (l *List[E]) Emit(ev E) bool {
	l.mu.RLock()
	snapshot := make([]entry[E], len(l.entries))
	copy(snapshot, l.entries)
	l.mu.RUnlock()

	for _, e := range snapshot {
		l.invoke(e.fn, ev)
	}
	return len(snapshot) > 0
}

// EmitOrWarn 同 Emit，没有回调时记录告警并丢弃
func (l *List[E]) EmitOrWarn(ev E, args ...any) bool {
	if l.Emit(ev) {
		return true
	}
	logger.Warn("没有订阅者，通知被丢弃", append([]any{"notification", l.name}, args...)...)
	return false
}

func (l *List[E]) invoke(fn func(E), ev E) {
	defer func() {
		if err := types.RecoverHandlerError(l.name, recover()); err != nil {
			logger.Error("回调执行失败", "notification", l.name, "err", err)
		}
	}()
	fn(ev)
}

func (l *List[E]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}
