package stm

import (
	"sync"
	"sync/atomic"
)

// box is an immutable, shared payload. A TVar's committed value is always
// replaced wholesale — never mutated in place — so a pointer-equal box
// always holds the same value, and a different box pointer is taken as a
// change even when the two values are equal. Commit-time validation
// relies on this: see Transaction.commit.
type box struct {
	v any
}

var nextControlBlockID uint64

// controlBlock is the identity, value cell, and wait-list of one live
// TVar. It outlives any single TVar handle for as long as a Transaction's
// log or a blocked waiter still references it.
type controlBlock struct {
	id uint64 // assigned once, used to order lock acquisition at commit

	mu    sync.RWMutex
	value *box

	waitMu  sync.Mutex
	waiters map[*waiter]struct{}
}

func newControlBlock(initial any) *controlBlock {
	return &controlBlock{
		id:    atomic.AddUint64(&nextControlBlockID, 1),
		value: &box{v: initial},
	}
}

// snapshot takes a read lock, clones the current payload handle, and
// releases — a cheap, atomic-ish read suitable for a transactional read or
// for ReadAtomic.
func (cb *controlBlock) snapshot() *box {
	cb.mu.RLock()
	b := cb.value
	cb.mu.RUnlock()
	return b
}

func (cb *controlBlock) registerWaiter(w *waiter) {
	cb.waitMu.Lock()
	if cb.waiters == nil {
		cb.waiters = make(map[*waiter]struct{})
	}
	cb.waiters[w] = struct{}{}
	cb.waitMu.Unlock()
}

func (cb *controlBlock) unregisterWaiter(w *waiter) {
	cb.waitMu.Lock()
	delete(cb.waiters, w)
	cb.waitMu.Unlock()
}

// wakeAll drains the wait-list and signals every entry. Called once per
// written variable, after the write lock protecting it has been released.
func (cb *controlBlock) wakeAll() {
	cb.waitMu.Lock()
	ws := cb.waiters
	cb.waiters = nil
	cb.waitMu.Unlock()

	for w := range ws {
		w.wake()
	}
}

// waiter is a one-shot wake-up signal. The same waiter can be registered on
// several control blocks at once; waking it from any of them unblocks the
// goroutine parked on ch, and the others are unregistered afterward.
type waiter struct {
	ch   chan struct{}
	once sync.Once
}

func newWaiter() *waiter {
	return &waiter{ch: make(chan struct{})}
}

func (w *waiter) wake() {
	w.once.Do(func() { close(w.ch) })
}

// TVar is a typed handle to one transactional variable. TVar values are
// cheap to copy; copies share the same underlying control block.
type TVar[T any] struct {
	cb *controlBlock
}

// NewTVar creates a transactional variable holding initial.
func NewTVar[T any](initial T) *TVar[T] {
	return &TVar[T]{cb: newControlBlock(initial)}
}

// ReadAtomic returns the variable's current committed value, outside of any
// transaction.
func (v *TVar[T]) ReadAtomic() T {
	b := v.cb.snapshot()
	return b.v.(T)
}
