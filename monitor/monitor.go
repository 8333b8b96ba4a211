// Package monitor implements the reentrant monitor used for class-type,
// class-instance, array and string locking (§4.5). The process-wide class
// registry, thread list and thrown-state slot use plain sync.Mutex instead.
package monitor

import (
	"sync"
	"time"
)

// Monitor is a reentrant mutex with an associated condition variable
// supporting wait(timeout)/notify/notifyAll. Ownership is tracked by an
// explicit owner token (the calling thread's id) rather than by goroutine
// identity: Go has no supported way to read the current goroutine's id, so
// the interpreter passes its own thread handle as the owner on every
// Enter/Exit/Wait call, exactly as the source's "which thread currently
// holds the lock" bookkeeping does, just made explicit instead of implicit.
type Monitor struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64
	depth int
}

// New returns a ready-to-use Monitor.
func New() *Monitor {
	m := &Monitor{owner: 0}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// noOwner is never a valid thread id (thread ids start at 1).
const noOwner = 0

// Enter acquires the monitor for owner, blocking if another owner holds it.
// Reentrant: the same owner may Enter repeatedly; each Enter must be
// matched by an Exit.
func (m *Monitor) Enter(owner int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.owner != noOwner && m.owner != owner {
		m.cond.Wait()
	}
	m.owner = owner
	m.depth++
}

// TryEnter attempts to acquire the monitor without blocking.
func (m *Monitor) TryEnter(owner int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != noOwner && m.owner != owner {
		return false
	}
	m.owner = owner
	m.depth++
	return true
}

// Exit releases one level of reentrancy for owner. Exiting a monitor not
// held by owner is a programming error (maps to IllegalMonitorStateException
// at the interpreter level); it is reported via the returned bool.
func (m *Monitor) Exit(owner int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != owner || m.depth == 0 {
		return false
	}
	m.depth--
	if m.depth == 0 {
		m.owner = noOwner
		m.cond.Broadcast()
	}
	return true
}

// HeldBy reports whether owner currently holds the monitor.
func (m *Monitor) HeldBy(owner int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner == owner && m.depth > 0
}

// Wait releases the monitor for owner (remembering its reentrancy depth),
// blocks until Notify/NotifyAll or timeoutMillis elapses (0 means forever),
// then reacquires the monitor at the same depth before returning. Returns
// false if owner did not hold the monitor.
func (m *Monitor) Wait(owner int64, timeoutMillis int64) bool {
	m.mu.Lock()
	if m.owner != owner || m.depth == 0 {
		m.mu.Unlock()
		return false
	}
	savedDepth := m.depth
	m.depth = 0
	m.owner = noOwner
	m.cond.Broadcast()

	if timeoutMillis > 0 {
		timer := time.AfterFunc(time.Duration(timeoutMillis)*time.Millisecond, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		})
		defer timer.Stop()
		deadline := time.Now().Add(time.Duration(timeoutMillis) * time.Millisecond)
		for m.owner != noOwner && time.Now().Before(deadline) {
			m.cond.Wait()
		}
	} else {
		for m.owner != noOwner {
			m.cond.Wait()
		}
	}
	m.owner = owner
	m.depth = savedDepth
	m.mu.Unlock()
	return true
}

// Notify wakes one waiter, in unspecified order.
func (m *Monitor) Notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cond.Signal()
}

// NotifyAll wakes every waiter.
func (m *Monitor) NotifyAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cond.Broadcast()
}
