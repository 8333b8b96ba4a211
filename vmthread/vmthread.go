// Package vmthread is the thread accessor registry (C10): a per-thread
// call stack used for stack traces and caller-sensitive reflection, plus
// the process-wide thread-list monitor the source's native::Thread table
// provides.
package vmthread

import (
	"sync"

	"classvm/vmclass"
)

// CallInfo is one call-stack record: which class/method/descriptor is
// executing and at what code offset, for printStackTrace and for
// caller-sensitive guards.
type CallInfo struct {
	ClassName       string
	MethodName      string
	MethodDesc      string
	CodeOffset      int
	CallerSensitive bool
}

// Accessor is the per-thread handle (C10): its managed Thread variable, its
// call stack, and a caller-sensitive nesting counter — not just a boolean,
// so a caller-sensitive native calling another caller-sensitive native
// still resolves to the correct real caller frame (§12 supplemented
// feature).
type Accessor struct {
	ID         int64
	JavaThread *vmclass.Instance

	mu                   sync.Mutex
	callStack            []CallInfo
	exceptionThrown      bool
	callerSensitiveDepth int
}

var (
	tableMu sync.Mutex
	table   []*Accessor
	nextID  int64
)

// NewAccessor allocates (but does not register) an Accessor for a thread
// wrapping javaThread (nil for internally-spawned threads with no managed
// Thread object of their own yet).
func NewAccessor(javaThread *vmclass.Instance) *Accessor {
	tableMu.Lock()
	nextID++
	id := nextID
	tableMu.Unlock()
	return &Accessor{ID: id, JavaThread: javaThread}
}

// Register adds a into the process-wide thread table, guarded by the
// thread-list monitor (§4.5).
func Register(a *Accessor) {
	tableMu.Lock()
	defer tableMu.Unlock()
	table = append(table, a)
}

// Unregister removes a from the thread table.
func Unregister(a *Accessor) {
	tableMu.Lock()
	defer tableMu.Unlock()
	for i, t := range table {
		if t == a {
			table = append(table[:i], table[i+1:]...)
			return
		}
	}
}

// ByID looks up a registered accessor by its handle.
func ByID(id int64) *Accessor {
	tableMu.Lock()
	defer tableMu.Unlock()
	for _, t := range table {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Count returns the number of live registered threads.
func Count() int {
	tableMu.Lock()
	defer tableMu.Unlock()
	return len(table)
}

// PushCall records a new active call, unless an exception is already in
// flight for this thread (matching the source's "stop tracking calls once
// unwinding" behavior).
func (a *Accessor) PushCall(ci CallInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.exceptionThrown {
		return
	}
	a.callStack = append(a.callStack, ci)
}

// PopCall removes the most recent call record.
func (a *Accessor) PopCall() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.exceptionThrown {
		return
	}
	if len(a.callStack) > 0 {
		a.callStack = a.callStack[:len(a.callStack)-1]
	}
}

// NotifyExceptionThrown marks this thread as unwinding, freezing the call
// stack so printStackTrace sees the frames active at the moment of throw.
func (a *Accessor) NotifyExceptionThrown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exceptionThrown = true
}

// ClearExceptionThrown resumes normal call-stack tracking after the host
// (or a catch handler) has acknowledged the throw.
func (a *Accessor) ClearExceptionThrown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exceptionThrown = false
}

// CallStack returns a snapshot of the current call stack, outermost first.
func (a *Accessor) CallStack() []CallInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]CallInfo, len(a.callStack))
	copy(out, a.callStack)
	return out
}

// InvertedCallStack returns the call stack innermost (most recent) first,
// the order printStackTrace prints in.
func (a *Accessor) InvertedCallStack() []CallInfo {
	cs := a.CallStack()
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
	return cs
}

// EnterCallerSensitive increments the caller-sensitive nesting counter on
// entry to a native flagged caller-sensitive.
func (a *Accessor) EnterCallerSensitive() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callerSensitiveDepth++
}

// ExitCallerSensitive decrements the counter on return from a
// caller-sensitive native.
func (a *Accessor) ExitCallerSensitive() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.callerSensitiveDepth > 0 {
		a.callerSensitiveDepth--
	}
}

// CallerSensitiveDepth reports the current nesting depth, so
// getCallerClass-style intrinsics can skip past nested caller-sensitive
// frames to the real user-code caller.
func (a *Accessor) CallerSensitiveDepth() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.callerSensitiveDepth
}
