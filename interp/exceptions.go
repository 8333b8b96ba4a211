package interp

import (
	"container/list"
	"fmt"
	"sync"

	"classvm/classfile"
	"classvm/frame"
	"classvm/vmclass"
	"classvm/vmlog"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// thrownTable is the single-slot thrown-record policy (Open Question (b)):
// at most one pending, unacknowledged throw per thread. A throw racing in
// before the previous one was acknowledged is dropped, not queued, and
// logged at WARNING — matching the "no retained exception queue per
// thread" scope decision.
var (
	thrownMu    sync.Mutex
	thrownTable = make(map[int64]*vmclass.Instance)
)

func setThrown(threadID int64, inst *vmclass.Instance) {
	thrownMu.Lock()
	defer thrownMu.Unlock()
	if _, exists := thrownTable[threadID]; exists {
		vmlog.Warning("second exception on thread %d dropped before the first was acknowledged: %s", threadID, inst.ClassName())
		return
	}
	thrownTable[threadID] = inst
}

func clearThrown(threadID int64) {
	thrownMu.Lock()
	defer thrownMu.Unlock()
	delete(thrownTable, threadID)
}

// newThrowable allocates a throwable instance of className, resolving and
// linking it through the registry if this is the first use, then running
// its (String) constructor logic inline (message field + stack-trace
// snapshot) the way native/lang_throwable.go's initThrowable does, without
// requiring a bytecode <init> call for built-in stand-in throwables.
func (vm *VM) newThrowable(acc *vmthread.Accessor, className, msg string) (*vmclass.Instance, error) {
	ct, err := vm.Registry.Resolve(className)
	if err != nil {
		return nil, err
	}
	if err := ct.EnsureLinked(vm.Registry); err != nil {
		return nil, err
	}
	inst := vmclass.NewInstance(ct)
	inst.Get("message")
	inst.Set("message", vmvalue.Ref{Obj: vmclass.NewJavaString(vm.Registry.StringClass, msg)})
	var frames []vmthread.CallInfo
	if acc != nil {
		frames = acc.InvertedCallStack()
	}
	inst.Get("stackTrace")
	inst.Set("stackTrace", vmvalue.Ref{Obj: frames})
	return inst, nil
}

// throwNew builds a throwable of className and raises it on acc/fs — the
// interpreter's own entry point for runtime-semantic faults (NullPointer,
// ArrayIndexOutOfBounds, ...) that have no bytecode `new`+`athrow` of their
// own to execute.
func (vm *VM) throwNew(acc *vmthread.Accessor, fs *list.List, className, msg string) error {
	inst, err := vm.newThrowable(acc, className, msg)
	if err != nil {
		return err
	}
	return vm.raise(acc, fs, inst)
}

// raise implements cross-frame exception propagation (C13, §4.4): starting
// at the current frame's PC, scan each frame's active exception-table
// entries in table order; the first whose catch type (0 = catch-all, or a
// resolved class inst.ClassName() can cast to) matches wins. A match
// clears that frame's operand stack, pushes the thrown reference, and
// relocates PC to the handler — execution resumes there the next time the
// interpreter loop reads that frame. No match anywhere unwinds every frame
// and returns an error describing the uncaught exception.
func (vm *VM) raise(acc *vmthread.Accessor, fs *list.List, inst *vmclass.Instance) error {
	setThrown(acc.ID, inst)
	acc.NotifyExceptionThrown()
	defer func() {
		clearThrown(acc.ID)
		acc.ClearExceptionThrown()
	}()

	for {
		f := frame.Current(fs)
		if f == nil {
			return fmt.Errorf("uncaught exception: %s: %s", inst.ClassName(), messageOf(inst))
		}
		if handler, ok := vm.findHandler(f, inst); ok {
			f.Stack = f.Stack[:0]
			f.Push(vmvalue.Ref{Obj: inst})
			f.PC = int(handler.HandlerPC)
			return nil
		}
		frame.Pop(fs)
		acc.PopCall()
	}
}

func messageOf(inst *vmclass.Instance) string {
	v := inst.Get("message")
	if r, ok := v.(vmvalue.Ref); ok {
		if m, ok := r.Obj.(*vmclass.Instance); ok {
			s, _ := vmclass.GoString(m)
			return s
		}
	}
	return ""
}

// findHandler looks for an exception-table entry in f active at f.PC whose
// catch type matches inst's runtime class.
func (vm *VM) findHandler(f *frame.Frame, inst *vmclass.Instance) (classfile.ExceptionTableEntry, bool) {
	for _, h := range f.ExceptionHandlersAt(f.PC) {
		if h.CatchType == 0 {
			return h, true
		}
		name, err := f.CP.ClassNameAt(h.CatchType)
		if err != nil {
			continue
		}
		catchCT, err := vm.Registry.Resolve(name)
		if err != nil {
			continue
		}
		if inst.Klass.CanCast(catchCT.Name) {
			return h, true
		}
	}
	return classfile.ExceptionTableEntry{}, false
}
