package interp

import (
	"container/list"
	"fmt"

	"classvm/classfile"
	"classvm/frame"
	"classvm/native"
	"classvm/vmclass"
	"classvm/vmerrors"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// dispatchKind distinguishes the four invoke* opcodes' resolution rules.
type dispatchKind int

const (
	dispatchStatic dispatchKind = iota
	dispatchSpecial
	dispatchVirtual
	dispatchInterface
)

// invoke resolves and executes one call, whichever of native or bytecode it
// turns out to be. It pops the receiver (if any) and argument values off
// the caller frame's operand stack itself, since the argument count is only
// known once the descriptor is parsed. The operand stack holds exactly one
// entry per parameter regardless of its computational category (unlike a
// callee's Locals array, which gives long/double two slots), so the pop
// loop here is sized by len(params), not by the callee's local-slot count.
func (vm *VM) invoke(acc *vmthread.Accessor, fs *list.List, caller *frame.Frame, kind dispatchKind, refClass, name, desc string) error {
	params := paramDescriptors(desc)

	args := make([]vmvalue.Value, len(params))
	for i := len(params) - 1; i >= 0; i-- {
		v, err := caller.Pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	var receiver vmvalue.Value
	var receiverInst *vmclass.Instance
	hasReceiver := kind != dispatchStatic
	if hasReceiver {
		v, err := caller.Pop()
		if err != nil {
			return err
		}
		receiver = v
	}

	var startCT *vmclass.ClassType
	var err error
	switch kind {
	case dispatchStatic, dispatchSpecial:
		startCT, err = vm.Registry.Resolve(refClass)
		if err != nil {
			return err
		}
	case dispatchVirtual, dispatchInterface:
		if vmvalue.IsNull(receiver) {
			return vm.throwNew(acc, fs, vmerrors.NullPointerException, "invoke on null reference")
		}
		r, ok := receiver.(vmvalue.Ref)
		if !ok {
			return vmerrors.Internal("invoke receiver is not a reference")
		}
		inst, ok := r.Obj.(*vmclass.Instance)
		if !ok {
			return vmerrors.Internal("invoke receiver is not a class instance")
		}
		receiverInst = inst
		startCT = inst.Klass
	}

	if err := startCT.EnsureStaticInit(func(ct *vmclass.ClassType) error {
		return vm.runClinit(acc, ct)
	}); err != nil {
		return err
	}

	owner, mi, ok := startCT.FindMethod(name, desc)
	if !ok {
		// stand-ins have no class file for FindMethod to search; their
		// methods exist only as registered natives.
		for cur := startCT; cur != nil; cur = cur.Super {
			if _, found := native.Lookup(cur.Name, name, desc); found {
				owner, ok = cur, true
				break
			}
		}
	}
	if !ok {
		return vm.throwNew(acc, fs, vmerrors.NoSuchMethodError, refClass+"."+name+desc)
	}

	// invokeinterface dispatching into a default method runs with the
	// receiver's shim for that interface bound as `this`, per spec.md's
	// "interface: same as virtual, but with an interface-shim receiver"
	// rule — invokevirtual never substitutes a shim even when FindMethod's
	// fallback search lands on the same default method.
	if kind == dispatchInterface && receiverInst != nil && owner.CF != nil && owner.CF.IsInterface() {
		if shim := receiverInst.Shim(owner.Name); shim != nil {
			receiver = vmvalue.Ref{Obj: shim}
			receiverInst = shim
		}
	}

	fullArgs := args
	if hasReceiver {
		fullArgs = append([]vmvalue.Value{receiver}, args...)
	}

	if mi == nil || mi.IsNative() || owner.CF == nil {
		return vm.invokeNative(acc, fs, caller, owner.Name, name, desc, fullArgs)
	}

	if mi.Code == nil {
		return vm.throwNew(acc, fs, vmerrors.AbstractMethodError, owner.Name+"."+name+desc)
	}

	callee := frame.New(owner, owner.CF.CP, owner.Name, name, desc, mi.Code)
	placeLocals(callee.Locals, receiver, hasReceiver, params, args)
	if hasReceiver {
		if r, ok := receiver.(vmvalue.Ref); ok {
			callee.This, _ = r.Obj.(*vmclass.Instance)
		}
	}
	frame.Push(fs, callee)
	acc.PushCall(vmthread.CallInfo{ClassName: owner.Name, MethodName: name, MethodDesc: desc})
	return nil
}

// invokeNative calls a bundled native implementation directly — no new
// bytecode frame is pushed, so the result (or thrown error) is applied to
// caller's own operand stack immediately.
func (vm *VM) invokeNative(acc *vmthread.Accessor, fs *list.List, caller *frame.Frame, className, name, desc string, args []vmvalue.Value) error {
	g, ok := native.Lookup(className, name, desc)
	if !ok {
		return vm.throwNew(acc, fs, vmerrors.NoSuchMethodError, className+"."+name+desc)
	}
	acc.PushCall(vmthread.CallInfo{ClassName: className, MethodName: name, MethodDesc: desc})
	ret := g.GFunction(args, acc)
	acc.PopCall()

	switch v := ret.(type) {
	case nil:
		return nil
	case *native.GErrBlk:
		return vm.throwNew(acc, fs, v.ExceptionClass, v.ErrMsg)
	case vmvalue.Value:
		caller.Push(v)
		return nil
	default:
		return vmerrors.Internal(fmt.Sprintf("native %s.%s%s returned an unsupported type %T", className, name, desc, ret))
	}
}

// runClinit executes a resolved class's <clinit>()V by driving it to
// completion on its own frame stack, the callback EnsureStaticInit invokes
// under the static-initializer gate.
func (vm *VM) runClinit(acc *vmthread.Accessor, ct *vmclass.ClassType) error {
	mi, ok := ct.CF.Method("<clinit>", "()V")
	if !ok || mi.Code == nil {
		return nil
	}
	f := frame.New(ct, ct.CF.CP, ct.Name, "<clinit>", "()V", mi.Code)
	childStack := frame.CreateStack()
	frame.Push(childStack, f)
	return vm.runThread(acc, childStack)
}

// resolveClassRef resolves a constant-pool Class entry to a linked
// ClassType, used by new/checkcast/instanceof/anewarray/multianewarray.
func (vm *VM) resolveClassRef(cp classfile.ConstantPool, idx uint16) (*vmclass.ClassType, error) {
	name, err := cp.ClassNameAt(idx)
	if err != nil {
		return nil, err
	}
	ct, err := vm.Registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	if err := ct.EnsureLinked(vm.Registry); err != nil {
		return nil, err
	}
	return ct, nil
}
