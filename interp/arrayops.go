package interp

import (
	"container/list"
	"fmt"

	"classvm/frame"
	"classvm/vmclass"
	"classvm/vmerrors"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// arrayOf extracts the *vmclass.Array from a popped reference value,
// throwing NullPointerException on null and an internal error on a
// non-array reference (a verifier's job in a full JVM; this one trusts
// well-formed bytecode for that distinction). thrown reports whether the
// null check raised — caught somewhere up the frame stack, or not; either
// way the caller must stop executing the frame it was on, since a catch in
// an enclosing frame pops this one off the call stack out from under it.
func (vm *VM) arrayOf(acc *vmthread.Accessor, fs *list.List, v vmvalue.Value) (arr *vmclass.Array, thrown bool, err error) {
	if vmvalue.IsNull(v) {
		err = vm.throwNew(acc, fs, vmerrors.NullPointerException, "array access on null reference")
		return nil, true, err
	}
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return nil, false, vmerrors.Internal("expected an array reference")
	}
	arr, ok = r.Obj.(*vmclass.Array)
	if !ok {
		return nil, false, vmerrors.Internal("expected an array reference")
	}
	return arr, false, nil
}

func (vm *VM) arrayLoad(acc *vmthread.Accessor, fs *list.List, f *frame.Frame) (bool, error) {
	idxV, err := f.Pop()
	if err != nil {
		return false, err
	}
	arrV, err := f.Pop()
	if err != nil {
		return false, err
	}
	arr, thrown, err := vm.arrayOf(acc, fs, arrV)
	if err != nil || thrown {
		return true, err
	}
	idx, _ := idxV.(vmvalue.Int)
	v, ok := arr.Load(int(idx))
	if !ok {
		return true, vm.throwNew(acc, fs, vmerrors.ArrayIndexOutOfBoundsException, fmt.Sprintf("index %d out of bounds for length %d", idx, arr.Len()))
	}
	f.Push(v)
	return false, nil
}

func (vm *VM) arrayStore(acc *vmthread.Accessor, fs *list.List, f *frame.Frame) (bool, error) {
	val, err := f.Pop()
	if err != nil {
		return false, err
	}
	idxV, err := f.Pop()
	if err != nil {
		return false, err
	}
	arrV, err := f.Pop()
	if err != nil {
		return false, err
	}
	arr, thrown, err := vm.arrayOf(acc, fs, arrV)
	if err != nil || thrown {
		return true, err
	}
	idx, _ := idxV.(vmvalue.Int)
	if !arr.StoreCheck(val, vm.canCastResolver(arr.ElemDesc)) {
		return true, vm.throwNew(acc, fs, vmerrors.ArrayStoreException, "incompatible array store")
	}
	if !arr.Store(int(idx), val) {
		return true, vm.throwNew(acc, fs, vmerrors.ArrayIndexOutOfBoundsException, fmt.Sprintf("index %d out of bounds for length %d", idx, arr.Len()))
	}
	return false, nil
}

// canCastResolver builds a StoreCheck-compatible closure for an array whose
// component descriptor is a class type, resolving it once up front.
func (vm *VM) canCastResolver(elemDesc string) func(string) bool {
	if len(elemDesc) == 0 || elemDesc[0] != 'L' {
		return func(string) bool { return true }
	}
	className := elemDesc[1 : len(elemDesc)-1]
	ct, err := vm.Registry.Resolve(className)
	if err != nil {
		return func(string) bool { return false }
	}
	return func(instClassName string) bool {
		target, err := vm.Registry.Resolve(instClassName)
		if err != nil {
			return false
		}
		return target.CanCast(ct.Name)
	}
}
