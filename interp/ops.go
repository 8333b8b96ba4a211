package interp

import (
	"container/list"
	"encoding/binary"
	"math"

	"classvm/frame"
	"classvm/monitor"
	"classvm/vmclass"
	"classvm/vmerrors"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// binaryArith pops the two operands for an arithmetic opcode (left pushed
// first) and pushes the result, wiring the per-type helpers in arith.go.
// Integer/long division and remainder are handled here rather than in
// arith.go since they need the throwing ArithmeticException on a zero
// divisor, which plain arithmetic doesn't express.
func (vm *VM) binaryArith(acc *vmthread.Accessor, fs *list.List, f *frame.Frame, op byte) (bool, error) {
	b, err := f.Pop()
	if err != nil {
		return false, err
	}
	a, err := f.Pop()
	if err != nil {
		return false, err
	}

	switch op {
	case opIadd, opIsub, opImul, opIdiv, opIrem:
		an, _ := a.(vmvalue.Int)
		bn, _ := b.(vmvalue.Int)
		switch op {
		case opIadd:
			f.Push(iadd(an, bn))
		case opIsub:
			f.Push(isub(an, bn))
		case opImul:
			f.Push(imul(an, bn))
		case opIdiv:
			if bn == 0 {
				return true, vm.throwNew(acc, fs, vmerrors.ArithmeticException, "/ by zero")
			}
			f.Push(an / bn)
		case opIrem:
			if bn == 0 {
				return true, vm.throwNew(acc, fs, vmerrors.ArithmeticException, "/ by zero")
			}
			f.Push(an % bn)
		}
	case opLadd, opLsub, opLmul, opLdiv, opLrem:
		an, _ := a.(vmvalue.Long)
		bn, _ := b.(vmvalue.Long)
		switch op {
		case opLadd:
			f.Push(ladd(an, bn))
		case opLsub:
			f.Push(lsub(an, bn))
		case opLmul:
			f.Push(lmul(an, bn))
		case opLdiv:
			if bn == 0 {
				return true, vm.throwNew(acc, fs, vmerrors.ArithmeticException, "/ by zero")
			}
			f.Push(an / bn)
		case opLrem:
			if bn == 0 {
				return true, vm.throwNew(acc, fs, vmerrors.ArithmeticException, "/ by zero")
			}
			f.Push(an % bn)
		}
	case opFadd, opFsub, opFmul, opFdiv, opFrem:
		an, _ := a.(vmvalue.Float)
		bn, _ := b.(vmvalue.Float)
		switch op {
		case opFadd:
			f.Push(fadd(an, bn))
		case opFsub:
			f.Push(fsub(an, bn))
		case opFmul:
			f.Push(fmul(an, bn))
		case opFdiv:
			f.Push(fdiv(an, bn))
		case opFrem:
			f.Push(vmvalue.Float(float32mod(float32(an), float32(bn))))
		}
	case opDadd, opDsub, opDmul, opDdiv, opDrem:
		an, _ := a.(vmvalue.Double)
		bn, _ := b.(vmvalue.Double)
		switch op {
		case opDadd:
			f.Push(dadd(an, bn))
		case opDsub:
			f.Push(dsub(an, bn))
		case opDmul:
			f.Push(dmul(an, bn))
		case opDdiv:
			f.Push(ddiv(an, bn))
		case opDrem:
			f.Push(vmvalue.Double(float64mod(float64(an), float64(bn))))
		}
	}
	return false, nil
}

func float32mod(a, b float32) float32 {
	return float32(float64mod(float64(a), float64(b)))
}

func float64mod(a, b float64) float64 {
	if b == 0 {
		return math.NaN() // matching IEEE 754 remainder-by-zero
	}
	q := int64(a / b)
	return a - float64(q)*b
}

func (vm *VM) unaryNeg(f *frame.Frame, op byte) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	switch op {
	case opIneg:
		n, _ := v.(vmvalue.Int)
		f.Push(ineg(n))
	case opLneg:
		n, _ := v.(vmvalue.Long)
		f.Push(lneg(n))
	case opFneg:
		n, _ := v.(vmvalue.Float)
		f.Push(fneg(n))
	case opDneg:
		n, _ := v.(vmvalue.Double)
		f.Push(dneg(n))
	}
	return nil
}

func (vm *VM) bitwise(f *frame.Frame, op byte) error {
	b, err := f.Pop()
	if err != nil {
		return err
	}
	a, err := f.Pop()
	if err != nil {
		return err
	}
	switch op {
	case opIshl, opIshr, opIushr:
		an, _ := a.(vmvalue.Int)
		bn, _ := b.(vmvalue.Int)
		shift := uint32(bn) & 0x1F
		switch op {
		case opIshl:
			f.Push(vmvalue.Int(int32(an) << shift))
		case opIshr:
			f.Push(vmvalue.Int(int32(an) >> shift))
		case opIushr:
			f.Push(vmvalue.Int(int32(uint32(an) >> shift)))
		}
	case opLshl, opLshr, opLushr:
		an, _ := a.(vmvalue.Long)
		bn, _ := b.(vmvalue.Int)
		shift := uint64(bn) & 0x3F
		switch op {
		case opLshl:
			f.Push(vmvalue.Long(int64(an) << shift))
		case opLshr:
			f.Push(vmvalue.Long(int64(an) >> shift))
		case opLushr:
			f.Push(vmvalue.Long(int64(uint64(an) >> shift)))
		}
	case opIand, opIor, opIxor:
		an, _ := a.(vmvalue.Int)
		bn, _ := b.(vmvalue.Int)
		switch op {
		case opIand:
			f.Push(an & bn)
		case opIor:
			f.Push(an | bn)
		case opIxor:
			f.Push(an ^ bn)
		}
	case opLand, opLor, opLxor:
		an, _ := a.(vmvalue.Long)
		bn, _ := b.(vmvalue.Long)
		switch op {
		case opLand:
			f.Push(an & bn)
		case opLor:
			f.Push(an | bn)
		case opLxor:
			f.Push(an ^ bn)
		}
	}
	return nil
}

func (vm *VM) convert(f *frame.Frame, op byte) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	switch op {
	case opI2l:
		n, _ := v.(vmvalue.Int)
		f.Push(vmvalue.Long(n))
	case opI2f:
		n, _ := v.(vmvalue.Int)
		f.Push(vmvalue.Float(n))
	case opI2d:
		n, _ := v.(vmvalue.Int)
		f.Push(vmvalue.Double(n))
	case opL2i:
		n, _ := v.(vmvalue.Long)
		f.Push(vmvalue.Int(int32(n)))
	case opL2f:
		n, _ := v.(vmvalue.Long)
		f.Push(vmvalue.Float(n))
	case opL2d:
		n, _ := v.(vmvalue.Long)
		f.Push(vmvalue.Double(n))
	case opF2i:
		n, _ := v.(vmvalue.Float)
		f.Push(vmvalue.Int(int32(n)))
	case opF2l:
		n, _ := v.(vmvalue.Float)
		f.Push(vmvalue.Long(int64(n)))
	case opF2d:
		n, _ := v.(vmvalue.Float)
		f.Push(vmvalue.Double(n))
	case opD2i:
		n, _ := v.(vmvalue.Double)
		f.Push(vmvalue.Int(int32(n)))
	case opD2l:
		n, _ := v.(vmvalue.Double)
		f.Push(vmvalue.Long(int64(n)))
	case opD2f:
		n, _ := v.(vmvalue.Double)
		f.Push(vmvalue.Float(n))
	case opI2b:
		n, _ := v.(vmvalue.Int)
		f.Push(vmvalue.Int(int8(n)))
	case opI2c:
		n, _ := v.(vmvalue.Int)
		f.Push(vmvalue.Int(uint16(n)))
	case opI2s:
		n, _ := v.(vmvalue.Int)
		f.Push(vmvalue.Int(int16(n)))
	}
	return nil
}

func (vm *VM) compare(f *frame.Frame, op byte) error {
	b, err := f.Pop()
	if err != nil {
		return err
	}
	a, err := f.Pop()
	if err != nil {
		return err
	}
	switch op {
	case opLcmp:
		an, _ := a.(vmvalue.Long)
		bn, _ := b.(vmvalue.Long)
		f.Push(lcmp(an, bn))
	case opFcmpl, opFcmpg:
		an, _ := a.(vmvalue.Float)
		bn, _ := b.(vmvalue.Float)
		nan := int32(1)
		if op == opFcmpl {
			nan = -1
		}
		f.Push(fcmp(an, bn, nan))
	case opDcmpl, opDcmpg:
		an, _ := a.(vmvalue.Double)
		bn, _ := b.(vmvalue.Double)
		nan := int32(1)
		if op == opDcmpl {
			nan = -1
		}
		f.Push(dcmp(an, bn, nan))
	}
	return nil
}

// tableswitch reads the 4-byte-aligned tableswitch operand block and jumps
// per §4's "direct-indexed branch table" semantics: a key outside
// [low, high] takes the default offset.
func (vm *VM) tableswitch(f *frame.Frame) {
	key, _ := mustPop(f).(vmvalue.Int)
	base := f.PC
	p := align4(f.PC + 1)
	defaultOff := int32(binary.BigEndian.Uint32(f.Code.Code[p:]))
	low := int32(binary.BigEndian.Uint32(f.Code.Code[p+4:]))
	high := int32(binary.BigEndian.Uint32(f.Code.Code[p+8:]))
	if int32(key) < low || int32(key) > high {
		f.PC = base + int(defaultOff)
		return
	}
	idx := p + 12 + int(int32(key)-low)*4
	off := int32(binary.BigEndian.Uint32(f.Code.Code[idx:]))
	f.PC = base + int(off)
}

// lookupswitch reads the 4-byte-aligned lookupswitch operand block (a
// sorted match-offset pair table) and jumps to the matching pair's offset,
// or the default offset if key matches none.
func (vm *VM) lookupswitch(f *frame.Frame) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	key, _ := v.(vmvalue.Int)
	base := f.PC
	p := align4(f.PC + 1)
	defaultOff := int32(binary.BigEndian.Uint32(f.Code.Code[p:]))
	npairs := int32(binary.BigEndian.Uint32(f.Code.Code[p+4:]))
	for i := int32(0); i < npairs; i++ {
		off := p + 8 + int(i)*8
		match := int32(binary.BigEndian.Uint32(f.Code.Code[off:]))
		if match == int32(key) {
			jumpOff := int32(binary.BigEndian.Uint32(f.Code.Code[off+4:]))
			f.PC = base + int(jumpOff)
			return nil
		}
	}
	f.PC = base + int(defaultOff)
	return nil
}

func align4(pc int) int {
	rem := pc % 4
	if rem == 0 {
		return pc
	}
	return pc + (4 - rem)
}

// mustPop is a convenience for the switch operators, which always execute
// against a non-empty stack in well-formed bytecode; on a genuinely empty
// stack it returns null instead of reporting an error.
func mustPop(f *frame.Frame) vmvalue.Value {
	v, err := f.Pop()
	if err != nil {
		return vmvalue.Null
	}
	return v
}

func (vm *VM) staticField(acc *vmthread.Accessor, fs *list.List, f *frame.Frame, op byte) (bool, error) {
	idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
	className, name, _, err := f.CP.RefAt(idx)
	if err != nil {
		return false, err
	}
	ct, err := vm.Registry.Resolve(className)
	if err != nil {
		return false, err
	}
	if err := ct.EnsureStaticInit(func(c *vmclass.ClassType) error { return vm.runClinit(acc, c) }); err != nil {
		return false, err
	}
	if op == opGetstatic {
		v, ok := ct.StaticGet(name)
		if !ok {
			return true, vm.throwNew(acc, fs, vmerrors.NoSuchFieldError, className+"."+name)
		}
		f.Push(v)
		return false, nil
	}
	v, err := f.Pop()
	if err != nil {
		return false, err
	}
	if !ct.StaticSet(name, v) {
		return true, vm.throwNew(acc, fs, vmerrors.NoSuchFieldError, className+"."+name)
	}
	return false, nil
}

func (vm *VM) instanceField(acc *vmthread.Accessor, fs *list.List, f *frame.Frame, op byte) (bool, error) {
	idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
	_, name, _, err := f.CP.RefAt(idx)
	if err != nil {
		return false, err
	}

	if op == opGetfield {
		objV, err := f.Pop()
		if err != nil {
			return false, err
		}
		inst, thrown, err := vm.instanceOf(acc, fs, objV)
		if err != nil || thrown {
			return true, err
		}
		f.Push(inst.Get(name))
		return false, nil
	}

	v, err := f.Pop()
	if err != nil {
		return false, err
	}
	objV, err := f.Pop()
	if err != nil {
		return false, err
	}
	inst, thrown, err := vm.instanceOf(acc, fs, objV)
	if err != nil || thrown {
		return true, err
	}
	inst.Set(name, v)
	return false, nil
}

// instanceOf extracts the *vmclass.Instance from a popped reference value,
// throwing NullPointerException on null. thrown reports whether that
// happened (caught somewhere, or not); the caller must stop using the
// frame it was executing either way once thrown is true.
func (vm *VM) instanceOf(acc *vmthread.Accessor, fs *list.List, v vmvalue.Value) (inst *vmclass.Instance, thrown bool, err error) {
	if vmvalue.IsNull(v) {
		err = vm.throwNew(acc, fs, vmerrors.NullPointerException, "field access on null reference")
		return nil, true, err
	}
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return nil, false, vmerrors.Internal("expected an object reference")
	}
	inst, ok = r.Obj.(*vmclass.Instance)
	if !ok {
		return nil, false, vmerrors.Internal("expected a class instance reference")
	}
	return inst, false, nil
}

// invokeOpcode decodes the invoke* opcode's operand (invokeinterface
// carries two extra bytes: an argument count and a reserved zero byte) and
// dispatches through invoke. It advances f.PC itself before calling invoke,
// since invoke pushes a new frame rather than returning control here.
func (vm *VM) invokeOpcode(acc *vmthread.Accessor, fs *list.List, f *frame.Frame, op byte) error {
	idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
	switch op {
	case opInvokevirtual, opInvokespecial, opInvokestatic:
		f.PC += 3
	case opInvokeinterface:
		f.PC += 5
	}

	className, name, desc, err := f.CP.RefAt(idx)
	if err != nil {
		return err
	}

	var kind dispatchKind
	switch op {
	case opInvokevirtual:
		kind = dispatchVirtual
	case opInvokespecial:
		kind = dispatchSpecial
	case opInvokestatic:
		kind = dispatchStatic
	case opInvokeinterface:
		kind = dispatchInterface
	}
	return vm.invoke(acc, fs, f, kind, className, name, desc)
}

// multianewarray reads the class reference and dimension count operands,
// pops that many lengths off the stack (outermost dimension pushed first,
// so it is popped last), and builds the nested array.
func (vm *VM) multianewarray(acc *vmthread.Accessor, fs *list.List, f *frame.Frame) (bool, error) {
	idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
	dimCount := int(f.Code.Code[f.PC+3])
	f.PC += 4

	name, err := f.CP.ClassNameAt(idx)
	if err != nil {
		return false, err
	}
	componentDesc := name
	if len(name) > 0 && name[0] != '[' {
		componentDesc = "L" + name + ";"
	}
	// strip the dimCount leading '[' markers already folded into the
	// class-ref descriptor to get the innermost element descriptor.
	for i := 0; i < dimCount && len(componentDesc) > 0 && componentDesc[0] == '['; i++ {
		componentDesc = componentDesc[1:]
	}

	dims := make([]int, dimCount)
	for i := dimCount - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return false, err
		}
		n, _ := v.(vmvalue.Int)
		if n < 0 {
			return true, vm.throwNew(acc, fs, vmerrors.NegativeArraySizeException, "negative array size")
		}
		dims[i] = int(n)
	}

	arr := vmclass.MakeNDim(componentDesc, dims)
	f.Push(vmvalue.Ref{Obj: arr})
	return false, nil
}

func (vm *VM) checkcast(acc *vmthread.Accessor, fs *list.List, f *frame.Frame, idx uint16) (bool, error) {
	v, err := f.Peek()
	if err != nil {
		return false, err
	}
	if vmvalue.IsNull(v) {
		return false, nil
	}
	name, err := f.CP.ClassNameAt(idx)
	if err != nil {
		return false, err
	}
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return false, vmerrors.Internal("checkcast on a non-reference value")
	}
	var actual string
	switch obj := r.Obj.(type) {
	case *vmclass.Instance:
		actual = obj.ClassName()
	case *vmclass.Array:
		return false, nil // array-to-array casts kept permissive, matching StoreCheck
	default:
		return false, vmerrors.Internal("checkcast on an unrecognized reference payload")
	}
	target, err := vm.Registry.Resolve(name)
	if err != nil {
		return false, err
	}
	actualCT, err := vm.Registry.Resolve(actual)
	if err != nil {
		return false, err
	}
	if !actualCT.CanCast(target.Name) {
		return true, vm.throwNew(acc, fs, vmerrors.ClassCastException, actual+" cannot be cast to "+name)
	}
	return false, nil
}

func (vm *VM) instanceofOp(f *frame.Frame, idx uint16) error {
	v, err := f.Pop()
	if err != nil {
		return err
	}
	if vmvalue.IsNull(v) {
		f.Push(vmvalue.Int(0))
		return nil
	}
	name, err := f.CP.ClassNameAt(idx)
	if err != nil {
		return err
	}
	r, ok := v.(vmvalue.Ref)
	if !ok {
		f.Push(vmvalue.Int(0))
		return nil
	}
	inst, ok := r.Obj.(*vmclass.Instance)
	if !ok {
		f.Push(vmvalue.Int(0))
		return nil
	}
	target, err := vm.Registry.Resolve(name)
	if err != nil {
		return err
	}
	if inst.Klass.CanCast(target.Name) {
		f.Push(vmvalue.Int(1))
	} else {
		f.Push(vmvalue.Int(0))
	}
	return nil
}

// monitorOp implements monitorenter/monitorexit over either a class
// instance's or an array's embedded monitor.
func (vm *VM) monitorOp(acc *vmthread.Accessor, fs *list.List, v vmvalue.Value, enter bool) (bool, error) {
	if vmvalue.IsNull(v) {
		return true, vm.throwNew(acc, fs, vmerrors.NullPointerException, "monitor operation on null reference")
	}
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return false, vmerrors.Internal("monitor operation on a non-reference value")
	}
	var mon *monitor.Monitor
	switch obj := r.Obj.(type) {
	case *vmclass.Instance:
		mon = obj.Mon
	case *vmclass.Array:
		mon = obj.Mon
	default:
		return false, vmerrors.Internal("monitor operation on an unrecognized reference payload")
	}
	if enter {
		mon.Enter(acc.ID)
		return false, nil
	}
	if !mon.Exit(acc.ID) {
		return true, vm.throwNew(acc, fs, vmerrors.IllegalMonitorStateException, "current thread does not own this object's monitor")
	}
	return false, nil
}
