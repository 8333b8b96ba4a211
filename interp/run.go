package interp

import (
	"container/list"
	"encoding/binary"

	"classvm/frame"
	"classvm/vmclass"
	"classvm/vmerrors"
	"classvm/vmlog"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// runThread drives frames off the front of fs until it empties, per C12's
// "interpreter loop": the frontmost frame is always the one executing, and
// a call pushes a new frame in front of it rather than recursing in Go.
func (vm *VM) runThread(acc *vmthread.Accessor, fs *list.List) error {
	for fs.Len() > 0 {
		if err := vm.runFrame(acc, fs); err != nil {
			return err
		}
	}
	return nil
}

// runFrame executes opcodes from the current (frontmost) frame until either
// a return opcode completes it, an invoke* opcode pushes a callee frame in
// front of it, or an exception unwinds past it — in every one of those
// cases it returns to let runThread re-read whichever frame is now
// frontmost, rather than recursing.
func (vm *VM) runFrame(acc *vmthread.Accessor, fs *list.List) error {
	f := frame.Current(fs)
	if f == nil {
		return nil
	}
	tracing := vm.Config != nil && vm.Config.TraceOn()

	for f.PC < len(f.Code.Code) {
		op := f.Code.Code[f.PC]
		if tracing {
			vmlog.Trace("class=%s method=%s pc=%d op=0x%02X stack=%d", f.ClassName, f.MethodName, f.PC, op, len(f.Stack))
		}

		switch op {
		case opNop:
			f.PC++

		case opAconstNull:
			f.Push(vmvalue.Null)
			f.PC++

		case opIconstM1, opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5:
			f.Push(vmvalue.Int(int32(op) - int32(opIconst0)))
			f.PC++

		case opLconst0, opLconst1:
			f.Push(vmvalue.Long(int64(op) - int64(opLconst0)))
			f.PC++

		case opFconst0, opFconst1, opFconst2:
			f.Push(vmvalue.Float(float32(op) - float32(opFconst0)))
			f.PC++

		case opDconst0, opDconst1:
			f.Push(vmvalue.Double(float64(op) - float64(opDconst0)))
			f.PC++

		case opBipush:
			v := int8(f.Code.Code[f.PC+1])
			f.Push(vmvalue.Int(v))
			f.PC += 2

		case opSipush:
			v := int16(binary.BigEndian.Uint16(f.Code.Code[f.PC+1:]))
			f.Push(vmvalue.Int(v))
			f.PC += 3

		case opLdc:
			idx := uint16(f.Code.Code[f.PC+1])
			if err := vm.ldc(f, idx); err != nil {
				return err
			}
			f.PC += 2

		case opLdcW:
			idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
			if err := vm.ldc(f, idx); err != nil {
				return err
			}
			f.PC += 3

		case opLdc2W:
			idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
			if err := vm.ldc2(f, idx); err != nil {
				return err
			}
			f.PC += 3

		case opIload, opLload, opFload, opDload, opAload:
			idx := int(f.Code.Code[f.PC+1])
			f.Push(f.Locals[idx])
			f.PC += 2

		case opIload0, opIload1, opIload2, opIload3:
			f.Push(f.Locals[int(op-opIload0)])
			f.PC++
		case opLload0, opLload1, opLload2, opLload3:
			f.Push(f.Locals[int(op-opLload0)])
			f.PC++
		case opFload0, opFload1, opFload2, opFload3:
			f.Push(f.Locals[int(op-opFload0)])
			f.PC++
		case opDload0, opDload1, opDload2, opDload3:
			f.Push(f.Locals[int(op-opDload0)])
			f.PC++
		case opAload0, opAload1, opAload2, opAload3:
			f.Push(f.Locals[int(op-opAload0)])
			f.PC++

		case opIaload, opLaload, opFaload, opDaload, opAaload, opBaload, opCaload, opSaload:
			thrown, err := vm.arrayLoad(acc, fs, f)
			if err != nil {
				return err
			}
			if thrown {
				// caught somewhere up the frame stack — maybe this exact
				// frame, maybe an ancestor that popped it out from under
				// this loop. Either way runThread must re-read whichever
				// frame is now frontmost rather than this one continuing.
				return nil
			}
			f.PC++

		case opIstore, opLstore, opFstore, opDstore, opAstore:
			idx := int(f.Code.Code[f.PC+1])
			v, err := f.Pop()
			if err != nil {
				return err
			}
			f.Locals[idx] = v
			f.PC += 2

		case opIstore0, opIstore1, opIstore2, opIstore3:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			f.Locals[int(op-opIstore0)] = v
			f.PC++
		case opLstore0, opLstore1, opLstore2, opLstore3:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			f.Locals[int(op-opLstore0)] = v
			f.PC++
		case opFstore0, opFstore1, opFstore2, opFstore3:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			f.Locals[int(op-opFstore0)] = v
			f.PC++
		case opDstore0, opDstore1, opDstore2, opDstore3:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			f.Locals[int(op-opDstore0)] = v
			f.PC++
		case opAstore0, opAstore1, opAstore2, opAstore3:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			f.Locals[int(op-opAstore0)] = v
			f.PC++

		case opIastore, opLastore, opFastore, opDastore, opAastore, opBastore, opCastore, opSastore:
			thrown, err := vm.arrayStore(acc, fs, f)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.PC++

		case opPop:
			if _, err := f.Pop(); err != nil {
				return err
			}
			f.PC++

		case opPop2:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			if !vmvalue.IsBigComputational(v) {
				if _, err := f.Pop(); err != nil {
					return err
				}
			}
			f.PC++

		case opDup:
			v, err := f.Peek()
			if err != nil {
				return err
			}
			f.Push(v)
			f.PC++

		case opDupX1:
			a, err := f.Pop()
			if err != nil {
				return err
			}
			b, err := f.Pop()
			if err != nil {
				return err
			}
			f.Push(a)
			f.Push(b)
			f.Push(a)
			f.PC++

		case opDupX2:
			a, err := f.Pop()
			if err != nil {
				return err
			}
			b, err := f.Pop()
			if err != nil {
				return err
			}
			c, err := f.Pop()
			if err != nil {
				return err
			}
			f.Push(a)
			f.Push(c)
			f.Push(b)
			f.Push(a)
			f.PC++

		case opDup2:
			a, err := f.Pop()
			if err != nil {
				return err
			}
			if vmvalue.IsBigComputational(a) {
				f.Push(a)
				f.Push(a)
			} else {
				b, err := f.Pop()
				if err != nil {
					return err
				}
				f.Push(b)
				f.Push(a)
				f.Push(b)
				f.Push(a)
			}
			f.PC++

		case opDup2X1:
			a, err := f.Pop()
			if err != nil {
				return err
			}
			b, err := f.Pop()
			if err != nil {
				return err
			}
			if vmvalue.IsBigComputational(a) {
				f.Push(a)
				f.Push(b)
				f.Push(a)
			} else {
				c, err := f.Pop()
				if err != nil {
					return err
				}
				f.Push(b)
				f.Push(a)
				f.Push(c)
				f.Push(b)
				f.Push(a)
			}
			f.PC++

		case opDup2X2:
			a, err := f.Pop()
			if err != nil {
				return err
			}
			b, err := f.Pop()
			if err != nil {
				return err
			}
			if vmvalue.IsBigComputational(a) && vmvalue.IsBigComputational(b) {
				f.Push(a)
				f.Push(b)
				f.Push(a)
			} else {
				c, err := f.Pop()
				if err != nil {
					return err
				}
				f.Push(b)
				f.Push(a)
				f.Push(c)
				f.Push(b)
				f.Push(a)
			}
			f.PC++

		case opSwap:
			a, err := f.Pop()
			if err != nil {
				return err
			}
			b, err := f.Pop()
			if err != nil {
				return err
			}
			f.Push(a)
			f.Push(b)
			f.PC++

		case opIadd, opLadd, opFadd, opDadd, opIsub, opLsub, opFsub, opDsub,
			opImul, opLmul, opFmul, opDmul, opIdiv, opLdiv, opFdiv, opDdiv,
			opIrem, opLrem, opFrem, opDrem:
			thrown, err := vm.binaryArith(acc, fs, f, op)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.PC++

		case opIneg, opLneg, opFneg, opDneg:
			if err := vm.unaryNeg(f, op); err != nil {
				return err
			}
			f.PC++

		case opIshl, opLshl, opIshr, opLshr, opIushr, opLushr, opIand, opLand, opIor, opLor, opIxor, opLxor:
			if err := vm.bitwise(f, op); err != nil {
				return err
			}
			f.PC++

		case opIinc:
			idx := int(f.Code.Code[f.PC+1])
			delta := int8(f.Code.Code[f.PC+2])
			cur, _ := f.Locals[idx].(vmvalue.Int)
			f.Locals[idx] = cur + vmvalue.Int(delta)
			f.PC += 3

		case opI2l, opI2f, opI2d, opL2i, opL2f, opL2d, opF2i, opF2l, opF2d, opD2i, opD2l, opD2f, opI2b, opI2c, opI2s:
			if err := vm.convert(f, op); err != nil {
				return err
			}
			f.PC++

		case opLcmp, opFcmpl, opFcmpg, opDcmpl, opDcmpg:
			if err := vm.compare(f, op); err != nil {
				return err
			}
			f.PC++

		case opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			n, _ := v.(vmvalue.Int)
			if err := vm.branchIf(f, op, int32(n), 0); err != nil {
				return err
			}

		case opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple:
			b, err := f.Pop()
			if err != nil {
				return err
			}
			a, err := f.Pop()
			if err != nil {
				return err
			}
			an, _ := a.(vmvalue.Int)
			bn, _ := b.(vmvalue.Int)
			if err := vm.branchIcmp(f, op, int32(an), int32(bn)); err != nil {
				return err
			}

		case opIfAcmpeq, opIfAcmpne:
			b, err := f.Pop()
			if err != nil {
				return err
			}
			a, err := f.Pop()
			if err != nil {
				return err
			}
			eq := refsEqual(a, b)
			taken := (op == opIfAcmpeq && eq) || (op == opIfAcmpne && !eq)
			vm.jumpOrSkip(f, taken, 3)

		case opIfnull, opIfnonnull:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			isNull := vmvalue.IsNull(v)
			taken := (op == opIfnull && isNull) || (op == opIfnonnull && !isNull)
			vm.jumpOrSkip(f, taken, 3)

		case opGoto:
			off := int16(binary.BigEndian.Uint16(f.Code.Code[f.PC+1:]))
			f.PC += int(off)

		case opGotoW:
			off := int32(binary.BigEndian.Uint32(f.Code.Code[f.PC+1:]))
			f.PC += int(off)

		case opJsr:
			off := int16(binary.BigEndian.Uint16(f.Code.Code[f.PC+1:]))
			f.Push(vmvalue.ReturnAddr(f.PC + 3))
			f.PC += int(off)

		case opJsrW:
			off := int32(binary.BigEndian.Uint32(f.Code.Code[f.PC+1:]))
			f.Push(vmvalue.ReturnAddr(f.PC + 5))
			f.PC += int(off)

		case opRet:
			idx := int(f.Code.Code[f.PC+1])
			ra, _ := f.Locals[idx].(vmvalue.ReturnAddr)
			f.PC = int(ra)

		case opTableswitch:
			vm.tableswitch(f)

		case opLookupswitch:
			if err := vm.lookupswitch(f); err != nil {
				return err
			}

		case opIreturn, opLreturn, opFreturn, opDreturn, opAreturn:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			vm.returnFrom(acc, fs, &v)
			return nil

		case opReturn:
			vm.returnFrom(acc, fs, nil)
			return nil

		case opGetstatic, opPutstatic:
			thrown, err := vm.staticField(acc, fs, f, op)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.PC += 3

		case opGetfield, opPutfield:
			thrown, err := vm.instanceField(acc, fs, f, op)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.PC += 3

		case opInvokevirtual, opInvokespecial, opInvokestatic, opInvokeinterface:
			if err := vm.invokeOpcode(acc, fs, f, op); err != nil {
				return err
			}
			return nil

		case opInvokedynamic:
			return vm.throwNew(acc, fs, vmerrors.BootstrapMethodError, "invokedynamic is not supported")

		case opNew:
			idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
			ct, err := vm.resolveClassRef(f.CP, idx)
			if err != nil {
				return err
			}
			if err := ct.EnsureStaticInit(func(c *vmclass.ClassType) error { return vm.runClinit(acc, c) }); err != nil {
				return err
			}
			f.Push(vmvalue.Ref{Obj: vmclass.NewInstance(ct)})
			f.PC += 3

		case opNewarray:
			atype := f.Code.Code[f.PC+1]
			n, err := f.Pop()
			if err != nil {
				return err
			}
			count, _ := n.(vmvalue.Int)
			if count < 0 {
				return vm.throwNew(acc, fs, vmerrors.NegativeArraySizeException, "negative array size")
			}
			f.Push(vmvalue.Ref{Obj: vmclass.Make1Dim(newarrayDescriptor(atype), int(count))})
			f.PC += 2

		case opAnewarray:
			idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
			ct, err := vm.resolveClassRef(f.CP, idx)
			if err != nil {
				return err
			}
			n, err := f.Pop()
			if err != nil {
				return err
			}
			count, _ := n.(vmvalue.Int)
			if count < 0 {
				return vm.throwNew(acc, fs, vmerrors.NegativeArraySizeException, "negative array size")
			}
			f.Push(vmvalue.Ref{Obj: vmclass.Make1Dim("L"+ct.Name+";", int(count))})
			f.PC += 3

		case opMultianewarray:
			thrown, err := vm.multianewarray(acc, fs, f)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}

		case opArraylength:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			arr, thrown, err := vm.arrayOf(acc, fs, v)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.Push(vmvalue.Int(arr.Len()))
			f.PC++

		case opAthrow:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			if vmvalue.IsNull(v) {
				return vm.throwNew(acc, fs, vmerrors.NullPointerException, "athrow null")
			}
			r, _ := v.(vmvalue.Ref)
			inst, ok := r.Obj.(*vmclass.Instance)
			if !ok {
				return vmerrors.Internal("athrow of a non-throwable value")
			}
			return vm.raise(acc, fs, inst)

		case opCheckcast:
			idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
			thrown, err := vm.checkcast(acc, fs, f, idx)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.PC += 3

		case opInstanceof:
			idx := binary.BigEndian.Uint16(f.Code.Code[f.PC+1:])
			if err := vm.instanceofOp(f, idx); err != nil {
				return err
			}
			f.PC += 3

		case opMonitorenter:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			thrown, err := vm.monitorOp(acc, fs, v, true)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.PC++

		case opMonitorexit:
			v, err := f.Pop()
			if err != nil {
				return err
			}
			thrown, err := vm.monitorOp(acc, fs, v, false)
			if err != nil {
				return err
			}
			if thrown {
				return nil
			}
			f.PC++

		default:
			return vmerrors.Internal("unimplemented or unrecognized opcode")
		}
	}
	return nil
}

func refsEqual(a, b vmvalue.Value) bool {
	ar, aok := a.(vmvalue.Ref)
	br, bok := b.(vmvalue.Ref)
	if !aok || !bok {
		return false
	}
	return ar.Obj == br.Obj
}

// jumpOrSkip advances PC by the branch offset when taken, else past the
// 3-byte if* instruction.
func (vm *VM) jumpOrSkip(f *frame.Frame, taken bool, instrLen int) {
	if taken {
		off := int16(binary.BigEndian.Uint16(f.Code.Code[f.PC+1:]))
		f.PC += int(off)
	} else {
		f.PC += instrLen
	}
}

func (vm *VM) branchIf(f *frame.Frame, op byte, n, _ int32) error {
	var taken bool
	switch op {
	case opIfeq:
		taken = n == 0
	case opIfne:
		taken = n != 0
	case opIflt:
		taken = n < 0
	case opIfge:
		taken = n >= 0
	case opIfgt:
		taken = n > 0
	case opIfle:
		taken = n <= 0
	}
	vm.jumpOrSkip(f, taken, 3)
	return nil
}

func (vm *VM) branchIcmp(f *frame.Frame, op byte, a, b int32) error {
	var taken bool
	switch op {
	case opIfIcmpeq:
		taken = a == b
	case opIfIcmpne:
		taken = a != b
	case opIfIcmplt:
		taken = a < b
	case opIfIcmpge:
		taken = a >= b
	case opIfIcmpgt:
		taken = a > b
	case opIfIcmple:
		taken = a <= b
	}
	vm.jumpOrSkip(f, taken, 3)
	return nil
}

// returnFrom pops the current frame, delivering its return value (if any)
// to the caller frame beneath it, or to the frame's Sink if it has no
// caller (a host driving one method to completion directly).
func (vm *VM) returnFrom(acc *vmthread.Accessor, fs *list.List, retVal *vmvalue.Value) {
	f := frame.Current(fs)
	caller := frame.Caller(fs)
	frame.Pop(fs)
	acc.PopCall()
	if retVal == nil {
		return
	}
	if caller != nil {
		caller.Push(*retVal)
	} else if f.Sink != nil {
		*f.Sink = *retVal
	}
}

func (vm *VM) ldc(f *frame.Frame, idx uint16) error {
	tag, err := f.CP.Tag(idx)
	if err != nil {
		return err
	}
	switch tag {
	case 3: // Integer
		v, err := f.CP.IntegerAt(idx)
		if err != nil {
			return err
		}
		f.Push(vmvalue.Int(v))
	case 4: // Float
		v, err := f.CP.FloatAt(idx)
		if err != nil {
			return err
		}
		f.Push(vmvalue.Float(v))
	case 8: // String
		s, err := f.CP.StringAt(idx)
		if err != nil {
			return err
		}
		f.Push(vmvalue.Ref{Obj: vmclass.Intern(vm.Registry.StringClass, s)})
	case 7: // Class
		name, err := f.CP.ClassNameAt(idx)
		if err != nil {
			return err
		}
		f.Push(vmvalue.Ref{Obj: vmclass.GetReflectType(name)})
	default:
		return vmerrors.Internal("ldc of an unsupported constant pool entry")
	}
	return nil
}

func (vm *VM) ldc2(f *frame.Frame, idx uint16) error {
	tag, err := f.CP.Tag(idx)
	if err != nil {
		return err
	}
	switch tag {
	case 5: // Long
		v, err := f.CP.LongAt(idx)
		if err != nil {
			return err
		}
		f.Push(vmvalue.Long(v))
	case 6: // Double
		v, err := f.CP.DoubleAt(idx)
		if err != nil {
			return err
		}
		f.Push(vmvalue.Double(v))
	default:
		return vmerrors.Internal("ldc2_w of an unsupported constant pool entry")
	}
	return nil
}
