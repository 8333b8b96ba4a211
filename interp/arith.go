package interp

import "classvm/vmvalue"

// iadd and friends implement the arithmetic/logical opcodes' per-type
// bodies. Each accepts the already-popped operands in stack order (left
// pushed first) and returns the result Value, mirroring the teacher's
// generic add/multiply/subtract helpers but over the closed Value sum
// instead of a single generic numeric parameter, since division/remainder
// need a divide-by-zero check arithmetic alone doesn't express.

func iadd(a, b vmvalue.Int) vmvalue.Int { return a + b }
func isub(a, b vmvalue.Int) vmvalue.Int { return a - b }
func imul(a, b vmvalue.Int) vmvalue.Int { return a * b }
func ineg(a vmvalue.Int) vmvalue.Int    { return -a }

func ladd(a, b vmvalue.Long) vmvalue.Long { return a + b }
func lsub(a, b vmvalue.Long) vmvalue.Long { return a - b }
func lmul(a, b vmvalue.Long) vmvalue.Long { return a * b }
func lneg(a vmvalue.Long) vmvalue.Long    { return -a }

func fadd(a, b vmvalue.Float) vmvalue.Float { return a + b }
func fsub(a, b vmvalue.Float) vmvalue.Float { return a - b }
func fmul(a, b vmvalue.Float) vmvalue.Float { return a * b }
func fneg(a vmvalue.Float) vmvalue.Float    { return -a }
func fdiv(a, b vmvalue.Float) vmvalue.Float { return a / b }

func dadd(a, b vmvalue.Double) vmvalue.Double { return a + b }
func dsub(a, b vmvalue.Double) vmvalue.Double { return a - b }
func dmul(a, b vmvalue.Double) vmvalue.Double { return a * b }
func dneg(a vmvalue.Double) vmvalue.Double    { return -a }
func ddiv(a, b vmvalue.Double) vmvalue.Double { return a / b }

// lcmp/fcmp/dcmp implement the three-way comparison opcodes: -1/0/1 per
// the left/right ordering, with the NaN-handling g/l variants for floats
// and doubles (fcmpg/dcmpg push 1 on an unordered comparison, fcmpl/dcmpl
// push -1).
func lcmp(a, b vmvalue.Long) vmvalue.Int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func fcmp(a, b vmvalue.Float, nanResult int32) vmvalue.Int {
	if float32(a) != float32(a) || float32(b) != float32(b) { // either is NaN
		return vmvalue.Int(nanResult)
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func dcmp(a, b vmvalue.Double, nanResult int32) vmvalue.Int {
	if float64(a) != float64(a) || float64(b) != float64(b) {
		return vmvalue.Int(nanResult)
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
