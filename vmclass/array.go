package vmclass

import (
	"strings"
	"sync"

	"classvm/monitor"
	"classvm/vmvalue"
)

// Array is the runtime array representation (C5): an element type
// (primitive descriptor or class type name), declared length, backing
// value slice, and an inner monitor used solely for monitorenter/exit and
// getClass() on the array itself.
type Array struct {
	ElemDesc string // component descriptor: "I", "Ljava/lang/Object;", "[I", ...
	Elements []vmvalue.Value

	mu  sync.Mutex
	Mon *monitor.Monitor
}

// Make1Dim allocates a single-dimension array of length n, every slot
// defaulted per the component descriptor. Negative n is the caller's
// responsibility to reject before calling (newarray/anewarray throw
// NegativeArraySizeException themselves).
func Make1Dim(elemDesc string, n int) *Array {
	a := &Array{ElemDesc: elemDesc, Elements: make([]vmvalue.Value, n), Mon: monitor.New()}
	def := vmvalue.DefaultFor(elemDesc)
	for i := range a.Elements {
		a.Elements[i] = def
	}
	return a
}

// MakeNDim allocates a multidimensional array from a slice of per-dimension
// lengths, per multianewarray (§4.3): dims[0] is the outermost length. A
// zero length leaves every dimension nested below it unallocated, so
// `new int[3][0][2]` yields three empty middle arrays. Negative lengths are
// not accepted; the caller rejects them before calling.
func MakeNDim(componentDesc string, dims []int) *Array {
	if len(dims) == 0 {
		return nil
	}
	outer := Make1Dim(strings.Repeat("[", len(dims)-1)+componentDesc, dims[0])
	if len(dims) == 1 {
		// innermost: elements are of componentDesc itself
		outer.ElemDesc = componentDesc
		def := vmvalue.DefaultFor(componentDesc)
		for i := range outer.Elements {
			outer.Elements[i] = def
		}
		return outer
	}
	if dims[0] <= 0 {
		// a zero (or negative, already rejected by caller) outer length
		// means nested dimensions are never allocated, per the boundary
		// case in spec.md §8.
		return outer
	}
	for i := range outer.Elements {
		nested := MakeNDim(componentDesc, dims[1:])
		outer.Elements[i] = vmvalue.Ref{Obj: nested}
	}
	return outer
}

// Len returns the array's length.
func (a *Array) Len() int { return len(a.Elements) }

// Load returns element i, or false if i is out of bounds (the interpreter
// throws ArrayIndexOutOfBoundsException itself so it can include the bad
// index in the message).
func (a *Array) Load(i int) (vmvalue.Value, bool) {
	if i < 0 || i >= len(a.Elements) {
		return nil, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Elements[i], true
}

// Store writes element i, or returns false if i is out of bounds. It does
// not check v against the component type; callers use StoreCheck for that.
func (a *Array) Store(i int, v vmvalue.Value) bool {
	if i < 0 || i >= len(a.Elements) {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Elements[i] = v
	return true
}

// StoreCheck reports whether v may be stored into this array's component
// type, per the Array invariant. Reference component checking needs a
// CanCast-capable type, supplied by the caller via canCast to avoid this
// package depending on the interpreter's dispatch logic.
func (a *Array) StoreCheck(v vmvalue.Value, canCast func(className string) bool) bool {
	switch a.ElemDesc[0] {
	case 'L', '[':
		if vmvalue.IsNull(v) {
			return true
		}
		r, ok := v.(vmvalue.Ref)
		if !ok {
			return false
		}
		switch obj := r.Obj.(type) {
		case *Instance:
			if a.ElemDesc == "Ljava/lang/Object;" {
				return true
			}
			return canCast(obj.ClassName())
		case *Array:
			return true // array-of-array assignability kept permissive
		}
		return false
	default:
		switch v.(type) {
		case vmvalue.Int, vmvalue.Long, vmvalue.Float, vmvalue.Double:
			return true
		}
		return false
	}
}
