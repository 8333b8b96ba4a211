// Package vmvalue is the tagged value model (C5): a closed sum replacing
// the hand-rolled variant type of the source this spec was distilled from.
// Booleans, bytes, shorts, and chars all collapse to the Int variant in the
// stack machine; their declared descriptor travels with the field slot or
// array that holds them, not with the value itself.
package vmvalue

// Value is the closed sum of everything that can sit in a local slot, on
// the operand stack, in a field slot, or in an array element. Only the
// types declared in this file implement it; the unexported method seals
// the set the way an iota-tagged union would in a language with real sum
// types.
type Value interface {
	isValue()
}

// Int carries byte/boolean/short/char/int values uniformly, per the value
// model's "integral-32" variant.
type Int int32

func (Int) isValue() {}

// Long is a "big computational" value: it occupies two stack/local slots.
type Long int64

func (Long) isValue() {}

// Float is a 32-bit floating value.
type Float float32

func (Float) isValue() {}

// Double is a "big computational" 64-bit floating value.
type Double float64

func (Double) isValue() {}

// Ref is a reference-typed value: a class instance, an array, or null
// (Obj == nil). The concrete payload is deliberately untyped (any) rather
// than imported from the class-model package, so that vmvalue has no
// dependency on vmclass; vmclass constructs Ref values around its own
// *Instance and *Array types.
type Ref struct {
	Obj any
}

func (Ref) isValue() {}

// ReturnAddr is the pseudo-value jsr pushes and ret consumes (Open
// Question (c): implemented minimally, with no verifier confirming the
// slot is only ever used the way jsr/ret require).
type ReturnAddr int

func (ReturnAddr) isValue() {}

// IsNull reports whether v is the null reference.
func IsNull(v Value) bool {
	r, ok := v.(Ref)
	return ok && r.Obj == nil
}

// Null is the canonical null reference value.
var Null Value = Ref{Obj: nil}

// IsBigComputational reports whether v occupies two stack/local slots.
func IsBigComputational(v Value) bool {
	switch v.(type) {
	case Long, Double:
		return true
	default:
		return false
	}
}

// IsWideDescriptor reports whether a descriptor's leading character denotes
// a "big computational" (long/double) type, for use before a value exists.
func IsWideDescriptor(desc byte) bool {
	return desc == 'J' || desc == 'D'
}

// DefaultFor returns the zero value for a field/array/local of the given
// descriptor (leading character of a type descriptor, or 'L'/'[' for any
// reference type), per the "defaults per type" requirement in C5 and the
// field-access-contract default-and-memoize rule in C7.
func DefaultFor(descriptor string) Value {
	if len(descriptor) == 0 {
		return Null
	}
	switch descriptor[0] {
	case 'J':
		return Long(0)
	case 'F':
		return Float(0)
	case 'D':
		return Double(0)
	case 'L', '[':
		return Null
	default: // B Z S C I
		return Int(0)
	}
}
