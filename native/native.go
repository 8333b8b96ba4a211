// Package native is the native-method registry (C14): a map from
// (class-name, method-name, descriptor) to a host-provided callback,
// plus the bundled native implementations bridging bytecode to Go for the
// handful of java.lang/java.util/java.io members this VM ships (§12).
//
// Kept as one package with one file per bridged class, mirroring the
// teacher's own gfunction package layout rather than the finer-grained
// native/javalang, native/javautil split sketched early in planning —
// the teacher never splits natives across packages by sub-package, only
// by file, and there is no dependency reason to diverge here.
package native

import (
	"fmt"

	"classvm/vmclass"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// GErrBlk is how a GFunction signals that a throwable should be raised
// instead of returning a value, matching the teacher's getGErrBlk/GErrBlk
// convention: native functions return `interface{}`, and the interpreter
// type-switches the result to tell "threw" from "returned".
type GErrBlk struct {
	ExceptionClass string
	ErrMsg         string
}

// NewErrBlk builds a GErrBlk for a native function to return.
func NewErrBlk(exceptionClass, msg string) *GErrBlk {
	return &GErrBlk{ExceptionClass: exceptionClass, ErrMsg: msg}
}

// GFunction is a native method body. params[0] is the receiver for
// instance methods (wrapped as vmvalue.Ref{Obj: *vmclass.Instance}), absent
// for static methods. The return value is one of: nil (void return), a
// vmvalue.Value (normal return), or a *GErrBlk (the method wants to
// throw).
type GFunction func(params []vmvalue.Value, th *vmthread.Accessor) interface{}

// GMeth is one registered native method.
type GMeth struct {
	ParamSlots int // operand-stack slots consumed by the parameter list (not counting receiver)
	GFunction  GFunction
}

var registry = make(map[string]GMeth)

func key(className, methodName, descriptor string) string {
	return className + "." + methodName + descriptor
}

// Register is an idempotent upsert keyed by (class, name, descriptor), per
// §4.6.
func Register(className, methodName, descriptor string, g GMeth) {
	registry[key(className, methodName, descriptor)] = g
}

// Lookup finds a registered native by its triple.
func Lookup(className, methodName, descriptor string) (GMeth, bool) {
	g, ok := registry[key(className, methodName, descriptor)]
	return g, ok
}

// RunMethod lets a native function invoke a method on a managed object
// through ordinary dispatch (e.g. Thread.start0 calling the thread's
// run()V). Set once by the interpreter at boot, before any bytecode runs;
// if it is still nil when start0 runs, the started thread runs nothing.
var RunMethod func(instance *vmclass.Instance, methodName, desc string, args []vmvalue.Value) (vmvalue.Value, error)

// justReturn is the native body for registerNatives()-style no-ops the
// teacher's javaLangThread.go registers.
func justReturn(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
	return nil
}

// trapFunction marks a descriptor overload this VM does not yet bridge,
// matching the teacher's trapFunction/trapDeprecated convention for
// unimplemented natives: it throws UnsupportedOperationException rather
// than silently returning a wrong-shaped value.
func trapFunction(methodRef string) GFunction {
	return func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		return NewErrBlk("java/lang/UnsupportedOperationException",
			fmt.Sprintf("%s is not implemented", methodRef))
	}
}

// LoadAll registers every bundled native. Call once at VM boot after
// classregistry.Bootstrap.
func LoadAll() {
	loadLangObject()
	loadLangString()
	loadLangStringBuilder()
	loadLangThread()
	loadLangThrowable()
	loadLangSystem()
	loadUtilHashMap()
	loadIoInputStreamReader()
	loadUnsafe()
}
