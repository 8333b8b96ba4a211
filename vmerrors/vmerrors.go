// Package vmerrors collects the error taxonomy shared by the class-file
// loader and the interpreter: malformed-input errors raised while parsing a
// class blob, and the catalogue of built-in throwable class names the
// interpreter constructs on the fly for linkage and runtime-semantic faults.
package vmerrors

import (
	"fmt"
	"runtime"
)

// ClassFormatErr is returned by the classfile loader whenever the magic
// number, a length, or a cross-reference in the constant pool is invalid.
// It is category 1 in the error-handling design: fatal to the load, no
// class is registered.
type ClassFormatErr struct {
	msg string
	loc string
}

func (e *ClassFormatErr) Error() string {
	return fmt.Sprintf("class format error: %s (%s)", e.msg, e.loc)
}

// ClassFormatError builds a ClassFormatErr, stamping the file:line of its
// caller the way the teacher's cfe()/CFE() helper does, so a loader failure
// can be traced back to the exact check that tripped.
func ClassFormatError(msg string) error {
	loc := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		loc = fmt.Sprintf("%s:%d", file, line)
	}
	return &ClassFormatErr{msg: msg, loc: loc}
}

// InternalErr marks category-5 faults: an interpreter invariant was
// violated. These never participate in exception-table matching; they
// unwind straight to the host.
type InternalErr struct {
	msg string
}

func (e *InternalErr) Error() string {
	return "internal error: " + e.msg
}

// Internal wraps a category-5 "internal inconsistency" error.
func Internal(msg string) error {
	return &InternalErr{msg: msg}
}

// IsInternal reports whether err is a non-catchable internal error. The
// interpreter returns such errors as Go errors straight to the host, so they
// never reach its exception-table scan.
func IsInternal(err error) bool {
	_, ok := err.(*InternalErr)
	return ok
}

// Built-in throwable class names the interpreter or a native function may
// need to construct without the host having pre-built an instance. This is
// a closed catalogue, not a general registry: adding a new built-in
// throwable means adding a line here.
const (
	ArithmeticException           = "java/lang/ArithmeticException"
	NullPointerException          = "java/lang/NullPointerException"
	ClassNotFoundException        = "java/lang/ClassNotFoundException"
	ClassCastException            = "java/lang/ClassCastException"
	NegativeArraySizeException    = "java/lang/NegativeArraySizeException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	ArrayStoreException           = "java/lang/ArrayStoreException"
	IllegalArgumentException      = "java/lang/IllegalArgumentException"
	IllegalMonitorStateException  = "java/lang/IllegalMonitorStateException"
	IllegalStateException         = "java/lang/IllegalStateException"
	NoSuchMethodError             = "java/lang/NoSuchMethodError"
	NoSuchFieldError              = "java/lang/NoSuchFieldError"
	LinkageError                  = "java/lang/LinkageError"
	BootstrapMethodError          = "java/lang/BootstrapMethodError"
	AbstractMethodError           = "java/lang/AbstractMethodError"
	StackOverflowError            = "java/lang/StackOverflowError"
	UnsupportedOperationException = "java/lang/UnsupportedOperationException"
	IOException                   = "java/io/IOException"
)
