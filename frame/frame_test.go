package frame

import (
	"testing"

	"classvm/classfile"
	"classvm/vmvalue"
)

func TestPushPop(t *testing.T) {
	code := &classfile.CodeAttribute{MaxStack: 4, MaxLocals: 2}
	f := New(nil, nil, "C", "m", "()V", code)
	f.Push(vmvalue.Int(42))
	v, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if v != vmvalue.Int(42) {
		t.Errorf("Pop() = %v, want 42", v)
	}
	if _, err := f.Pop(); err == nil {
		t.Errorf("expected error popping an empty stack")
	}
}

func TestFrameStackOrder(t *testing.T) {
	fs := CreateStack()
	code := &classfile.CodeAttribute{MaxStack: 1, MaxLocals: 1}
	outer := New(nil, nil, "C", "outer", "()V", code)
	Push(fs, outer)
	inner := New(nil, nil, "C", "inner", "()V", code)
	Push(fs, inner)

	if Current(fs) != inner {
		t.Fatalf("Current should be the most recently pushed frame")
	}
	if Caller(fs) != outer {
		t.Fatalf("Caller should be the frame beneath current")
	}
	Pop(fs)
	if Current(fs) != outer {
		t.Fatalf("after Pop, Current should be outer")
	}
}

func TestExceptionHandlersAt(t *testing.T) {
	code := &classfile.CodeAttribute{
		MaxStack: 1, MaxLocals: 1,
		ExceptionTable: []classfile.ExceptionTableEntry{
			{StartPC: 0, EndPC: 10, HandlerPC: 20, CatchType: 0},
			{StartPC: 5, EndPC: 8, HandlerPC: 30, CatchType: 1},
		},
	}
	f := New(nil, nil, "C", "m", "()V", code)
	if got := f.ExceptionHandlersAt(6); len(got) != 2 {
		t.Errorf("at pc=6, want 2 active handlers, got %d", len(got))
	}
	if got := f.ExceptionHandlersAt(9); len(got) != 1 {
		t.Errorf("at pc=9, want 1 active handler, got %d", len(got))
	}
}
