package interp

import (
	"container/list"
	"strings"
	"testing"

	"classvm/classfile"
	"classvm/classregistry"
	"classvm/frame"
	"classvm/native"
	"classvm/vmclass"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// cpBuilder assembles a class file's constant pool one entry at a time,
// the way buildTrivialClass in classregistry's tests does by hand, just
// extended with the ref/name-and-type entries method bodies need.
type cpBuilder struct {
	entries []byte
	count   uint16
}

func (b *cpBuilder) u2(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func (b *cpBuilder) add(raw []byte) uint16 {
	idx := b.count + 1
	b.entries = append(b.entries, raw...)
	b.count++
	return idx
}

func (b *cpBuilder) utf8(s string) uint16 {
	raw := append([]byte{1}, b.u2(uint16(len(s)))...)
	raw = append(raw, s...)
	return b.add(raw)
}

func (b *cpBuilder) class(name string) uint16 {
	ni := b.utf8(name)
	return b.add(append([]byte{7}, b.u2(ni)...))
}

func (b *cpBuilder) nameAndType(name, desc string) uint16 {
	ni := b.utf8(name)
	di := b.utf8(desc)
	raw := append([]byte{12}, b.u2(ni)...)
	raw = append(raw, b.u2(di)...)
	return b.add(raw)
}

func (b *cpBuilder) methodref(class, name, desc string) uint16 {
	ci := b.class(class)
	nt := b.nameAndType(name, desc)
	raw := append([]byte{10}, b.u2(ci)...)
	raw = append(raw, b.u2(nt)...)
	return b.add(raw)
}

// bytes renders the pool section: u2 count (one more than the entry
// count, per the external format's 1-indexed, off-by-one pool size) then
// the entries themselves in the order they were added.
func (b *cpBuilder) bytes() []byte {
	out := b.u2(b.count + 1)
	return append(out, b.entries...)
}

// classBuilder assembles a whole minimal class file: no fields, no
// interfaces, one or more methods each with a Code attribute and no
// nested attributes of their own.
type classBuilder struct {
	cp   cpBuilder
	this string
	sup  string

	methods []byte
	nMeth   uint16
}

func newClassBuilder(this, super string) *classBuilder {
	return &classBuilder{this: this, sup: super}
}

type methodSpec struct {
	name, desc     string
	accessFlags    uint16
	maxStack       uint16
	maxLocals      uint16
	code           []byte
	exceptionTable []classfile.ExceptionTableEntry
}

func u2b(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func u4b(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

func (cb *classBuilder) addMethod(m methodSpec) {
	nameIdx := cb.cp.utf8(m.name)
	descIdx := cb.cp.utf8(m.desc)
	codeNameIdx := cb.cp.utf8("Code")

	var codeAttr []byte
	codeAttr = append(codeAttr, u2b(m.maxStack)...)
	codeAttr = append(codeAttr, u2b(m.maxLocals)...)
	codeAttr = append(codeAttr, u4b(uint32(len(m.code)))...)
	codeAttr = append(codeAttr, m.code...)
	codeAttr = append(codeAttr, u2b(uint16(len(m.exceptionTable)))...)
	for _, e := range m.exceptionTable {
		codeAttr = append(codeAttr, u2b(e.StartPC)...)
		codeAttr = append(codeAttr, u2b(e.EndPC)...)
		codeAttr = append(codeAttr, u2b(e.HandlerPC)...)
		codeAttr = append(codeAttr, u2b(e.CatchType)...)
	}
	codeAttr = append(codeAttr, u2b(0)...) // no nested attributes

	var method []byte
	method = append(method, u2b(m.accessFlags)...)
	method = append(method, u2b(nameIdx)...)
	method = append(method, u2b(descIdx)...)
	method = append(method, u2b(1)...) // one attribute: Code
	method = append(method, u2b(codeNameIdx)...)
	method = append(method, u4b(uint32(len(codeAttr)))...)
	method = append(method, codeAttr...)

	cb.methods = append(cb.methods, method...)
	cb.nMeth++
}

func (cb *classBuilder) build() []byte {
	thisIdx := cb.cp.class(cb.this)
	var superIdx uint16
	if cb.sup != "" {
		superIdx = cb.cp.class(cb.sup)
	}

	var out []byte
	out = append(out, u4b(0xCAFEBABE)...)
	out = append(out, u2b(0)...)  // minor
	out = append(out, u2b(52)...) // major
	out = append(out, cb.cp.bytes()...)
	out = append(out, u2b(0x0021)...) // public, super
	out = append(out, u2b(thisIdx)...)
	out = append(out, u2b(superIdx)...)
	out = append(out, u2b(0)...) // interfaces
	out = append(out, u2b(0)...) // fields
	out = append(out, u2b(cb.nMeth)...)
	out = append(out, cb.methods...)
	out = append(out, u2b(0)...) // class attributes
	return out
}

// memSource is a trivial in-memory classregistry.Source, mirroring the one
// classregistry's own tests use.
type memSource struct {
	classes map[string][]byte
}

func (m *memSource) ClassBytes(name string) ([]byte, bool) { b, ok := m.classes[name]; return b, ok }
func (m *memSource) MainClass() (string, bool)              { return "", false }

func newTestRegistry(t *testing.T, classes map[string][]byte) *classregistry.Registry {
	t.Helper()
	r := classregistry.New()
	if err := r.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(classes) > 0 {
		r.AddSource(&memSource{classes: classes})
	}
	return r
}

// runToCompletion drives a single method of className to completion the way
// runMethodForNative does: a fresh accessor, a fresh frame stack, and a
// Sink to capture whatever the method returns.
func runToCompletion(t *testing.T, vm *VM, className, methodName, methodDesc string, locals []vmvalue.Value) (vmvalue.Value, error) {
	t.Helper()
	ct, err := vm.Registry.Resolve(className)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", className, err)
	}
	if err := ct.EnsureLinked(vm.Registry); err != nil {
		t.Fatalf("EnsureLinked: %v", err)
	}
	owner, mi, ok := ct.FindMethod(methodName, methodDesc)
	if !ok {
		t.Fatalf("method not found: %s.%s%s", className, methodName, methodDesc)
	}

	acc := vmthread.NewAccessor(nil)
	vmthread.Register(acc)
	defer vmthread.Unregister(acc)

	f := frame.New(owner, owner.CF.CP, owner.Name, methodName, methodDesc, mi.Code)
	copy(f.Locals, locals)
	var result vmvalue.Value
	f.Sink = &result

	fs := list.New()
	frame.Push(fs, f)
	if err := vm.runThread(acc, fs); err != nil {
		return nil, err
	}
	return result, nil
}

func TestArithmeticReturnsSum(t *testing.T) {
	code := []byte{opIconst2, opIconst3, opIadd, opIreturn}
	ct := vmclass.NewStandIn("Calc", "")
	codeAttr := &classfile.CodeAttribute{MaxStack: 2, MaxLocals: 0, Code: code}
	f := frame.New(ct, nil, "Calc", "compute", "()I", codeAttr)
	var result vmvalue.Value
	f.Sink = &result

	fs := frame.CreateStack()
	frame.Push(fs, f)
	acc := vmthread.NewAccessor(nil)

	vm := &VM{Registry: classregistry.New()}
	if err := vm.runThread(acc, fs); err != nil {
		t.Fatalf("runThread: %v", err)
	}
	n, ok := result.(vmvalue.Int)
	if !ok || n != 5 {
		t.Errorf("result = %#v, want Int(5)", result)
	}
}

func TestVirtualDispatchUsesRuntimeClass(t *testing.T) {
	base := newClassBuilder("Base", "java/lang/Object")
	base.addMethod(methodSpec{
		name: "foo", desc: "()I", accessFlags: 0x0001,
		maxStack: 1, maxLocals: 1,
		code: []byte{opIconst1, opIreturn},
	})

	derived := newClassBuilder("Derived", "Base")
	derived.addMethod(methodSpec{
		name: "foo", desc: "()I", accessFlags: 0x0001,
		maxStack: 1, maxLocals: 1,
		code: []byte{opIconst2, opIreturn},
	})
	callerMethodrefBaseFoo := derived.cp.methodref("Base", "foo", "()I")
	derived.addMethod(methodSpec{
		name: "callFoo", desc: "()I", accessFlags: 0x0009, // public static
		maxStack: 1, maxLocals: 1,
		code: append([]byte{opNew}, append(u2b(derived.cp.class("Derived")),
			append([]byte{opDup, opInvokevirtual}, append(u2b(callerMethodrefBaseFoo), opIreturn)...)...)...),
	})

	reg := newTestRegistry(t, map[string][]byte{
		"Base":    base.build(),
		"Derived": derived.build(),
	})
	vm := &VM{Registry: reg}
	vm.Boot()

	ret, err := runToCompletion(t, vm, "Derived", "callFoo", "()I", nil)
	if err != nil {
		t.Fatalf("runToCompletion: %v", err)
	}
	n, ok := ret.(vmvalue.Int)
	if !ok || n != 2 {
		t.Errorf("callFoo() = %#v, want Int(2) (the overriding Derived.foo, not Base.foo)", ret)
	}
}

func TestCaughtExceptionRunsHandler(t *testing.T) {
	cb := newClassBuilder("Thrower", "java/lang/Object")
	excClass := cb.cp.class("java/lang/ArithmeticException")
	// try block [0,4): iconst_1, iconst_0, idiv (throws), ireturn
	// handler at 4: pop the thrown ref, bipush 7, ireturn
	code := []byte{
		opIconst1,       // 0
		opIconst0,       // 1
		opIdiv,          // 2 idiv
		opIreturn,       // 3 (unreachable on the exception path)
		opPop,           // 4 handler: pop thrown ref
		0x10, 7,         // 5 bipush 7
		opIreturn, // 7 handler: ireturn
	}
	cb.addMethod(methodSpec{
		name: "divZero", desc: "()I", accessFlags: 0x0009,
		maxStack: 2, maxLocals: 0,
		code: code,
		exceptionTable: []classfile.ExceptionTableEntry{
			{StartPC: 0, EndPC: 4, HandlerPC: 4, CatchType: excClass},
		},
	})

	reg := newTestRegistry(t, map[string][]byte{"Thrower": cb.build()})
	vm := &VM{Registry: reg}
	vm.Boot()

	ret, err := runToCompletion(t, vm, "Thrower", "divZero", "()I", nil)
	if err != nil {
		t.Fatalf("runToCompletion: %v", err)
	}
	n, ok := ret.(vmvalue.Int)
	if !ok || n != 7 {
		t.Errorf("divZero() = %#v, want Int(7) from the catch handler", ret)
	}
}

func TestUncaughtExceptionPropagatesAsError(t *testing.T) {
	cb := newClassBuilder("Thrower", "java/lang/Object")
	code := []byte{
		opIconst1,
		opIconst0,
		opIdiv, // idiv, no exception table at all
		opIreturn,
	}
	cb.addMethod(methodSpec{
		name: "divZero", desc: "()I", accessFlags: 0x0009,
		maxStack: 2, maxLocals: 0,
		code: code,
	})

	reg := newTestRegistry(t, map[string][]byte{"Thrower": cb.build()})
	vm := &VM{Registry: reg}
	vm.Boot()

	_, err := runToCompletion(t, vm, "Thrower", "divZero", "()I", nil)
	if err == nil {
		t.Fatalf("expected an uncaught-exception error, got nil")
	}
	if !strings.Contains(err.Error(), "ArithmeticException") {
		t.Errorf("error = %v, want it to mention ArithmeticException", err)
	}
}

func TestNativeMethodRoundTrip(t *testing.T) {
	native.SetStringClassType(nil)
	native.LoadAll()

	g, ok := native.Lookup("java/lang/Object", "hashCode", "()I")
	if !ok {
		t.Fatalf("expected java/lang/Object.hashCode()I to be registered")
	}

	reg := newTestRegistry(t, nil)
	objCT, ok := reg.Lookup("java/lang/Object")
	if !ok {
		t.Fatalf("java/lang/Object should be bootstrapped")
	}
	inst := vmclass.NewInstance(objCT)

	ret := g.GFunction([]vmvalue.Value{vmvalue.Ref{Obj: inst}}, nil)
	if _, ok := ret.(vmvalue.Int); !ok {
		t.Errorf("hashCode() returned %#v, want an Int", ret)
	}
}
