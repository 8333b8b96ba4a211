// Package vmclass is the class/object model: class type (C6), class
// instance (C7), reflection type (C8), and the string interning/bridge
// (C9) — kept together the way the teacher's object package keeps
// Object.go and String.go side by side, since C9 cannot be built without
// C7's instance shape.
package vmclass

import (
	"sync"

	"classvm/classfile"
	"classvm/monitor"
	"classvm/vmvalue"
)

// StaticInitState is the tri-state gate Open Question (a) resolves
// explicitly: <clinit> runs without holding the class-type monitor, and
// the not-run/in-progress/run transition is instead serialized by its own
// mutex so two threads racing to first-touch a class can't both run
// <clinit>.
type StaticInitState int

const (
	ClinitNotRun StaticInitState = iota
	ClinitInProgress
	ClinitRun
)

// Resolver looks up (and, if necessary, loads) a class type by canonical
// name. classregistry.Registry implements this; vmclass only depends on
// the interface, not on the registry package, so there is no import cycle.
type Resolver interface {
	Resolve(name string) (*ClassType, error)
}

// ClassType is the per-loaded-class runtime record (C6): the class
// definition plus the mutable state construction and dispatch need —
// static-field slots, the class monitor, and the static-initializer gate.
type ClassType struct {
	Name       string
	SuperName  string
	IfaceNames []string
	CF         *classfile.ClassFile

	Super      *ClassType
	Interfaces []*ClassType
	linkMu     sync.Mutex

	Mon *monitor.Monitor

	// NonStaticFieldOrder / StaticFieldOrder record declaration order,
	// used by the unsafe-offset mapping (§4.2) and by instance field-slot
	// construction.
	NonStaticFieldOrder []string
	StaticFieldOrder    []string

	statMu      sync.Mutex
	staticSlots map[string]vmvalue.Value

	initMu    sync.Mutex
	initState StaticInitState
	enabled   bool
}

// NewClassType builds a ClassType from a parsed class definition. Super
// and interface names are kept as strings; linking (resolving them through
// a Resolver) happens lazily on first EnsureLinked call, per spec.md §4.2.
func NewClassType(cf *classfile.ClassFile) *ClassType {
	ct := &ClassType{
		Name:        cf.ThisClass,
		SuperName:   cf.SuperClass,
		IfaceNames:  cf.Interfaces,
		CF:          cf,
		Mon:         monitor.New(),
		staticSlots: make(map[string]vmvalue.Value),
		enabled:     true,
	}
	for _, f := range cf.Fields {
		if f.IsStatic() {
			ct.StaticFieldOrder = append(ct.StaticFieldOrder, f.Name)
			ct.staticSlots[f.Name] = vmvalue.DefaultFor(f.Descriptor)
		} else {
			ct.NonStaticFieldOrder = append(ct.NonStaticFieldOrder, f.Name)
		}
	}
	return ct
}

// NewStandIn builds a Go-native stand-in class type with no backing
// ClassFile: used for bootstrap classes (java/lang/Object, the built-in
// throwables, ...) whose implementation lives entirely in native code
// rather than in parsed bytecode, per §11.3. It has no <clinit> to run.
func NewStandIn(name, superName string) *ClassType {
	return &ClassType{
		Name:        name,
		SuperName:   superName,
		Mon:         monitor.New(),
		staticSlots: make(map[string]vmvalue.Value),
		enabled:     true,
		initState:   ClinitRun,
	}
}

// SetEnabled controls whether EnsureStaticInit is allowed to run <clinit>.
// A host disables this before its own bootstrap classes are ready, as
// spec.md's static-initializer gate describes.
func (ct *ClassType) SetEnabled(on bool) {
	ct.initMu.Lock()
	ct.enabled = on
	ct.initMu.Unlock()
}

// EnsureLinked resolves Super and Interfaces through r if not already
// resolved. Must succeed before any instance of ct is constructed.
func (ct *ClassType) EnsureLinked(r Resolver) error {
	ct.linkMu.Lock()
	defer ct.linkMu.Unlock()
	if ct.Super == nil && ct.SuperName != "" {
		super, err := r.Resolve(ct.SuperName)
		if err != nil {
			return err
		}
		ct.Super = super
	}
	if ct.Interfaces == nil && len(ct.IfaceNames) > 0 {
		ifaces := make([]*ClassType, 0, len(ct.IfaceNames))
		for _, name := range ct.IfaceNames {
			it, err := r.Resolve(name)
			if err != nil {
				return err
			}
			ifaces = append(ifaces, it)
		}
		ct.Interfaces = ifaces
	}
	return nil
}

// EnsureStaticInit implements the static-initializer gate (§4.2): it
// recursively ensures the super-type's initializer has run first, then (if
// enabled and not yet called) runs <clinit> via run. The called-flag
// transition happens while holding initMu, not ct.Mon — Open Question (a).
func (ct *ClassType) EnsureStaticInit(run func(ct *ClassType) error) error {
	if ct.Super != nil {
		if err := ct.Super.EnsureStaticInit(run); err != nil {
			return err
		}
	}

	ct.initMu.Lock()
	switch ct.initState {
	case ClinitRun, ClinitInProgress:
		ct.initMu.Unlock()
		return nil
	}
	if !ct.enabled {
		ct.initMu.Unlock()
		return nil
	}
	ct.initState = ClinitInProgress
	ct.initMu.Unlock()

	var err error
	if ct.CF != nil {
		if _, ok := ct.CF.Method("<clinit>", "()V"); ok {
			err = run(ct)
		}
	}

	ct.initMu.Lock()
	ct.initState = ClinitRun
	ct.initMu.Unlock()
	return err
}

// StaticGet reads a static field slot, walking the super chain if ct
// itself doesn't declare name, mirroring the instance field-access
// contract's chain walk.
func (ct *ClassType) StaticGet(name string) (vmvalue.Value, bool) {
	ct.statMu.Lock()
	v, ok := ct.staticSlots[name]
	ct.statMu.Unlock()
	if ok {
		return v, true
	}
	if ct.Super != nil {
		return ct.Super.StaticGet(name)
	}
	return nil, false
}

// StaticSet writes a static field slot at the first class type in the
// chain that declares it.
func (ct *ClassType) StaticSet(name string, v vmvalue.Value) bool {
	ct.statMu.Lock()
	if _, ok := ct.staticSlots[name]; ok {
		ct.staticSlots[name] = v
		ct.statMu.Unlock()
		return true
	}
	ct.statMu.Unlock()
	if ct.Super != nil {
		return ct.Super.StaticSet(name, v)
	}
	return false
}

// FindMethod walks ct then its super chain for an exact name+descriptor
// match. Used for static dispatch, special dispatch (starting at the
// call-site's declaring class), and as the core of virtual/interface
// dispatch (starting at the receiver's runtime class).
func (ct *ClassType) FindMethod(name, desc string) (*ClassType, *classfile.MethodInfo, bool) {
	for cur := ct; cur != nil; cur = cur.Super {
		if cur.CF == nil {
			continue
		}
		if m, ok := cur.CF.Method(name, desc); ok {
			return cur, m, true
		}
	}
	// interface default methods: consult directly-implemented interfaces
	// and their supers, matching the "interface-shim receiver" dispatch
	// rule for default methods.
	for cur := ct; cur != nil; cur = cur.Super {
		for _, iface := range cur.Interfaces {
			if owner, m, ok := iface.FindMethod(name, desc); ok {
				return owner, m, true
			}
		}
	}
	return nil, nil, false
}

// CanCast reports whether ct's type can be treated as name: itself, any
// interface it implements (recursively), or any of its super-types.
func (ct *ClassType) CanCast(name string) bool {
	if ct.Name == name {
		return true
	}
	for _, iface := range ct.Interfaces {
		if iface.CanCast(name) {
			return true
		}
	}
	if ct.Super != nil {
		return ct.Super.CanCast(name)
	}
	return false
}

// FieldOffset returns the unsafe-offset mapping for a field: its 0-based
// position among non-static fields in declaration order, and whether it is
// static (statics are counted in a separate ordinal space).
func (ct *ClassType) FieldOffset(name string) (offset int, isStatic bool, ok bool) {
	for i, n := range ct.NonStaticFieldOrder {
		if n == name {
			return i, false, true
		}
	}
	for i, n := range ct.StaticFieldOrder {
		if n == name {
			return i, true, true
		}
	}
	if ct.Super != nil {
		return ct.Super.FieldOffset(name)
	}
	return 0, false, false
}
