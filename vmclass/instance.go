package vmclass

import (
	"sync"

	"classvm/monitor"
	"classvm/vmvalue"
)

// Instance is one allocation of a class type (C7): an immutable reference
// to its class type, an optional super-instance forming a chain mirroring
// the super-class chain, one shim instance per implemented interface, and
// per-field value slots covering only the fields this class type level
// declares (not its super's — those live on the super-instance).
type Instance struct {
	Klass *ClassType
	Super *Instance
	Shims map[string]*Instance // interface name -> shim instance

	mu     sync.Mutex
	fields map[string]vmvalue.Value

	Mon *monitor.Monitor
}

// NewInstance allocates an instance of ct, recursively allocating the
// super-instance and one interface shim per declared interface, per §4.2
// "new an instance". ct must already be linked (EnsureLinked called).
func NewInstance(ct *ClassType) *Instance {
	inst := &Instance{
		Klass:  ct,
		fields: make(map[string]vmvalue.Value),
		Mon:    monitor.New(),
	}
	if ct.CF != nil {
		for _, name := range ct.NonStaticFieldOrder {
			if fi, ok := ct.CF.Field(name); ok {
				inst.fields[name] = vmvalue.DefaultFor(fi.Descriptor)
			}
		}
	}
	if ct.Super != nil {
		inst.Super = NewInstance(ct.Super)
	}
	if len(ct.Interfaces) > 0 {
		inst.Shims = make(map[string]*Instance, len(ct.Interfaces))
		for _, iface := range ct.Interfaces {
			inst.Shims[iface.Name] = NewInstance(iface)
		}
	}
	return inst
}

// Get implements the field-access contract (§4.2): walk this level first,
// then the super-instance. Declared fields already hold their descriptor's
// default from NewInstance; a name found nowhere in the chain returns null
// and memoizes it so subsequent reads observe the same identity.
func (in *Instance) Get(name string) vmvalue.Value {
	in.mu.Lock()
	if v, ok := in.fields[name]; ok {
		in.mu.Unlock()
		return v
	}
	in.mu.Unlock()
	if in.Super != nil {
		return in.Super.Get(name)
	}
	// absence anywhere in the chain: memoize a null default at this level
	// so identity is stable across repeated reads.
	in.mu.Lock()
	in.fields[name] = vmvalue.Null
	in.mu.Unlock()
	return vmvalue.Null
}

// Set writes at the first level in the chain whose class type declares
// name; absence of any match is a programming error, reported via ok.
func (in *Instance) Set(name string, v vmvalue.Value) bool {
	declared := in.Klass.CF != nil
	if declared {
		_, declared = in.Klass.CF.Field(name)
	}
	if !declared {
		// stand-in classes (e.g. bootstrap String) have no CF; allow any
		// field already present at this level to be overwritten.
		in.mu.Lock()
		_, present := in.fields[name]
		in.mu.Unlock()
		declared = present
	}
	if declared {
		in.mu.Lock()
		in.fields[name] = v
		in.mu.Unlock()
		return true
	}
	if in.Super != nil {
		return in.Super.Set(name, v)
	}
	return false
}

// ClassName reports the runtime class name of this instance, used by
// getClass()/instanceof/checkcast without requiring callers to reach into
// Klass directly.
func (in *Instance) ClassName() string {
	return in.Klass.Name
}

// Shim returns the interface-shim instance for ifaceName, the receiver
// interface dispatch binds as `this` when running a default method (§4.2).
// Directly implemented interfaces are found in Shims; an interface further
// up an implemented interface's own extends chain is found by walking into
// that shim's Shims in turn, since NewInstance built them the same
// recursive way. Returns nil if ifaceName is not implemented at all.
func (in *Instance) Shim(ifaceName string) *Instance {
	if in.Klass.Name == ifaceName {
		return in
	}
	if s, ok := in.Shims[ifaceName]; ok {
		return s
	}
	for _, s := range in.Shims {
		if found := s.Shim(ifaceName); found != nil {
			return found
		}
	}
	return nil
}
