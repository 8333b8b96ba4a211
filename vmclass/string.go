package vmclass

import (
	"sync"

	"classvm/monitor"
	"classvm/vmvalue"
)

// NewStringClassType builds the Go-native stand-in class type for
// java/lang/String (§11.3): rather than parsing a real class-file resource
// for it, the runtime shape is hand-built, the way the teacher's
// object.NewString() constructs the runtime String layout directly instead
// of loading one. It carries a single internal field, "value", holding the
// Go string payload; every other java/lang/String method is bridged
// through the native registry rather than bytecode.
func NewStringClassType() *ClassType {
	return &ClassType{
		Name:                "java/lang/String",
		SuperName:           "java/lang/Object",
		Mon:                 monitor.New(),
		staticSlots:         make(map[string]vmvalue.Value),
		enabled:             true,
		initState:           ClinitRun, // no <clinit> to run for a stand-in
		NonStaticFieldOrder: []string{"value"},
	}
}

// NewJavaString allocates a java/lang/String instance wrapping goStr.
// stringCT must be the ClassType returned by NewStringClassType (typically
// fetched once from the class registry at boot).
func NewJavaString(stringCT *ClassType, goStr string) *Instance {
	inst := &Instance{
		Klass:  stringCT,
		fields: map[string]vmvalue.Value{"value": vmvalue.Ref{Obj: goStr}},
		Mon:    monitor.New(),
	}
	return inst
}

// GoString extracts the host Go string from a java/lang/String instance.
// Returns ("", false) if inst is not shaped like a string bridge value.
func GoString(inst *Instance) (string, bool) {
	if inst == nil {
		return "", false
	}
	v := inst.Get("value")
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return "", false
	}
	s, ok := r.Obj.(string)
	return s, ok
}

// internTable backs String.intern()/C9 "intern identical contents": two
// host strings with equal content produce managed strings that, after
// interning, share reference identity.
var (
	internMu    sync.Mutex
	internTable = make(map[string]*Instance)
)

// Intern returns the canonical instance for content, constructing one via
// stringCT on first use. Equal content always yields the same pointer.
func Intern(stringCT *ClassType, content string) *Instance {
	internMu.Lock()
	defer internMu.Unlock()
	if inst, ok := internTable[content]; ok {
		return inst
	}
	inst := NewJavaString(stringCT, content)
	internTable[content] = inst
	return inst
}
