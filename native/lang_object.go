package native

import (
	"fmt"
	"hash/fnv"

	"classvm/vmclass"
	"classvm/vmerrors"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// stringClass is the shared java/lang/String class type, wired in once at
// boot (classregistry.Bootstrap builds it; the host passes it here) so
// every native that needs to construct a managed string can, without this
// package importing classregistry.
var stringClass *vmclass.ClassType

// SetStringClassType wires the managed java/lang/String class type into the
// native registry. Call once during VM boot, after classregistry.Bootstrap.
func SetStringClassType(ct *vmclass.ClassType) {
	stringClass = ct
}

func javaString(s string) vmvalue.Value {
	return vmvalue.Ref{Obj: vmclass.NewJavaString(stringClass, s)}
}

// receiverInstance extracts the receiver of an instance native call from
// params[0] (absent/wrong-shaped returns nil, which callers treat as "acted
// on a non-Instance receiver", e.g. an array or a null this).
func receiverInstance(params []vmvalue.Value) *vmclass.Instance {
	if len(params) == 0 {
		return nil
	}
	r, ok := params[0].(vmvalue.Ref)
	if !ok {
		return nil
	}
	inst, _ := r.Obj.(*vmclass.Instance)
	return inst
}

// identityHash derives a stable-for-the-instance's-lifetime hash code from
// its pointer value, standing in for the source's identity hash table.
func identityHash(p any) int32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%p", p)
	return int32(h.Sum32())
}

func loadLangObject() {
	Register("java/lang/Object", "<init>", "()V", GMeth{0, justReturn})
	Register("java/lang/Object", "registerNatives", "()V", GMeth{0, justReturn})

	Register("java/lang/Object", "hashCode", "()I", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return vmvalue.Int(0)
		}
		return vmvalue.Int(identityHash(inst))
	}})

	Register("java/lang/Object", "equals", "(Ljava/lang/Object;)Z", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		if len(params) < 2 {
			return vmvalue.Int(0)
		}
		a := receiverInstance(params[:1])
		br, ok := params[1].(vmvalue.Ref)
		if !ok {
			return vmvalue.Int(0)
		}
		b, _ := br.Obj.(*vmclass.Instance)
		if a == b {
			return vmvalue.Int(1)
		}
		return vmvalue.Int(0)
	}})

	Register("java/lang/Object", "toString", "()Ljava/lang/String;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return javaString("null")
		}
		return javaString(fmt.Sprintf("%s@%x", inst.ClassName(), uint32(identityHash(inst))))
	}})

	Register("java/lang/Object", "getClass", "()Ljava/lang/Class;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return vmvalue.Null
		}
		return vmvalue.Ref{Obj: vmclass.GetReflectType(inst.ClassName())}
	}})

	Register("java/lang/Object", "clone", "()Ljava/lang/Object;", GMeth{0, trapFunction("Object.clone()")})

	Register("java/lang/Object", "wait", "(J)V", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		ms, _ := params[1].(vmvalue.Long)
		if inst == nil || th == nil {
			return nil
		}
		if !inst.Mon.Wait(th.ID, int64(ms)) {
			return NewErrBlk(vmerrors.IllegalMonitorStateException, "wait() called without owning the monitor")
		}
		return nil
	}})

	Register("java/lang/Object", "notify", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil || th == nil {
			return nil
		}
		if !inst.Mon.HeldBy(th.ID) {
			return NewErrBlk(vmerrors.IllegalMonitorStateException, "notify() called without owning the monitor")
		}
		inst.Mon.Notify()
		return nil
	}})

	Register("java/lang/Object", "notifyAll", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil || th == nil {
			return nil
		}
		if !inst.Mon.HeldBy(th.ID) {
			return NewErrBlk(vmerrors.IllegalMonitorStateException, "notifyAll() called without owning the monitor")
		}
		inst.Mon.NotifyAll()
		return nil
	}})
}
