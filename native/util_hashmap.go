package native

import (
	"strconv"

	"classvm/vmclass"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// hmEntry is one java/util/HashMap slot: the original key value (so get/
// containsKey/remove can be implemented without re-deriving it) and the
// stored value.
type hmEntry struct {
	Key vmvalue.Value
	Val vmvalue.Value
}

// hashKey derives the Go map key backing one HashMap entry: string-content
// keys hash by content (so two distinct String instances with equal content
// collide, matching java/lang/String's equals/hashCode contract), anything
// else hashes by identity.
func hashKey(v vmvalue.Value) string {
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return "prim"
	}
	if inst, ok := r.Obj.(*vmclass.Instance); ok {
		if s, ok := vmclass.GoString(inst); ok {
			return "S:" + s
		}
		return "I:" + strconv.Itoa(int(identityHash(inst)))
	}
	return "O:" + strconv.Itoa(int(identityHash(r.Obj)))
}

func hmTable(inst *vmclass.Instance) map[string]*hmEntry {
	v := inst.Get("table")
	if r, ok := v.(vmvalue.Ref); ok {
		if t, ok := r.Obj.(map[string]*hmEntry); ok {
			return t
		}
	}
	t := make(map[string]*hmEntry)
	inst.Set("table", vmvalue.Ref{Obj: t})
	return t
}

func loadUtilHashMap() {
	Register("java/util/HashMap", "<init>", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst != nil {
			inst.Get("table")
			inst.Set("table", vmvalue.Ref{Obj: make(map[string]*hmEntry)})
		}
		return nil
	}})

	Register("java/util/HashMap", "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;", GMeth{2, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		t := hmTable(inst)
		k := hashKey(params[1])
		prev := t[k]
		t[k] = &hmEntry{Key: params[1], Val: params[2]}
		if prev == nil {
			return vmvalue.Null
		}
		return prev.Val
	}})

	Register("java/util/HashMap", "get", "(Ljava/lang/Object;)Ljava/lang/Object;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		t := hmTable(inst)
		if e, ok := t[hashKey(params[1])]; ok {
			return e.Val
		}
		return vmvalue.Null
	}})

	Register("java/util/HashMap", "containsKey", "(Ljava/lang/Object;)Z", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		t := hmTable(inst)
		if _, ok := t[hashKey(params[1])]; ok {
			return vmvalue.Int(1)
		}
		return vmvalue.Int(0)
	}})

	Register("java/util/HashMap", "remove", "(Ljava/lang/Object;)Ljava/lang/Object;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		t := hmTable(inst)
		k := hashKey(params[1])
		e, ok := t[k]
		if !ok {
			return vmvalue.Null
		}
		delete(t, k)
		return e.Val
	}})

	Register("java/util/HashMap", "size", "()I", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		return vmvalue.Int(len(hmTable(inst)))
	}})

	Register("java/util/HashMap", "isEmpty", "()Z", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if len(hmTable(inst)) == 0 {
			return vmvalue.Int(1)
		}
		return vmvalue.Int(0)
	}})
}
