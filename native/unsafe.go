package native

import (
	"sync"

	"classvm/vmthread"
	"classvm/vmvalue"
)

// Unsafe offsets here are opaque handles into offsetTable, not literal byte
// offsets into an object layout: C7 instances hold fields in a name-keyed
// map rather than a flat byte buffer (see vmclass.Instance), so there is no
// byte-addressable memory for a real offset to index into. objectFieldOffset
// mints a handle for a field name; getInt/putInt/compareAndSwapInt resolve
// it back to a name before touching the instance. This keeps the Unsafe
// intrinsic *shape* (long offsets, CAS) a caller-sensitive class might
// expect while being honest that it is a bridge, not a memory model.
var (
	offsetMu    sync.Mutex
	offsetTable = map[int64]string{}
	nextOffset  int64
)

func mintOffset(fieldName string) int64 {
	offsetMu.Lock()
	defer offsetMu.Unlock()
	nextOffset++
	offsetTable[nextOffset] = fieldName
	return nextOffset
}

func offsetFieldName(h int64) (string, bool) {
	offsetMu.Lock()
	defer offsetMu.Unlock()
	n, ok := offsetTable[h]
	return n, ok
}

// casMu serializes compareAndSwapInt across all instances: coarse, but
// correct, and CAS is not a hot path for this VM's bundled natives.
var casMu sync.Mutex

func loadUnsafe() {
	Register("jdk/internal/misc/Unsafe", "objectFieldOffset", "(Ljava/lang/String;)J", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		name, _ := goStringOf(params, 0)
		return vmvalue.Long(mintOffset(name))
	}})

	Register("jdk/internal/misc/Unsafe", "getInt", "(Ljava/lang/Object;J)I", GMeth{2, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := asInstance(params[0])
		offset, _ := params[1].(vmvalue.Long)
		name, ok := offsetFieldName(int64(offset))
		if inst == nil || !ok {
			return vmvalue.Int(0)
		}
		v, _ := inst.Get(name).(vmvalue.Int)
		return v
	}})

	Register("jdk/internal/misc/Unsafe", "putInt", "(Ljava/lang/Object;JI)V", GMeth{3, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := asInstance(params[0])
		offset, _ := params[1].(vmvalue.Long)
		val := params[2]
		name, ok := offsetFieldName(int64(offset))
		if inst != nil && ok {
			inst.Get(name) // vivify if this handle predates the field
			inst.Set(name, val)
		}
		return nil
	}})

	Register("jdk/internal/misc/Unsafe", "compareAndSwapInt", "(Ljava/lang/Object;JII)Z", GMeth{4, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := asInstance(params[0])
		offset, _ := params[1].(vmvalue.Long)
		expect, _ := params[2].(vmvalue.Int)
		update := params[3]
		name, ok := offsetFieldName(int64(offset))
		if inst == nil || !ok {
			return vmvalue.Int(0)
		}
		casMu.Lock()
		defer casMu.Unlock()
		cur, _ := inst.Get(name).(vmvalue.Int)
		if cur != expect {
			return vmvalue.Int(0)
		}
		inst.Set(name, update)
		return vmvalue.Int(1)
	}})
}
