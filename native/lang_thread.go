package native

import (
	"sync"
	"time"

	"classvm/vmclass"
	"classvm/vmlog"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// threadWaitGroup reads the *sync.WaitGroup a start0 call stashes on the
// managed Thread instance so a later join()V can block on completion,
// grounded on the same auto-vivifying field trick lang_stringbuilder.go
// uses for its backing buffer.
func threadWaitGroup(inst *vmclass.Instance) *sync.WaitGroup {
	v := inst.Get("nativeWaitGroup")
	if r, ok := v.(vmvalue.Ref); ok {
		if wg, ok := r.Obj.(*sync.WaitGroup); ok {
			return wg
		}
	}
	return nil
}

func loadLangThread() {
	Register("java/lang/Thread", "registerNatives", "()V", GMeth{0, justReturn})
	Register("java/lang/Thread", "<init>", "()V", GMeth{0, justReturn})

	Register("java/lang/Thread", "currentThread", "()Ljava/lang/Thread;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		if th == nil || th.JavaThread == nil {
			return vmvalue.Null
		}
		return vmvalue.Ref{Obj: th.JavaThread}
	}})

	Register("java/lang/Thread", "sleep", "(J)V", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		ms, _ := params[0].(vmvalue.Long)
		if ms > 0 {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
		return nil
	}})

	Register("java/lang/Thread", "setName", "(Ljava/lang/String;)V", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		s, _ := goStringOf(params, 1)
		if inst != nil {
			inst.Get("name") // vivify
			inst.Set("name", javaString(s))
		}
		return nil
	}})

	Register("java/lang/Thread", "getName", "()Ljava/lang/String;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return javaString("")
		}
		v := inst.Get("name")
		if vmvalue.IsNull(v) {
			return javaString("Thread")
		}
		return v
	}})

	// start0 launches run()V on a fresh goroutine, mirroring the teacher's
	// native thread-start bridge without a real green-thread scheduler: each
	// started Thread gets one Go goroutine, and join()V waits on the
	// WaitGroup that goroutine signals on completion.
	Register("java/lang/Thread", "start0", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return NewErrBlk("java/lang/NullPointerException", "start0 called with no receiver")
		}
		wg := &sync.WaitGroup{}
		wg.Add(1)
		inst.Get("nativeWaitGroup")
		inst.Set("nativeWaitGroup", vmvalue.Ref{Obj: wg})
		go func() {
			defer wg.Done()
			if RunMethod == nil {
				return
			}
			if _, err := RunMethod(inst, "run", "()V", nil); err != nil {
				vmlog.Warning("thread run()V terminated with error: %v", err)
			}
		}()
		return nil
	}})

	Register("java/lang/Thread", "join", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return nil
		}
		if wg := threadWaitGroup(inst); wg != nil {
			wg.Wait()
		}
		return nil
	}})
}
