package native

import (
	"fmt"
	"os"

	"classvm/vmclass"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// loadLangThrowable bridges java/lang/Throwable's constructors and the
// printStackTrace supplemented feature (§12): the captured call stack is a
// snapshot of th.InvertedCallStack() taken at construction time, the same
// moment the real JVM's fillInStackTrace fires.
func loadLangThrowable() {
	Register("java/lang/Throwable", "<init>", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		initThrowable(receiverInstance(params), "", th)
		return nil
	}})

	Register("java/lang/Throwable", "<init>", "(Ljava/lang/String;)V", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		msg, _ := goStringOf(params, 1)
		initThrowable(receiverInstance(params), msg, th)
		return nil
	}})

	Register("java/lang/Throwable", "getMessage", "()Ljava/lang/String;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return vmvalue.Null
		}
		return inst.Get("message")
	}})

	Register("java/lang/Throwable", "toString", "()Ljava/lang/String;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return javaString("null")
		}
		msg, ok := vmclass.GoString(asInstance(inst.Get("message")))
		if !ok || msg == "" {
			return javaString(inst.ClassName())
		}
		return javaString(inst.ClassName() + ": " + msg)
	}})

	Register("java/lang/Throwable", "printStackTrace", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst == nil {
			return nil
		}
		msg, _ := vmclass.GoString(asInstance(inst.Get("message")))
		header := inst.ClassName()
		if msg != "" {
			header += ": " + msg
		}
		fmt.Fprintln(os.Stderr, header)
		if frames, ok := stackTraceOf(inst); ok {
			for _, f := range frames {
				fmt.Fprintf(os.Stderr, "\tat %s.%s (offset %d)\n", f.ClassName, f.MethodName, f.CodeOffset)
			}
		}
		return nil
	}})
}

func initThrowable(inst *vmclass.Instance, msg string, th *vmthread.Accessor) {
	if inst == nil {
		return
	}
	inst.Get("message")
	inst.Set("message", javaString(msg))
	inst.Get("stackTrace")
	var frames []vmthread.CallInfo
	if th != nil {
		frames = th.InvertedCallStack()
	}
	inst.Set("stackTrace", vmvalue.Ref{Obj: frames})
}

func stackTraceOf(inst *vmclass.Instance) ([]vmthread.CallInfo, bool) {
	v := inst.Get("stackTrace")
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return nil, false
	}
	frames, ok := r.Obj.([]vmthread.CallInfo)
	return frames, ok
}

func asInstance(v vmvalue.Value) *vmclass.Instance {
	r, ok := v.(vmvalue.Ref)
	if !ok {
		return nil
	}
	inst, _ := r.Obj.(*vmclass.Instance)
	return inst
}
