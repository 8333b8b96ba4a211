package native

import (
	"strconv"

	"classvm/vmclass"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// sbBuffer/sbSetBuffer read and write a StringBuilder instance's backing Go
// string, held in a "value" field exactly like java/lang/String's bridge
// field. The field has no ClassFile declaration (StringBuilder is a
// stand-in), so the first Get on it auto-vivifies the slot — see
// vmclass.Instance.Get — which is what lets the later Set succeed.
func sbBuffer(inst *vmclass.Instance) string {
	v := inst.Get("value")
	if r, ok := v.(vmvalue.Ref); ok {
		if s, ok := r.Obj.(string); ok {
			return s
		}
	}
	return ""
}

func sbSetBuffer(inst *vmclass.Instance, s string) {
	inst.Set("value", vmvalue.Ref{Obj: s})
}

func loadLangStringBuilder() {
	Register("java/lang/StringBuilder", "<init>", "()V", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		if inst != nil {
			sbSetBuffer(inst, "")
		}
		return nil
	}})

	Register("java/lang/StringBuilder", "<init>", "(Ljava/lang/String;)V", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		s, _ := goStringOf(params, 1)
		if inst != nil {
			sbSetBuffer(inst, s)
		}
		return nil
	}})

	Register("java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		s, _ := goStringOf(params, 1)
		sbSetBuffer(inst, sbBuffer(inst)+s)
		return params[0]
	}})

	Register("java/lang/StringBuilder", "append", "(I)Ljava/lang/StringBuilder;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		v, _ := params[1].(vmvalue.Int)
		sbSetBuffer(inst, sbBuffer(inst)+strconv.FormatInt(int64(v), 10))
		return params[0]
	}})

	Register("java/lang/StringBuilder", "append", "(C)Ljava/lang/StringBuilder;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		inst := receiverInstance(params)
		v, _ := params[1].(vmvalue.Int)
		sbSetBuffer(inst, sbBuffer(inst)+string(rune(v)))
		return params[0]
	}})

	Register("java/lang/StringBuilder", "length", "()I", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		return vmvalue.Int(len(sbBuffer(receiverInstance(params))))
	}})

	Register("java/lang/StringBuilder", "toString", "()Ljava/lang/String;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		return javaString(sbBuffer(receiverInstance(params)))
	}})
}
