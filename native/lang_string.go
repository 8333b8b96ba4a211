package native

import (
	"strconv"
	"strings"

	"classvm/vmclass"
	"classvm/vmerrors"
	"classvm/vmthread"
	"classvm/vmvalue"
)

func goStringOf(params []vmvalue.Value, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	r, ok := params[i].(vmvalue.Ref)
	if !ok {
		return "", false
	}
	inst, ok := r.Obj.(*vmclass.Instance)
	if !ok {
		return "", false
	}
	return vmclass.GoString(inst)
}

func loadLangString() {
	Register("java/lang/String", "length", "()I", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		s, _ := goStringOf(params, 0)
		return vmvalue.Int(len(s))
	}})

	Register("java/lang/String", "isEmpty", "()Z", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		s, _ := goStringOf(params, 0)
		if s == "" {
			return vmvalue.Int(1)
		}
		return vmvalue.Int(0)
	}})

	Register("java/lang/String", "charAt", "(I)C", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		s, _ := goStringOf(params, 0)
		idx, ok := params[1].(vmvalue.Int)
		if !ok || int(idx) < 0 || int(idx) >= len(s) {
			return NewErrBlk(vmerrors.ArrayIndexOutOfBoundsException, "String index out of range")
		}
		return vmvalue.Int(s[idx])
	}})

	Register("java/lang/String", "concat", "(Ljava/lang/String;)Ljava/lang/String;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		a, _ := goStringOf(params, 0)
		b, _ := goStringOf(params, 1)
		return javaString(a + b)
	}})

	Register("java/lang/String", "equals", "(Ljava/lang/Object;)Z", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		a, aok := goStringOf(params, 0)
		b, bok := goStringOf(params, 1)
		if aok && bok && a == b {
			return vmvalue.Int(1)
		}
		return vmvalue.Int(0)
	}})

	Register("java/lang/String", "hashCode", "()I", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		s, _ := goStringOf(params, 0)
		// the documented java.lang.String hash recurrence: s[0]*31^(n-1) + ...
		var h int32
		for i := 0; i < len(s); i++ {
			h = h*31 + int32(s[i])
		}
		return vmvalue.Int(h)
	}})

	Register("java/lang/String", "compareTo", "(Ljava/lang/String;)I", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		a, _ := goStringOf(params, 0)
		b, _ := goStringOf(params, 1)
		return vmvalue.Int(strings.Compare(a, b))
	}})

	Register("java/lang/String", "substring", "(I)Ljava/lang/String;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		s, _ := goStringOf(params, 0)
		start, _ := params[1].(vmvalue.Int)
		if int(start) < 0 || int(start) > len(s) {
			return NewErrBlk(vmerrors.ArrayIndexOutOfBoundsException, "begin index out of range")
		}
		return javaString(s[start:])
	}})

	Register("java/lang/String", "substring", "(II)Ljava/lang/String;", GMeth{2, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		s, _ := goStringOf(params, 0)
		start, _ := params[1].(vmvalue.Int)
		end, _ := params[2].(vmvalue.Int)
		if int(start) < 0 || int(end) > len(s) || start > end {
			return NewErrBlk(vmerrors.ArrayIndexOutOfBoundsException, "index out of range")
		}
		return javaString(s[start:end])
	}})

	Register("java/lang/String", "toString", "()Ljava/lang/String;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		return params[0]
	}})

	Register("java/lang/String", "intern", "()Ljava/lang/String;", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		s, _ := goStringOf(params, 0)
		return vmvalue.Ref{Obj: vmclass.Intern(stringClass, s)}
	}})

	Register("java/lang/String", "valueOf", "(I)Ljava/lang/String;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		v, _ := params[0].(vmvalue.Int)
		return javaString(strconv.FormatInt(int64(v), 10))
	}})
}
