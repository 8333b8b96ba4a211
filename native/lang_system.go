package native

import (
	"os"
	"time"

	"classvm/vmclass"
	"classvm/vmconfig"
	"classvm/vmerrors"
	"classvm/vmthread"
	"classvm/vmvalue"
)

func loadLangSystem() {
	Register("java/lang/System", "registerNatives", "()V", GMeth{0, justReturn})

	Register("java/lang/System", "currentTimeMillis", "()J", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		return vmvalue.Long(time.Now().UnixMilli())
	}})

	Register("java/lang/System", "nanoTime", "()J", GMeth{0, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		return vmvalue.Long(time.Now().UnixNano())
	}})

	Register("java/lang/System", "exit", "(I)V", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		code, _ := params[0].(vmvalue.Int)
		os.Exit(int(code))
		return nil
	}})

	Register("java/lang/System", "getProperty", "(Ljava/lang/String;)Ljava/lang/String;", GMeth{1, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		key, _ := goStringOf(params, 0)
		props := vmconfig.GetGlobalRef().Properties()
		if v, ok := props[key]; ok {
			return javaString(v)
		}
		return vmvalue.Null
	}})

	Register("java/lang/System", "arraycopy", "(Ljava/lang/Object;ILjava/lang/Object;II)V", GMeth{5, func(params []vmvalue.Value, th *vmthread.Accessor) interface{} {
		src, srcOK := params[0].(vmvalue.Ref)
		srcPos, _ := params[1].(vmvalue.Int)
		dst, dstOK := params[2].(vmvalue.Ref)
		dstPos, _ := params[3].(vmvalue.Int)
		length, _ := params[4].(vmvalue.Int)
		if !srcOK || !dstOK {
			return NewErrBlk("java/lang/NullPointerException", "arraycopy with a null array")
		}
		srcArr, ok1 := src.Obj.(*vmclass.Array)
		dstArr, ok2 := dst.Obj.(*vmclass.Array)
		if !ok1 || !ok2 {
			return NewErrBlk(vmerrors.ArrayStoreException, "arraycopy requires array arguments")
		}
		for i := 0; i < int(length); i++ {
			v, ok := srcArr.Load(int(srcPos) + i)
			if !ok {
				return NewErrBlk(vmerrors.ArrayIndexOutOfBoundsException, "arraycopy source range")
			}
			if !dstArr.Store(int(dstPos)+i, v) {
				return NewErrBlk(vmerrors.ArrayIndexOutOfBoundsException, "arraycopy destination range")
			}
		}
		return nil
	}})
}
