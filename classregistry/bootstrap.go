package classregistry

import "classvm/vmclass"

// standIn names one Go-native bootstrap class and its super-type name.
type standIn struct {
	name, super string
}

// coreHierarchy is the minimal bundled set of core classes registered
// directly as Go-native stand-ins (§11.3), rather than parsed from real
// JDK .class resources: java/lang/Object, the throwable family the
// interpreter and native registry need to construct on the fly (§7
// categories 2/3), java/lang/Class, and java/lang/System. Bootstrap
// registers every entry before linking any, so list order does not matter.
var coreHierarchy = []standIn{
	{"java/lang/Object", ""},
	{"java/lang/Class", "java/lang/Object"},
	{"java/lang/System", "java/lang/Object"},
	{"java/lang/Thread", "java/lang/Object"},
	{"java/lang/Throwable", "java/lang/Object"},
	{"java/lang/Exception", "java/lang/Throwable"},
	{"java/lang/RuntimeException", "java/lang/Exception"},
	{"java/lang/Error", "java/lang/Throwable"},
	{"java/lang/LinkageError", "java/lang/Error"},
	{"java/lang/ArithmeticException", "java/lang/RuntimeException"},
	{"java/lang/NullPointerException", "java/lang/RuntimeException"},
	{"java/lang/ClassCastException", "java/lang/RuntimeException"},
	{"java/lang/NegativeArraySizeException", "java/lang/RuntimeException"},
	{"java/lang/ArrayIndexOutOfBoundsException", "java/lang/RuntimeException"},
	{"java/lang/ArrayStoreException", "java/lang/RuntimeException"},
	{"java/lang/IllegalArgumentException", "java/lang/RuntimeException"},
	{"java/lang/IllegalMonitorStateException", "java/lang/RuntimeException"},
	{"java/lang/IllegalStateException", "java/lang/RuntimeException"},
	{"java/lang/UnsupportedOperationException", "java/lang/RuntimeException"},
	{"java/lang/ClassNotFoundException", "java/lang/Exception"},
	{"java/lang/NoSuchMethodError", "java/lang/LinkageError"},
	{"java/lang/NoSuchFieldError", "java/lang/LinkageError"},
	{"java/lang/BootstrapMethodError", "java/lang/LinkageError"},
	{"java/lang/AbstractMethodError", "java/lang/LinkageError"},
	{"java/lang/StackOverflowError", "java/lang/Error"},
	{"java/io/IOException", "java/lang/Exception"},
	{"java/util/HashMap", "java/lang/Object"},
	{"java/lang/StringBuilder", "java/lang/Object"},
	{"java/io/InputStreamReader", "java/lang/Object"},
	{"jdk/internal/misc/Unsafe", "java/lang/Object"},
}

// Bootstrap populates the registry with the core stand-in classes and the
// hand-built java/lang/String runtime shape, then links every one of them.
// Must be called once before resolving any user class, since user classes
// routinely reference java/lang/Object, the throwables, etc. as supers.
func (r *Registry) Bootstrap() error {
	for _, s := range coreHierarchy {
		r.register(vmclass.NewStandIn(s.name, s.super))
	}

	r.StringClass = vmclass.NewStringClassType()
	r.register(r.StringClass)

	for _, s := range coreHierarchy {
		ct, _ := r.Lookup(s.name)
		if err := ct.EnsureLinked(r); err != nil {
			return err
		}
	}
	return r.StringClass.EnsureLinked(r)
}
