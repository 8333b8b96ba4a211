package vmclass

import (
	"testing"

	"classvm/classfile"
	"classvm/vmvalue"
)

func objectCF() *classfile.ClassFile {
	return &classfile.ClassFile{ThisClass: "java/lang/Object"}
}

func baseCF() *classfile.ClassFile {
	return &classfile.ClassFile{
		ThisClass:  "Base",
		SuperClass: "java/lang/Object",
		Methods: []classfile.MethodInfo{
			{Name: "f", Descriptor: "()I", Code: &classfile.CodeAttribute{}},
		},
	}
}

func derivedCF() *classfile.ClassFile {
	return &classfile.ClassFile{
		ThisClass:  "Derived",
		SuperClass: "Base",
		Methods: []classfile.MethodInfo{
			{Name: "f", Descriptor: "()I", Code: &classfile.CodeAttribute{}},
		},
	}
}

type testResolver map[string]*ClassType

func (r testResolver) Resolve(name string) (*ClassType, error) {
	return r[name], nil
}

func TestVirtualDispatchPicksMostDerived(t *testing.T) {
	objCT := NewClassType(objectCF())
	baseCT := NewClassType(baseCF())
	derivedCT := NewClassType(derivedCF())

	resolver := testResolver{"java/lang/Object": objCT, "Base": baseCT, "Derived": derivedCT}
	for _, ct := range []*ClassType{objCT, baseCT, derivedCT} {
		if err := ct.EnsureLinked(resolver); err != nil {
			t.Fatalf("EnsureLinked: %v", err)
		}
	}

	owner, _, ok := derivedCT.FindMethod("f", "()I")
	if !ok {
		t.Fatalf("expected to find f()I")
	}
	if owner.Name != "Derived" {
		t.Errorf("dispatch owner = %s, want Derived", owner.Name)
	}
}

func TestCanCast(t *testing.T) {
	objCT := NewClassType(objectCF())
	baseCT := NewClassType(baseCF())
	derivedCT := NewClassType(derivedCF())
	resolver := testResolver{"java/lang/Object": objCT, "Base": baseCT, "Derived": derivedCT}
	for _, ct := range []*ClassType{objCT, baseCT, derivedCT} {
		_ = ct.EnsureLinked(resolver)
	}
	if !derivedCT.CanCast("Base") {
		t.Errorf("Derived should cast to Base")
	}
	if !derivedCT.CanCast("java/lang/Object") {
		t.Errorf("Derived should cast to java/lang/Object")
	}
	if derivedCT.CanCast("Unrelated") {
		t.Errorf("Derived should not cast to Unrelated")
	}
}

func TestStaticInitRunsOnce(t *testing.T) {
	cf := &classfile.ClassFile{
		ThisClass: "A",
		Methods: []classfile.MethodInfo{
			{Name: "<clinit>", Descriptor: "()V", Code: &classfile.CodeAttribute{}},
		},
	}
	ct := NewClassType(cf)
	count := 0
	run := func(ct *ClassType) error {
		count++
		return nil
	}
	if err := ct.EnsureStaticInit(run); err != nil {
		t.Fatalf("EnsureStaticInit: %v", err)
	}
	if err := ct.EnsureStaticInit(run); err != nil {
		t.Fatalf("EnsureStaticInit (second call): %v", err)
	}
	if count != 1 {
		t.Errorf("<clinit> ran %d times, want 1", count)
	}
}

func TestMultiDimArrayBoundaryCase(t *testing.T) {
	// new int[3][0][2]: a length-3 outer array of length-0 middle arrays;
	// the deepest dimension is never allocated.
	arr := MakeNDim("I", []int{3, 0, 2})
	if arr.Len() != 3 {
		t.Fatalf("outer length = %d, want 3", arr.Len())
	}
	v, ok := arr.Load(0)
	if !ok {
		t.Fatalf("Load(0) failed")
	}
	ref, ok := v.(vmvalue.Ref)
	if !ok {
		t.Fatalf("expected outer element to be a Ref, got %T", v)
	}
	middle, ok := ref.Obj.(*Array)
	if !ok {
		t.Fatalf("expected outer element to wrap a nested *Array, got %T", ref.Obj)
	}
	if middle.Len() != 0 {
		t.Errorf("middle array length = %d, want 0", middle.Len())
	}
}

func TestStringInternIdentity(t *testing.T) {
	stringCT := NewStringClassType()
	s1 := Intern(stringCT, "hello")
	s2 := Intern(stringCT, "hello")
	if s1 != s2 {
		t.Errorf("interned strings with equal content should share identity")
	}
	s3 := NewJavaString(stringCT, "hello")
	if s3 == s1 {
		t.Errorf("a freshly constructed (non-interned) string should not already share identity")
	}
	goStr, ok := GoString(s1)
	if !ok || goStr != "hello" {
		t.Errorf("GoString = %q, %v, want hello, true", goStr, ok)
	}
}

func TestReflectTypeInterning(t *testing.T) {
	a := GetReflectType("I")
	b := GetReflectType("I")
	if a != b {
		t.Errorf("primitive reflect types should be interned")
	}
	c := GetReflectType("java/lang/String")
	d := GetReflectType("Ljava/lang/String;")
	if c != d {
		t.Errorf("class reflect types should be interned across descriptor/slash-name forms")
	}
	if c.ClassName != "java/lang/String" {
		t.Errorf("ClassName = %q, want java/lang/String", c.ClassName)
	}
	arr := GetReflectType("[I")
	if arr.Kind != ReflectArray || arr.Component != a {
		t.Errorf("array reflect type should wrap the interned component type")
	}
}
