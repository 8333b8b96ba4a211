package native

import (
	"testing"

	"classvm/vmclass"
	"classvm/vmvalue"
)

func setupTestStringClass() {
	SetStringClassType(vmclass.NewStringClassType())
	LoadAll()
}

func TestLookupFindsRegisteredNative(t *testing.T) {
	setupTestStringClass()
	g, ok := Lookup("java/lang/String", "length", "()I")
	if !ok {
		t.Fatalf("expected java/lang/String.length()I to be registered")
	}
	s := javaString("hello")
	ret := g.GFunction([]vmvalue.Value{s}, nil)
	n, ok := ret.(vmvalue.Int)
	if !ok || n != 5 {
		t.Errorf("length() = %v, want Int(5)", ret)
	}
}

func TestLookupMissingNativeFails(t *testing.T) {
	if _, ok := Lookup("com/example/NoSuchClass", "noSuchMethod", "()V"); ok {
		t.Fatalf("expected no native registered for an unknown triple")
	}
}

func TestHashMapPutGetRoundTrip(t *testing.T) {
	setupTestStringClass()
	mapCT := vmclass.NewStandIn("java/util/HashMap", "java/lang/Object")
	inst := vmclass.NewInstance(mapCT)

	initG, _ := Lookup("java/util/HashMap", "<init>", "()V")
	initG.GFunction([]vmvalue.Value{vmvalue.Ref{Obj: inst}}, nil)

	putG, _ := Lookup("java/util/HashMap", "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;")
	key := javaString("k")
	val := javaString("v")
	putG.GFunction([]vmvalue.Value{vmvalue.Ref{Obj: inst}, key, val}, nil)

	getG, _ := Lookup("java/util/HashMap", "get", "(Ljava/lang/Object;)Ljava/lang/Object;")
	got := getG.GFunction([]vmvalue.Value{vmvalue.Ref{Obj: inst}, key}, nil)
	gotStr, ok := vmclass.GoString(asInstance(got.(vmvalue.Value)))
	if !ok || gotStr != "v" {
		t.Errorf("get(k) = %v, want \"v\"", got)
	}
}

func TestObjectHashCodeIsStablePerInstance(t *testing.T) {
	ct := vmclass.NewStandIn("Foo", "java/lang/Object")
	inst := vmclass.NewInstance(ct)
	loadLangObject()
	g, _ := Lookup("java/lang/Object", "hashCode", "()I")
	h1 := g.GFunction([]vmvalue.Value{vmvalue.Ref{Obj: inst}}, nil)
	h2 := g.GFunction([]vmvalue.Value{vmvalue.Ref{Obj: inst}}, nil)
	if h1 != h2 {
		t.Errorf("hashCode() not stable across calls: %v != %v", h1, h2)
	}
}

func TestStringBuilderAppendChains(t *testing.T) {
	setupTestStringClass()
	ct := vmclass.NewStandIn("java/lang/StringBuilder", "java/lang/Object")
	inst := vmclass.NewInstance(ct)
	recv := vmvalue.Ref{Obj: inst}

	initG, _ := Lookup("java/lang/StringBuilder", "<init>", "()V")
	initG.GFunction([]vmvalue.Value{recv}, nil)

	appendStr, _ := Lookup("java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;")
	appendStr.GFunction([]vmvalue.Value{recv, javaString("ab")}, nil)
	appendInt, _ := Lookup("java/lang/StringBuilder", "append", "(I)Ljava/lang/StringBuilder;")
	appendInt.GFunction([]vmvalue.Value{recv, vmvalue.Int(12)}, nil)

	toStr, _ := Lookup("java/lang/StringBuilder", "toString", "()Ljava/lang/String;")
	out := toStr.GFunction([]vmvalue.Value{recv}, nil)
	s, ok := vmclass.GoString(asInstance(out.(vmvalue.Value)))
	if !ok || s != "ab12" {
		t.Errorf("toString() = %q, want \"ab12\"", s)
	}
}
