package classregistry

import "testing"

// memSource is a trivial in-memory Source for tests: a map of canonical
// class name to raw class bytes.
type memSource struct {
	classes map[string][]byte
	main    string
}

func (m *memSource) ClassBytes(name string) ([]byte, bool) {
	b, ok := m.classes[name]
	return b, ok
}

func (m *memSource) MainClass() (string, bool) {
	if m.main == "" {
		return "", false
	}
	return m.main, true
}

// buildTrivialClass assembles `class Foo extends java/lang/Object {}`.
func buildTrivialClass(name string) []byte {
	var b []byte
	u2 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }
	u4 := func(v uint32) { b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }
	utf8 := func(s string) {
		b = append(b, 1) // tagUTF8
		u2(uint16(len(s)))
		b = append(b, s...)
	}

	u4(0xCAFEBABE)
	u2(0)
	u2(52)

	u2(5)
	utf8(name)
	b = append(b, 7); u2(1) // Class -> #1
	utf8("java/lang/Object")
	b = append(b, 7); u2(3) // Class -> #3

	u2(0x0021) // public super
	u2(2)      // this
	u2(4)      // super
	u2(0)      // interfaces
	u2(0)      // fields
	u2(0)      // methods
	u2(0)      // attributes
	return b
}

func TestBootstrapAndResolveUserClass(t *testing.T) {
	r := New()
	if err := r.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	r.AddSource(&memSource{classes: map[string][]byte{"Foo": buildTrivialClass("Foo")}, main: "Foo"})

	ct, err := r.Resolve("Foo")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ct.Name != "Foo" {
		t.Errorf("Name = %q, want Foo", ct.Name)
	}
	if ct.Super == nil || ct.Super.Name != "java/lang/Object" {
		t.Errorf("expected Foo's super to resolve to java/lang/Object")
	}
	if !ct.CanCast("java/lang/Object") {
		t.Errorf("Foo should cast to java/lang/Object")
	}

	main, ok := r.MainClass()
	if !ok || main != "Foo" {
		t.Errorf("MainClass() = %q, %v, want Foo, true", main, ok)
	}
}

func TestResolveUnknownClassFails(t *testing.T) {
	r := New()
	if err := r.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, err := r.Resolve("DoesNotExist"); err == nil {
		t.Fatalf("expected an error resolving an unregistered class")
	}
}

func TestResolveCachesClassType(t *testing.T) {
	r := New()
	if err := r.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	r.AddSource(&memSource{classes: map[string][]byte{"Foo": buildTrivialClass("Foo")}})

	ct1, err := r.Resolve("Foo")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	ct2, err := r.Resolve("Foo")
	if err != nil {
		t.Fatalf("Resolve (second time): %v", err)
	}
	if ct1 != ct2 {
		t.Errorf("expected Resolve to cache and return the same *ClassType")
	}
}
