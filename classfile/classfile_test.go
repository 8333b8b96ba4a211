package classfile

import "testing"

// buildMinimalClass hand-assembles, one field at a time, the bytes of a
// tiny class file: `class Foo extends java/lang/Object { static int
// add(int,int){ return a+b; } }`. No .class fixture file is used, matching
// the corpus's own style of constructing test classes a byte at a time.
func buildMinimalClass(t *testing.T) []byte {
	t.Helper()
	var b []byte

	u2 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }
	u4 := func(v uint32) { b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }
	utf8 := func(s string) {
		b = append(b, tagUTF8)
		u2(uint16(len(s)))
		b = append(b, s...)
	}

	u4(classMagic)
	u2(0)  // minor
	u2(52) // major

	// constant pool count = 8 (indices 1..7 used)
	u2(8)
	utf8("Foo")                      // #1
	b = append(b, tagClass); u2(1)   // #2 Class -> #1
	utf8("java/lang/Object")         // #3
	b = append(b, tagClass); u2(3)   // #4 Class -> #3
	utf8("Code")                     // #5
	utf8("add")                      // #6
	utf8("(II)I")                    // #7

	u2(AccPublic | AccSuper) // access flags
	u2(2)                    // this_class -> #2
	u2(4)                    // super_class -> #4
	u2(0)                    // interfaces_count

	u2(0) // fields_count

	u2(1)                     // methods_count
	u2(AccStatic | AccPublic) // access
	u2(6)                     // name -> "add"
	u2(7)                     // descriptor -> "(II)I"
	u2(1)                     // attributes_count
	u2(5)                     // attribute_name_index -> "Code"

	var code []byte
	codeU2 := func(v uint16) { code = append(code, byte(v>>8), byte(v)) }
	codeU4 := func(v uint32) { code = append(code, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }
	codeU2(2) // max_stack
	codeU2(2) // max_locals
	bytecode := []byte{0x1A, 0x1B, 0x60, 0xAC} // iload_0, iload_1, iadd, ireturn
	codeU4(uint32(len(bytecode)))
	code = append(code, bytecode...)
	codeU2(0) // exception_table_length
	codeU2(0) // attributes_count

	u4(uint32(len(code)))
	b = append(b, code...)

	u2(0) // class attributes_count

	return b
}

func TestParseMinimalClass(t *testing.T) {
	data := buildMinimalClass(t)
	cf, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cf.ThisClass != "Foo" {
		t.Errorf("ThisClass = %q, want Foo", cf.ThisClass)
	}
	if cf.SuperClass != "java/lang/Object" {
		t.Errorf("SuperClass = %q, want java/lang/Object", cf.SuperClass)
	}
	m, ok := cf.Method("add", "(II)I")
	if !ok {
		t.Fatalf("method add(II)I not found")
	}
	if m.Code == nil {
		t.Fatalf("expected Code attribute")
	}
	if m.Code.MaxStack != 2 || m.Code.MaxLocals != 2 {
		t.Errorf("MaxStack/MaxLocals = %d/%d, want 2/2", m.Code.MaxStack, m.Code.MaxLocals)
	}
	want := []byte{0x1A, 0x1B, 0x60, 0xAC}
	if len(m.Code.Code) != len(want) {
		t.Fatalf("code length = %d, want %d", len(m.Code.Code), len(want))
	}
	for i := range want {
		if m.Code.Code[i] != want[i] {
			t.Errorf("code[%d] = %#x, want %#x", i, m.Code.Code[i], want[i])
		}
	}
}

func TestParseBadMagic(t *testing.T) {
	data := []byte{0, 0, 0, 0}
	if _, err := Parse(data); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestParseTruncated(t *testing.T) {
	data := buildMinimalClass(t)
	_, err := Parse(data[:len(data)-10])
	if err == nil {
		t.Fatalf("expected error for truncated class data")
	}
}

func TestLongDoubleDoubleSlot(t *testing.T) {
	var b []byte
	u2 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }
	u4 := func(v uint32) { b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }
	utf8 := func(s string) {
		b = append(b, tagUTF8)
		u2(uint16(len(s)))
		b = append(b, s...)
	}

	u4(classMagic)
	u2(0)
	u2(52)

	// pool: #1 utf8 "Foo", #2 class->1, #3 long const (reserves #4), #5 utf8 Object, #6 class->5
	u2(7)
	utf8("Foo")
	b = append(b, tagClass); u2(1)
	b = append(b, tagLong)
	u4(0)
	u4(42)
	utf8("java/lang/Object")
	b = append(b, tagClass); u2(5)

	u2(AccPublic)
	u2(2)
	u2(6)
	u2(0)
	u2(0) // fields
	u2(0) // methods
	u2(0) // class attrs

	cf, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	v, err := cf.CP.LongAt(3)
	if err != nil {
		t.Fatalf("LongAt(3): %v", err)
	}
	if v != 42 {
		t.Errorf("long value = %d, want 42", v)
	}
	if len(cf.CP) <= 4 || cf.CP[4] != nil {
		t.Errorf("expected the long's trailing slot at index 4 to be empty")
	}
}
