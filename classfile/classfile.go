// Package classfile implements the class-file loader (C1-C4): a big-endian
// raw reader, the tagged constant pool with its resolution pass, the
// attribute model, and the top-level ClassFile record a field/method is
// read into. It never mutates the bytes it is given and never dereferences
// an index without checking it first.
package classfile

import "classvm/vmerrors"

// Access flag bits shared by classes, fields, and methods (only the subset
// the interpreter and class-type construction actually consult).
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSynchronized uint16 = 0x0020
	AccSuper        uint16 = 0x0020
	AccVolatile     uint16 = 0x0040
	AccBridge       uint16 = 0x0040
	AccTransient    uint16 = 0x0080
	AccVarargs      uint16 = 0x0080
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccEnum         uint16 = 0x4000
)

const classMagic = 0xCAFEBABE

// FieldInfo is one field_info record (C4): access flags plus decoded name
// and descriptor, and its raw attributes (ConstantValue, if present, is
// resolved lazily by the caller via ConstantValueIndex).
type FieldInfo struct {
	AccessFlags        uint16
	Name                string
	Descriptor          string
	Attributes          []Attribute
	ConstantValueIndex uint16 // 0 if no ConstantValue attribute
}

// IsStatic reports whether this field is a class (static) field.
func (f FieldInfo) IsStatic() bool { return f.AccessFlags&AccStatic != 0 }

// MethodInfo is one method_info record (C4). Code is nil for abstract and
// native methods; IsNative distinguishes the latter so the interpreter
// routes dispatch to the native registry instead of failing to find a Code
// attribute.
type MethodInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []Attribute
	Code        *CodeAttribute
}

func (m MethodInfo) IsStatic() bool   { return m.AccessFlags&AccStatic != 0 }
func (m MethodInfo) IsNative() bool   { return m.AccessFlags&AccNative != 0 }
func (m MethodInfo) IsAbstract() bool { return m.AccessFlags&AccAbstract != 0 }

// ClassFile is the fully-parsed, fully-resolved class blob (C4): a typed
// record whose constant pool carries decoded text and whose field/method
// records carry their decoded name and descriptor. <clinit>, if present, is
// just a MethodInfo named "<clinit>".
type ClassFile struct {
	Minor, Major uint16
	CP           ConstantPool
	AccessFlags  uint16
	ThisClass    string
	SuperClass   string // empty for java/lang/Object
	Interfaces   []string
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []Attribute
	SourceFile   string
}

// IsInterface reports whether this class file declares an interface.
func (c *ClassFile) IsInterface() bool { return c.AccessFlags&AccInterface != 0 }

// Method finds a method by exact name+descriptor match, the lookup the
// class-type construction and the interpreter's invoke* opcodes both need.
func (c *ClassFile) Method(name, desc string) (*MethodInfo, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name && c.Methods[i].Descriptor == desc {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

// Field finds a field by exact name match (descriptors don't overload field
// names within one class the way they do methods).
func (c *ClassFile) Field(name string) (*FieldInfo, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// Parse reads one class blob into a ClassFile (the C4 "load" operation).
// It fails with a ClassFormatErr when magic, a length, or an index
// reference is invalid; it has no side effects beyond allocation.
func Parse(data []byte) (*ClassFile, error) {
	r := newReader(data)

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, vmerrors.ClassFormatError("bad magic number")
	}

	minor, err := r.u2()
	if err != nil {
		return nil, err
	}
	major, err := r.u2()
	if err != nil {
		return nil, err
	}

	cp, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	accessFlags, err := r.u2()
	if err != nil {
		return nil, err
	}
	thisIdx, err := r.u2()
	if err != nil {
		return nil, err
	}
	thisClass, err := cp.ClassNameAt(thisIdx)
	if err != nil {
		return nil, err
	}
	superIdx, err := r.u2()
	if err != nil {
		return nil, err
	}
	var superClass string
	if superIdx != 0 {
		superClass, err = cp.ClassNameAt(superIdx)
		if err != nil {
			return nil, err
		}
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	interfaces := make([]string, ifaceCount)
	for i := range interfaces {
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.ClassNameAt(idx)
		if err != nil {
			return nil, err
		}
		interfaces[i] = name
	}

	fields, err := parseFields(r, cp)
	if err != nil {
		return nil, err
	}

	methods, err := parseMethods(r, cp)
	if err != nil {
		return nil, err
	}

	classAttrs, err := parseAttributes(r, cp)
	if err != nil {
		return nil, err
	}

	sourceFile := ""
	if sf, ok := findAttribute(classAttrs, "SourceFile"); ok {
		sr := newReader(sf.Data)
		idx, err := sr.u2()
		if err == nil {
			if name, err := cp.Utf8At(idx); err == nil {
				sourceFile = name
			}
		}
	}

	return &ClassFile{
		Minor: minor, Major: major, CP: cp,
		AccessFlags: accessFlags,
		ThisClass:   thisClass, SuperClass: superClass,
		Interfaces: interfaces,
		Fields:     fields, Methods: methods,
		Attributes: classAttrs, SourceFile: sourceFile,
	}, nil
}

func parseFields(r *reader, cp ConstantPool) ([]FieldInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldInfo, count)
	for i := range fields {
		flags, err := r.u2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.Utf8At(nameIdx)
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		desc, err := cp.Utf8At(descIdx)
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r, cp)
		if err != nil {
			return nil, err
		}
		var cvIndex uint16
		if cv, ok := findAttribute(attrs, "ConstantValue"); ok {
			cr := newReader(cv.Data)
			idx, err := cr.u2()
			if err != nil {
				return nil, err
			}
			cvIndex = idx
		}
		fields[i] = FieldInfo{
			AccessFlags: flags, Name: name, Descriptor: desc,
			Attributes: attrs, ConstantValueIndex: cvIndex,
		}
	}
	return fields, nil
}

func parseMethods(r *reader, cp ConstantPool) ([]MethodInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	methods := make([]MethodInfo, count)
	for i := range methods {
		flags, err := r.u2()
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.Utf8At(nameIdx)
		if err != nil {
			return nil, err
		}
		descIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		desc, err := cp.Utf8At(descIdx)
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r, cp)
		if err != nil {
			return nil, err
		}
		var code *CodeAttribute
		if ca, ok := findAttribute(attrs, "Code"); ok {
			code, err = ParseCode(ca, cp)
			if err != nil {
				return nil, err
			}
		}
		methods[i] = MethodInfo{
			AccessFlags: flags, Name: name, Descriptor: desc,
			Attributes: attrs, Code: code,
		}
	}
	return methods, nil
}
