package classfile

import "classvm/vmerrors"

// Attribute owns its raw bytes verbatim (C3): most attributes are never
// looked at again after class loading, so there is no value in eagerly
// parsing every one of them. Code is parsed because the interpreter and the
// exception protocol need it on every call; its LineNumberTable is parsed
// along with it.
type Attribute struct {
	Name string
	Data []byte
}

// ExceptionTableEntry is one row of a Code attribute's exception table.
// CatchType 0 means "catches everything" per the external class-file
// format.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// LineNumberEntry maps a code offset to a source line. Nothing in this
// module reads these entries after parsing; printStackTrace does not use
// them.
type LineNumberEntry struct {
	StartPC uint16
	Line    uint16
}

// CodeAttribute is the parsed form of a method's Code attribute (C3/C11):
// everything the interpreter needs to build an execution frame.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	LineNumbers    []LineNumberEntry
	Attributes     []Attribute
}

// parseAttributes reads attribute_count Attribute records in the shape
// shared by class, field, method, and Code levels: u2 name index, u4
// length, length raw bytes.
func parseAttributes(r *reader, cp ConstantPool) ([]Attribute, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.Utf8At(nameIdx)
		if err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		data, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{Name: name, Data: data})
	}
	return attrs, nil
}

// ParseCode re-opens a raw "Code" attribute's bytes into a typed
// CodeAttribute, per C3's "lazy re-open of raw attribute bytes" design.
func ParseCode(a Attribute, cp ConstantPool) (*CodeAttribute, error) {
	if a.Name != "Code" {
		return nil, vmerrors.ClassFormatError("attribute is not a Code attribute")
	}
	r := newReader(a.Data)
	maxStack, err := r.u2()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u2()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.u4()
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	excCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	excTable := make([]ExceptionTableEntry, excCount)
	for i := range excTable {
		start, err := r.u2()
		if err != nil {
			return nil, err
		}
		end, err := r.u2()
		if err != nil {
			return nil, err
		}
		handler, err := r.u2()
		if err != nil {
			return nil, err
		}
		catch, err := r.u2()
		if err != nil {
			return nil, err
		}
		excTable[i] = ExceptionTableEntry{StartPC: start, EndPC: end, HandlerPC: handler, CatchType: catch}
	}
	nested, err := parseAttributes(r, cp)
	if err != nil {
		return nil, err
	}
	lines, err := parseLineNumberTable(nested, cp)
	if err != nil {
		return nil, err
	}
	return &CodeAttribute{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           code,
		ExceptionTable: excTable,
		LineNumbers:    lines,
		Attributes:     nested,
	}, nil
}

func parseLineNumberTable(attrs []Attribute, cp ConstantPool) ([]LineNumberEntry, error) {
	for _, a := range attrs {
		if a.Name != "LineNumberTable" {
			continue
		}
		r := newReader(a.Data)
		count, err := r.u2()
		if err != nil {
			return nil, err
		}
		entries := make([]LineNumberEntry, count)
		for i := range entries {
			startPC, err := r.u2()
			if err != nil {
				return nil, err
			}
			line, err := r.u2()
			if err != nil {
				return nil, err
			}
			entries[i] = LineNumberEntry{StartPC: startPC, Line: line}
		}
		return entries, nil
	}
	return nil, nil
}

// ExceptionTableAt returns the subset of a Code attribute's exception table
// whose [StartPC, EndPC) window covers pc, in table order — the "view over
// the enclosing method's exception table" spec.md §3 describes for Frame.
func (c *CodeAttribute) ExceptionTableAt(pc int) []ExceptionTableEntry {
	var active []ExceptionTableEntry
	for _, e := range c.ExceptionTable {
		if pc >= int(e.StartPC) && pc < int(e.EndPC) {
			active = append(active, e)
		}
	}
	return active
}

func findAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}
