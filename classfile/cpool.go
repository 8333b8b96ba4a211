package classfile

import (
	"math"

	"classvm/vmerrors"
)

// Constant-pool tags (C2), as laid out in the external class-file format.
const (
	tagUTF8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// CPEntry is a tagged constant-pool slot. Only the fields relevant to Tag
// are meaningful; everything else is the zero value. Class/NameAndType/
// String/MethodType entries start out holding only raw indices and are
// filled in with decoded text by the resolution pass in resolve().
type CPEntry struct {
	Tag byte

	// tagUTF8
	Utf8 string

	// tagInteger / tagFloat / tagLong / tagDouble
	IntVal    int32
	FloatVal  float32
	LongVal   int64
	DoubleVal float64

	// tagClass: index into the pool of the UTF8 holding the slash-form name
	NameIndex uint16
	ClassName string // resolved

	// tagString: index of the UTF8 payload
	StringIndex uint16
	StringVal   string // resolved

	// tagNameAndType
	NatNameIndex uint16
	NatDescIndex uint16
	NatName      string // resolved
	NatDesc      string // resolved

	// tagFieldref / tagMethodref / tagInterfaceMethodref
	RefClassIndex uint16
	RefNatIndex   uint16

	// tagMethodHandle
	RefKind  byte
	RefIndex uint16

	// tagMethodType: index of the UTF8 descriptor
	DescIndex uint16
	DescVal   string // resolved

	// tagInvokeDynamic / tagDynamic
	BootstrapMethodAttrIndex uint16
	// reuses NatNameIndex/NatDescIndex/NatName/NatDesc for the associated
	// name-and-type entry
}

// ConstantPool is the 1-indexed vector of tagged entries (C2). Index 0 is
// always nil, as are the trailing slots long/double entries reserve.
type ConstantPool []*CPEntry

func (cp ConstantPool) at(idx uint16) (*CPEntry, error) {
	if int(idx) >= len(cp) || cp[idx] == nil {
		return nil, vmerrors.ClassFormatError("constant pool index out of range or empty slot")
	}
	return cp[idx], nil
}

// Utf8At returns the decoded text of a UTF8 entry at idx.
func (cp ConstantPool) Utf8At(idx uint16) (string, error) {
	e, err := cp.at(idx)
	if err != nil {
		return "", err
	}
	if e.Tag != tagUTF8 {
		return "", vmerrors.ClassFormatError("expected UTF8 constant pool entry")
	}
	return e.Utf8, nil
}

// ClassNameAt returns the resolved slash-form name of a Class entry.
func (cp ConstantPool) ClassNameAt(idx uint16) (string, error) {
	if idx == 0 {
		return "", nil
	}
	e, err := cp.at(idx)
	if err != nil {
		return "", err
	}
	if e.Tag != tagClass {
		return "", vmerrors.ClassFormatError("expected Class constant pool entry")
	}
	return e.ClassName, nil
}

// NameAndTypeAt returns the resolved (name, descriptor) pair.
func (cp ConstantPool) NameAndTypeAt(idx uint16) (string, string, error) {
	e, err := cp.at(idx)
	if err != nil {
		return "", "", err
	}
	if e.Tag != tagNameAndType {
		return "", "", vmerrors.ClassFormatError("expected NameAndType constant pool entry")
	}
	return e.NatName, e.NatDesc, nil
}

// RefAt returns (className, name, descriptor) for a Fieldref, Methodref or
// InterfaceMethodref entry — the shape the interpreter needs for getfield,
// invokevirtual, etc.
func (cp ConstantPool) RefAt(idx uint16) (className, name, desc string, err error) {
	e, err := cp.at(idx)
	if err != nil {
		return "", "", "", err
	}
	switch e.Tag {
	case tagFieldref, tagMethodref, tagInterfaceMethodref:
	default:
		return "", "", "", vmerrors.ClassFormatError("expected a ref constant pool entry")
	}
	className, err = cp.ClassNameAt(e.RefClassIndex)
	if err != nil {
		return "", "", "", err
	}
	nat, errE := cp.at(e.RefNatIndex)
	if errE != nil {
		return "", "", "", errE
	}
	return className, nat.NatName, nat.NatDesc, nil
}

// IntegerAt, LongAt, FloatAt, DoubleAt, StringAt fetch literal entries used
// by ldc/ldc2_w and by ConstantValue attribute resolution.
func (cp ConstantPool) IntegerAt(idx uint16) (int32, error) {
	e, err := cp.at(idx)
	if err != nil || e.Tag != tagInteger {
		return 0, vmerrors.ClassFormatError("expected Integer constant pool entry")
	}
	return e.IntVal, nil
}

func (cp ConstantPool) LongAt(idx uint16) (int64, error) {
	e, err := cp.at(idx)
	if err != nil || e.Tag != tagLong {
		return 0, vmerrors.ClassFormatError("expected Long constant pool entry")
	}
	return e.LongVal, nil
}

func (cp ConstantPool) FloatAt(idx uint16) (float32, error) {
	e, err := cp.at(idx)
	if err != nil || e.Tag != tagFloat {
		return 0, vmerrors.ClassFormatError("expected Float constant pool entry")
	}
	return e.FloatVal, nil
}

func (cp ConstantPool) DoubleAt(idx uint16) (float64, error) {
	e, err := cp.at(idx)
	if err != nil || e.Tag != tagDouble {
		return 0, vmerrors.ClassFormatError("expected Double constant pool entry")
	}
	return e.DoubleVal, nil
}

func (cp ConstantPool) StringAt(idx uint16) (string, error) {
	e, err := cp.at(idx)
	if err != nil || e.Tag != tagString {
		return "", vmerrors.ClassFormatError("expected String constant pool entry")
	}
	return e.StringVal, nil
}

// Tag exposes the raw tag for callers (ldc) that must dispatch on entry
// kind generically, mirroring the teacher's FetchCPentry/IS_* pattern.
func (cp ConstantPool) Tag(idx uint16) (byte, error) {
	e, err := cp.at(idx)
	if err != nil {
		return 0, err
	}
	return e.Tag, nil
}

// parseConstantPool reads the pool as laid out on the wire, then makes a
// second pass to resolve Class/NameAndType/String/MethodType indirections
// against their UTF8 backing entries, attaching decoded text to each
// referencing entry as spec.md §3 "Constant pool" requires.
func parseConstantPool(r *reader) (ConstantPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	cp := make(ConstantPool, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		entry := &CPEntry{Tag: tag}
		switch tag {
		case tagUTF8:
			length, err := r.u2()
			if err != nil {
				return nil, err
			}
			raw, err := r.bytes(int(length))
			if err != nil {
				return nil, err
			}
			entry.Utf8 = string(raw)
		case tagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			entry.IntVal = int32(v)
		case tagFloat:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			entry.FloatVal = u32ToFloat32(v)
		case tagLong:
			hi, err := r.u4()
			if err != nil {
				return nil, err
			}
			lo, err := r.u4()
			if err != nil {
				return nil, err
			}
			entry.LongVal = int64(hi)<<32 | int64(lo)
			cp[i] = entry
			i++ // long/double reserve a trailing empty slot
			continue
		case tagDouble:
			hi, err := r.u4()
			if err != nil {
				return nil, err
			}
			lo, err := r.u4()
			if err != nil {
				return nil, err
			}
			entry.DoubleVal = u64ToFloat64(uint64(hi)<<32 | uint64(lo))
			cp[i] = entry
			i++
			continue
		case tagClass:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.NameIndex = idx
		case tagString:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.StringIndex = idx
		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			ci, err := r.u2()
			if err != nil {
				return nil, err
			}
			ni, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.RefClassIndex = ci
			entry.RefNatIndex = ni
		case tagNameAndType:
			ni, err := r.u2()
			if err != nil {
				return nil, err
			}
			di, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.NatNameIndex = ni
			entry.NatDescIndex = di
		case tagMethodHandle:
			kind, err := r.u1()
			if err != nil {
				return nil, err
			}
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.RefKind = kind
			entry.RefIndex = idx
		case tagMethodType:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.DescIndex = idx
		case tagDynamic, tagInvokeDynamic:
			bmai, err := r.u2()
			if err != nil {
				return nil, err
			}
			nti, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.BootstrapMethodAttrIndex = bmai
			entry.NatNameIndex = nti // reused: index of the NameAndType entry
		case tagModule, tagPackage:
			idx, err := r.u2()
			if err != nil {
				return nil, err
			}
			entry.NameIndex = idx
		default:
			return nil, vmerrors.ClassFormatError("unrecognized constant pool tag")
		}
		cp[i] = entry
	}
	if err := resolveConstantPool(cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// resolveConstantPool is the "second pass" spec.md describes: attach
// decoded strings to every entry that only carries indices after the first
// pass.
func resolveConstantPool(cp ConstantPool) error {
	for _, e := range cp {
		if e == nil {
			continue
		}
		switch e.Tag {
		case tagClass:
			name, err := cp.Utf8At(e.NameIndex)
			if err != nil {
				return err
			}
			e.ClassName = name
		case tagString:
			s, err := cp.Utf8At(e.StringIndex)
			if err != nil {
				return err
			}
			e.StringVal = s
		case tagNameAndType:
			n, err := cp.Utf8At(e.NatNameIndex)
			if err != nil {
				return err
			}
			d, err := cp.Utf8At(e.NatDescIndex)
			if err != nil {
				return err
			}
			e.NatName, e.NatDesc = n, d
		case tagMethodType:
			d, err := cp.Utf8At(e.DescIndex)
			if err != nil {
				return err
			}
			e.DescVal = d
		case tagDynamic, tagInvokeDynamic:
			nat, err := cp.at(e.NatNameIndex)
			if err != nil {
				return err
			}
			if nat.Tag != tagNameAndType {
				return vmerrors.ClassFormatError("invoke-dynamic does not reference a NameAndType entry")
			}
			e.NatName, e.NatDesc = nat.NatName, nat.NatDesc
		}
	}
	return nil
}

func u32ToFloat32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func u64ToFloat64(bits uint64) float64 {
	return math.Float64frombits(bits)
}
