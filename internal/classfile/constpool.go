package classfile

import "strconv"

// Constant pool tags.
const (
	tagUtf8               = 1
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

type cpEntry struct {
	tag  byte
	str  string
	i32  int32
	i64  int64
	f32  float32
	f64  float64
	ref1 uint16
	ref2 uint16
}

// constantPool is indexed from 1; slot 0 and the slot after a long or double
// stay zero-valued.
type constantPool struct {
	unit    string
	entries []cpEntry
}

func readConstantPool(r *byteReader) (*constantPool, error) {
	count, err := r.u2("constant pool count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, r.fail("constant pool count must be at least 1")
	}
	cp := &constantPool{unit: r.unit, entries: make([]cpEntry, count)}
	for i := 1; i < int(count); i++ {
		at := r.offset()
		tag, err := r.u1("constant pool tag")
		if err != nil {
			return nil, err
		}
		e := cpEntry{tag: tag}
		switch tag {
		case tagUtf8:
			n, err := r.u2("utf8 length")
			if err != nil {
				return nil, err
			}
			raw, err := r.bytes(int(n), "utf8 bytes")
			if err != nil {
				return nil, err
			}
			s, ok := decodeModifiedUTF8(raw)
			if !ok {
				return nil, &MalformedUnitError{Unit: r.unit, Offset: at, Reason: "invalid modified utf-8 in constant pool"}
			}
			e.str = s
		case tagInteger:
			v, err := r.u4("integer constant")
			if err != nil {
				return nil, err
			}
			e.i32 = int32(v)
		case tagFloat:
			v, err := r.u4("float constant")
			if err != nil {
				return nil, err
			}
			e.f32 = float32FromBits(v)
		case tagLong:
			v, err := r.u8("long constant")
			if err != nil {
				return nil, err
			}
			e.i64 = int64(v)
		case tagDouble:
			v, err := r.u8("double constant")
			if err != nil {
				return nil, err
			}
			e.f64 = float64FromBits(v)
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			if e.ref1, err = r.u2("constant reference"); err != nil {
				return nil, err
			}
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			if e.ref1, err = r.u2("constant reference"); err != nil {
				return nil, err
			}
			if e.ref2, err = r.u2("constant reference"); err != nil {
				return nil, err
			}
		case tagMethodHandle:
			kind, err := r.u1("method handle kind")
			if err != nil {
				return nil, err
			}
			e.ref1 = uint16(kind)
			if e.ref2, err = r.u2("method handle reference"); err != nil {
				return nil, err
			}
		default:
			return nil, &MalformedUnitError{Unit: r.unit, Offset: at, Reason: "invalid constant pool tag " + strconv.Itoa(int(tag))}
		}
		cp.entries[i] = e
		if tag == tagLong || tag == tagDouble {
			i++
		}
	}
	return cp, nil
}

func (cp *constantPool) entry(r *byteReader, idx uint16, tag byte, what string) (cpEntry, error) {
	if idx == 0 || int(idx) >= len(cp.entries) {
		return cpEntry{}, r.fail("%s: constant pool index %d out of range", what, idx)
	}
	e := cp.entries[idx]
	if e.tag != tag {
		return cpEntry{}, r.fail("%s: constant pool index %d has tag %d, want %d", what, idx, e.tag, tag)
	}
	return e, nil
}

func (cp *constantPool) utf8(r *byteReader, idx uint16, what string) (string, error) {
	e, err := cp.entry(r, idx, tagUtf8, what)
	if err != nil {
		return "", err
	}
	return e.str, nil
}

// className resolves a CONSTANT_Class to a binary type name.
func (cp *constantPool) className(r *byteReader, idx uint16, what string) (string, error) {
	e, err := cp.entry(r, idx, tagClass, what)
	if err != nil {
		return "", err
	}
	internal, err := cp.utf8(r, e.ref1, what)
	if err != nil {
		return "", err
	}
	if len(internal) > 0 && internal[0] == '[' {
		name, err := FieldTypeName(internal)
		if err != nil {
			return "", r.fail("%s: %v", what, err)
		}
		return name, nil
	}
	return BinaryName(internal), nil
}

// constant returns the Go value for a primitive or string element value.
func (cp *constantPool) constant(r *byteReader, idx uint16, elementTag byte) (any, error) {
	switch elementTag {
	case TagByte, TagChar, TagInt, TagShort, TagBoolean:
		e, err := cp.entry(r, idx, tagInteger, "element constant")
		if err != nil {
			return nil, err
		}
		return e.i32, nil
	case TagLong:
		e, err := cp.entry(r, idx, tagLong, "element constant")
		if err != nil {
			return nil, err
		}
		return e.i64, nil
	case TagFloat:
		e, err := cp.entry(r, idx, tagFloat, "element constant")
		if err != nil {
			return nil, err
		}
		return e.f32, nil
	case TagDouble:
		e, err := cp.entry(r, idx, tagDouble, "element constant")
		if err != nil {
			return nil, err
		}
		return e.f64, nil
	case TagString:
		return cp.utf8(r, idx, "element constant")
	}
	return nil, r.fail("element tag %q has no constant", elementTag)
}
