package classfile

import (
	"fmt"
	"io"
)

const (
	magic = 0xCAFEBABE

	// maxElementDepth bounds nesting of arrays and annotations inside one
	// element value.
	maxElementDepth = 64
)

// Attribute names the reader interprets. Everything else is skipped by length.
const (
	attrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	attrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	attrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	attrAnnotationDefault                    = "AnnotationDefault"
	attrSignature                            = "Signature"
	attrSourceFile                           = "SourceFile"
)

// Read consumes r fully and parses it as one class unit.
func Read(unit string, r io.Reader) (*RawClass, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit %s: %w", unit, err)
	}
	return Parse(unit, data)
}

// Parse reads one class unit into its raw descriptor. Any layout violation is
// reported as *MalformedUnitError.
func Parse(unit string, data []byte) (*RawClass, error) {
	r := &byteReader{unit: unit, data: data}

	m, err := r.u4("magic")
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, &MalformedUnitError{Unit: unit, Offset: 0, Reason: fmt.Sprintf("bad magic %#08x", m)}
	}

	rc := &RawClass{Unit: unit}
	if rc.MinorVersion, err = r.u2("minor version"); err != nil {
		return nil, err
	}
	if rc.MajorVersion, err = r.u2("major version"); err != nil {
		return nil, err
	}

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}

	if rc.Access, err = r.u2("access flags"); err != nil {
		return nil, err
	}
	thisIdx, err := r.u2("this class")
	if err != nil {
		return nil, err
	}
	if rc.Name, err = cp.className(r, thisIdx, "this class"); err != nil {
		return nil, err
	}
	superIdx, err := r.u2("super class")
	if err != nil {
		return nil, err
	}
	if superIdx != 0 {
		if rc.SuperName, err = cp.className(r, superIdx, "super class"); err != nil {
			return nil, err
		}
	}

	ifaceCount, err := r.u2("interfaces count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u2("interface")
		if err != nil {
			return nil, err
		}
		name, err := cp.className(r, idx, "interface")
		if err != nil {
			return nil, err
		}
		rc.Interfaces = append(rc.Interfaces, name)
	}

	if rc.Fields, err = readMembers(r, cp, FieldMember); err != nil {
		return nil, err
	}
	if rc.Methods, err = readMembers(r, cp, MethodMember); err != nil {
		return nil, err
	}

	err = readAttributes(r, cp, func(name string, ar *byteReader) error {
		switch name {
		case attrRuntimeVisibleAnnotations, attrRuntimeInvisibleAnnotations:
			anns, err := readAnnotations(ar, cp, name == attrRuntimeVisibleAnnotations)
			if err != nil {
				return err
			}
			rc.Annotations = append(rc.Annotations, anns...)
		case attrSignature:
			rc.Signature, err = readUtf8Attribute(ar, cp, name)
			return err
		case attrSourceFile:
			rc.SourceFile, err = readUtf8Attribute(ar, cp, name)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, r.fail("%d trailing bytes after class attributes", r.remaining())
	}
	return rc, nil
}

func readMembers(r *byteReader, cp *constantPool, kind MemberKind) ([]RawMember, error) {
	count, err := r.u2(kind.String() + "s count")
	if err != nil {
		return nil, err
	}
	members := make([]RawMember, 0, count)
	for i := 0; i < int(count); i++ {
		m := RawMember{Kind: kind}
		if m.Access, err = r.u2(kind.String() + " access flags"); err != nil {
			return nil, err
		}
		nameIdx, err := r.u2(kind.String() + " name")
		if err != nil {
			return nil, err
		}
		if m.Name, err = cp.utf8(r, nameIdx, kind.String()+" name"); err != nil {
			return nil, err
		}
		descIdx, err := r.u2(kind.String() + " descriptor")
		if err != nil {
			return nil, err
		}
		if m.Descriptor, err = cp.utf8(r, descIdx, kind.String()+" descriptor"); err != nil {
			return nil, err
		}
		err = readAttributes(r, cp, func(name string, ar *byteReader) error {
			switch name {
			case attrRuntimeVisibleAnnotations, attrRuntimeInvisibleAnnotations:
				anns, err := readAnnotations(ar, cp, name == attrRuntimeVisibleAnnotations)
				if err != nil {
					return err
				}
				m.Annotations = append(m.Annotations, anns...)
			case attrRuntimeVisibleParameterAnnotations, attrRuntimeInvisibleParameterAnnotations:
				params, err := readParameterAnnotations(ar, cp, name == attrRuntimeVisibleParameterAnnotations)
				if err != nil {
					return err
				}
				m.ParameterAnnotations = mergeParameterAnnotations(m.ParameterAnnotations, params)
			case attrAnnotationDefault:
				v, err := readElementValue(ar, cp, 0)
				if err != nil {
					return err
				}
				m.AnnotationDefault = &v
			case attrSignature:
				m.Signature, err = readUtf8Attribute(ar, cp, name)
				return err
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// readAttributes walks an attribute table, handing each attribute body to fn
// through a bounded reader.
func readAttributes(r *byteReader, cp *constantPool, fn func(name string, ar *byteReader) error) error {
	count, err := r.u2("attributes count")
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		nameIdx, err := r.u2("attribute name")
		if err != nil {
			return err
		}
		name, err := cp.utf8(r, nameIdx, "attribute name")
		if err != nil {
			return err
		}
		length, err := r.u4("attribute length")
		if err != nil {
			return err
		}
		if uint64(length) > uint64(r.remaining()) {
			return r.fail("attribute %s length %d exceeds remaining %d bytes", name, length, r.remaining())
		}
		ar, err := r.sub(int(length), "attribute "+name)
		if err != nil {
			return err
		}
		if err := fn(name, ar); err != nil {
			return err
		}
	}
	return nil
}

func readUtf8Attribute(ar *byteReader, cp *constantPool, name string) (string, error) {
	idx, err := ar.u2(name)
	if err != nil {
		return "", err
	}
	return cp.utf8(ar, idx, name)
}

func readAnnotations(r *byteReader, cp *constantPool, visible bool) ([]RawAnnotation, error) {
	count, err := r.u2("annotations count")
	if err != nil {
		return nil, err
	}
	anns := make([]RawAnnotation, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := readAnnotation(r, cp, visible, 0)
		if err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	return anns, nil
}

func readParameterAnnotations(r *byteReader, cp *constantPool, visible bool) ([][]RawAnnotation, error) {
	n, err := r.u1("parameters count")
	if err != nil {
		return nil, err
	}
	params := make([][]RawAnnotation, n)
	for i := range params {
		if params[i], err = readAnnotations(r, cp, visible); err != nil {
			return nil, err
		}
	}
	return params, nil
}

func mergeParameterAnnotations(dst, src [][]RawAnnotation) [][]RawAnnotation {
	for len(dst) < len(src) {
		dst = append(dst, nil)
	}
	for i := range src {
		dst[i] = append(dst[i], src[i]...)
	}
	return dst
}

func readAnnotation(r *byteReader, cp *constantPool, visible bool, depth int) (RawAnnotation, error) {
	if depth > maxElementDepth {
		return RawAnnotation{}, r.fail("annotation nesting deeper than %d", maxElementDepth)
	}
	typeIdx, err := r.u2("annotation type")
	if err != nil {
		return RawAnnotation{}, err
	}
	desc, err := cp.utf8(r, typeIdx, "annotation type")
	if err != nil {
		return RawAnnotation{}, err
	}
	typeName, err := FieldTypeName(desc)
	if err != nil {
		return RawAnnotation{}, r.fail("annotation type: %v", err)
	}
	pairs, err := r.u2("annotation element count")
	if err != nil {
		return RawAnnotation{}, err
	}
	a := RawAnnotation{TypeName: typeName, Visible: visible, Elements: make([]RawElement, 0, pairs)}
	for i := 0; i < int(pairs); i++ {
		nameIdx, err := r.u2("element name")
		if err != nil {
			return RawAnnotation{}, err
		}
		name, err := cp.utf8(r, nameIdx, "element name")
		if err != nil {
			return RawAnnotation{}, err
		}
		v, err := readElementValue(r, cp, depth+1)
		if err != nil {
			return RawAnnotation{}, err
		}
		v = withVisibility(v, visible)
		a.Elements = append(a.Elements, RawElement{Name: name, Value: v})
	}
	return a, nil
}

// withVisibility stamps the enclosing retention onto nested annotations, which
// carry none of their own in the binary layout.
func withVisibility(v RawElementValue, visible bool) RawElementValue {
	if v.Nested != nil {
		v.Nested.Visible = visible
		for i := range v.Nested.Elements {
			v.Nested.Elements[i].Value = withVisibility(v.Nested.Elements[i].Value, visible)
		}
	}
	for i := range v.Array {
		v.Array[i] = withVisibility(v.Array[i], visible)
	}
	return v
}

func readElementValue(r *byteReader, cp *constantPool, depth int) (RawElementValue, error) {
	if depth > maxElementDepth {
		return RawElementValue{}, r.fail("element value nesting deeper than %d", maxElementDepth)
	}
	at := r.offset()
	tag, err := r.u1("element value tag")
	if err != nil {
		return RawElementValue{}, err
	}
	v := RawElementValue{Tag: tag}
	switch tag {
	case TagByte, TagChar, TagDouble, TagFloat, TagInt, TagLong, TagShort, TagBoolean, TagString:
		idx, err := r.u2("element constant")
		if err != nil {
			return RawElementValue{}, err
		}
		if v.Const, err = cp.constant(r, idx, tag); err != nil {
			return RawElementValue{}, err
		}
	case TagEnum:
		typeIdx, err := r.u2("enum type")
		if err != nil {
			return RawElementValue{}, err
		}
		desc, err := cp.utf8(r, typeIdx, "enum type")
		if err != nil {
			return RawElementValue{}, err
		}
		if v.EnumType, err = FieldTypeName(desc); err != nil {
			return RawElementValue{}, r.fail("enum type: %v", err)
		}
		constIdx, err := r.u2("enum constant")
		if err != nil {
			return RawElementValue{}, err
		}
		if v.EnumConst, err = cp.utf8(r, constIdx, "enum constant"); err != nil {
			return RawElementValue{}, err
		}
	case TagClass:
		idx, err := r.u2("class value")
		if err != nil {
			return RawElementValue{}, err
		}
		desc, err := cp.utf8(r, idx, "class value")
		if err != nil {
			return RawElementValue{}, err
		}
		if v.ClassName, err = ReturnTypeName(desc); err != nil {
			return RawElementValue{}, r.fail("class value: %v", err)
		}
	case TagAnnotation:
		nested, err := readAnnotation(r, cp, false, depth+1)
		if err != nil {
			return RawElementValue{}, err
		}
		v.Nested = &nested
	case TagArray:
		n, err := r.u2("array length")
		if err != nil {
			return RawElementValue{}, err
		}
		v.Array = make([]RawElementValue, 0, n)
		for i := 0; i < int(n); i++ {
			ev, err := readElementValue(r, cp, depth+1)
			if err != nil {
				return RawElementValue{}, err
			}
			v.Array = append(v.Array, ev)
		}
	default:
		return RawElementValue{}, &MalformedUnitError{Unit: r.unit, Offset: at, Reason: fmt.Sprintf("invalid element value tag %q", tag)}
	}
	return v, nil
}
