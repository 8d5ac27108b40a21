package annotation

import (
	"fmt"

	"classgraph/internal/classfile"
)

// DecodeError reports a raw element value that cannot be mapped onto a Value.
// Path names the element, e.g. "@com.example.A.values[2]".
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode annotation element %s: %s", e.Path, e.Reason)
}

// DecodeAnnotation decodes every element of raw, keeping element order.
func DecodeAnnotation(raw classfile.RawAnnotation) (Annotation, error) {
	return decodeAnnotation(raw, "@"+raw.TypeName)
}

// Decode converts a single raw element value.
func Decode(raw classfile.RawElementValue) (Value, error) {
	return decodeValue(raw, "value")
}

func decodeAnnotation(raw classfile.RawAnnotation, path string) (Annotation, error) {
	a := Annotation{Type: raw.TypeName, Visible: raw.Visible}
	if len(raw.Elements) > 0 {
		a.Elements = make([]Element, 0, len(raw.Elements))
	}
	seen := make(map[string]bool, len(raw.Elements))
	for _, e := range raw.Elements {
		if seen[e.Name] {
			return Annotation{}, &DecodeError{Path: path + "." + e.Name, Reason: "duplicate element name"}
		}
		seen[e.Name] = true
		v, err := decodeValue(e.Value, path+"."+e.Name)
		if err != nil {
			return Annotation{}, err
		}
		a.Elements = append(a.Elements, Element{Name: e.Name, Value: v})
	}
	return a, nil
}

func decodeValue(raw classfile.RawElementValue, path string) (Value, error) {
	switch raw.Tag {
	case classfile.TagString:
		s, ok := raw.Const.(string)
		if !ok {
			return Value{}, &DecodeError{Path: path, Reason: fmt.Sprintf("string constant has type %T", raw.Const)}
		}
		return OfString(s), nil
	case classfile.TagEnum:
		return OfEnum(EnumRef{Type: raw.EnumType, Name: raw.EnumConst}), nil
	case classfile.TagClass:
		return OfClass(raw.ClassName), nil
	case classfile.TagAnnotation:
		if raw.Nested == nil {
			return Value{}, &DecodeError{Path: path, Reason: "annotation value without nested annotation"}
		}
		a, err := decodeAnnotation(*raw.Nested, path+"@"+raw.Nested.TypeName)
		if err != nil {
			return Value{}, err
		}
		return OfAnnotation(a), nil
	case classfile.TagArray:
		return decodeArray(raw.Array, path)
	}
	if classfile.IsPrimitiveTag(raw.Tag) {
		p, err := decodePrimitive(raw, path)
		if err != nil {
			return Value{}, err
		}
		return OfPrimitive(p), nil
	}
	return Value{}, &DecodeError{Path: path, Reason: fmt.Sprintf("unknown tag %q", raw.Tag)}
}

func decodePrimitive(raw classfile.RawElementValue, path string) (Primitive, error) {
	bad := func() (Primitive, error) {
		return Primitive{}, &DecodeError{Path: path, Reason: fmt.Sprintf("tag %q with constant of type %T", raw.Tag, raw.Const)}
	}
	switch raw.Tag {
	case classfile.TagLong:
		v, ok := raw.Const.(int64)
		if !ok {
			return bad()
		}
		return LongOf(v), nil
	case classfile.TagFloat:
		v, ok := raw.Const.(float32)
		if !ok {
			return bad()
		}
		return FloatOf(v), nil
	case classfile.TagDouble:
		v, ok := raw.Const.(float64)
		if !ok {
			return bad()
		}
		return DoubleOf(v), nil
	}
	v, ok := raw.Const.(int32)
	if !ok {
		return bad()
	}
	switch raw.Tag {
	case classfile.TagBoolean:
		return BoolOf(v != 0), nil
	case classfile.TagByte:
		return ByteOf(int8(v)), nil
	case classfile.TagChar:
		return CharOf(uint16(v)), nil
	case classfile.TagShort:
		return ShortOf(int16(v)), nil
	default:
		return IntOf(v), nil
	}
}

// decodeArray requires homogeneous elements; arrays of arrays do not exist in
// annotation elements.
func decodeArray(raws []classfile.RawElementValue, path string) (Value, error) {
	if len(raws) == 0 {
		return EmptyArray(), nil
	}
	first := raws[0].Tag
	for i, r := range raws {
		if r.Tag != first {
			return Value{}, &DecodeError{Path: fmt.Sprintf("%s[%d]", path, i), Reason: fmt.Sprintf("mixed array element tags %q and %q", first, r.Tag)}
		}
	}
	elemPath := func(i int) string { return fmt.Sprintf("%s[%d]", path, i) }

	switch first {
	case classfile.TagString:
		out := make([]string, len(raws))
		for i, r := range raws {
			v, err := decodeValue(r, elemPath(i))
			if err != nil {
				return Value{}, err
			}
			out[i] = v.StringValue()
		}
		return OfStrings(out), nil
	case classfile.TagEnum:
		out := make([]EnumRef, len(raws))
		for i, r := range raws {
			out[i] = EnumRef{Type: r.EnumType, Name: r.EnumConst}
		}
		return OfEnums(out), nil
	case classfile.TagClass:
		out := make([]string, len(raws))
		for i, r := range raws {
			out[i] = r.ClassName
		}
		return OfClasses(out), nil
	case classfile.TagAnnotation:
		out := make([]Annotation, len(raws))
		for i, r := range raws {
			v, err := decodeValue(r, elemPath(i))
			if err != nil {
				return Value{}, err
			}
			out[i], _ = v.Annotation()
		}
		return OfAnnotations(out), nil
	case classfile.TagArray:
		return Value{}, &DecodeError{Path: elemPath(0), Reason: "nested arrays are not valid annotation elements"}
	}
	if classfile.IsPrimitiveTag(first) {
		out := make([]Primitive, len(raws))
		for i, r := range raws {
			p, err := decodePrimitive(r, elemPath(i))
			if err != nil {
				return Value{}, err
			}
			out[i] = p
		}
		return OfPrimitives(out), nil
	}
	return Value{}, &DecodeError{Path: elemPath(0), Reason: fmt.Sprintf("unknown tag %q", first)}
}
