// Package annotation decodes raw annotation element values into a closed,
// name-level value model. Class and enum references stay bare type names here;
// binding them to registry handles is the assembler's job.
package annotation

import "slices"

// Kind selects the populated variant of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindPrimitiveArray
	KindString
	KindStringArray
	KindEnum
	KindEnumArray
	KindClass
	KindClassArray
	KindAnnotation
	KindAnnotationArray
	// KindEmptyArray is an array with no elements whose element type the
	// binary encoding does not carry. It is retyped once the annotation
	// type's element declaration is known.
	KindEmptyArray
)

var kindNames = [...]string{
	KindInvalid:         "invalid",
	KindPrimitive:       "primitive",
	KindPrimitiveArray:  "primitive[]",
	KindString:          "string",
	KindStringArray:     "string[]",
	KindEnum:            "enum",
	KindEnumArray:       "enum[]",
	KindClass:           "class",
	KindClassArray:      "class[]",
	KindAnnotation:      "annotation",
	KindAnnotationArray: "annotation[]",
	KindEmptyArray:      "[]",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsArray reports whether k is one of the array variants.
func (k Kind) IsArray() bool {
	switch k {
	case KindPrimitiveArray, KindStringArray, KindEnumArray, KindClassArray, KindAnnotationArray, KindEmptyArray:
		return true
	}
	return false
}

// EnumRef names an enum constant by its type name and constant name.
type EnumRef struct {
	Type string
	Name string
}

func (e EnumRef) String() string {
	return e.Type + "." + e.Name
}

// Annotation is a decoded annotation record with ordered elements.
type Annotation struct {
	Type     string
	Visible  bool
	Elements []Element
}

// Element is one named value of an Annotation.
type Element struct {
	Name  string
	Value Value
}

// Get returns the value of the named element.
func (a Annotation) Get(name string) (Value, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Value is a tagged variant; only the field matching kind is set. Values are
// built through the Of* constructors and never modified afterwards.
type Value struct {
	kind       Kind
	prim       Primitive
	prims      []Primitive
	str        string
	strs       []string
	enum       EnumRef
	enums      []EnumRef
	class      string
	classes    []string
	annotation *Annotation
	anns       []Annotation
}

func OfPrimitive(p Primitive) Value       { return Value{kind: KindPrimitive, prim: p} }
func OfPrimitives(ps []Primitive) Value   { return Value{kind: KindPrimitiveArray, prims: slices.Clone(ps)} }
func OfString(s string) Value             { return Value{kind: KindString, str: s} }
func OfStrings(ss []string) Value         { return Value{kind: KindStringArray, strs: slices.Clone(ss)} }
func OfEnum(e EnumRef) Value              { return Value{kind: KindEnum, enum: e} }
func OfEnums(es []EnumRef) Value          { return Value{kind: KindEnumArray, enums: slices.Clone(es)} }
func OfClass(name string) Value           { return Value{kind: KindClass, class: name} }
func OfClasses(names []string) Value      { return Value{kind: KindClassArray, classes: slices.Clone(names)} }
func OfAnnotation(a Annotation) Value     { return Value{kind: KindAnnotation, annotation: &a} }
func OfAnnotations(as []Annotation) Value { return Value{kind: KindAnnotationArray, anns: slices.Clone(as)} }
func EmptyArray() Value                   { return Value{kind: KindEmptyArray} }

func (v Value) Kind() Kind { return v.kind }

// Array accessors return copies.
func (v Value) Primitive() Primitive      { return v.prim }
func (v Value) Primitives() []Primitive   { return slices.Clone(v.prims) }
func (v Value) StringValue() string       { return v.str }
func (v Value) StringValues() []string    { return slices.Clone(v.strs) }
func (v Value) Enum() EnumRef             { return v.enum }
func (v Value) Enums() []EnumRef          { return slices.Clone(v.enums) }
func (v Value) Class() string             { return v.class }
func (v Value) Classes() []string         { return slices.Clone(v.classes) }
func (v Value) Annotations() []Annotation { return slices.Clone(v.anns) }

// Annotation returns the nested annotation of a KindAnnotation value.
func (v Value) Annotation() (Annotation, bool) {
	if v.annotation == nil {
		return Annotation{}, false
	}
	return *v.annotation, true
}

// Len is the element count of array kinds and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindPrimitiveArray:
		return len(v.prims)
	case KindStringArray:
		return len(v.strs)
	case KindEnumArray:
		return len(v.enums)
	case KindClassArray:
		return len(v.classes)
	case KindAnnotationArray:
		return len(v.anns)
	}
	return 0
}

// ReferencedTypes lists every type name the value mentions, recursing into
// nested annotations, in encounter order.
func (v Value) ReferencedTypes() []string {
	var out []string
	v.collectTypes(&out)
	return out
}

func (v Value) collectTypes(out *[]string) {
	switch v.kind {
	case KindEnum:
		*out = append(*out, v.enum.Type)
	case KindEnumArray:
		for _, e := range v.enums {
			*out = append(*out, e.Type)
		}
	case KindClass:
		*out = append(*out, v.class)
	case KindClassArray:
		*out = append(*out, v.classes...)
	case KindAnnotation:
		v.annotation.collectTypes(out)
	case KindAnnotationArray:
		for _, a := range v.anns {
			a.collectTypes(out)
		}
	}
}

// ReferencedTypes lists the annotation type and every type its elements mention.
func (a Annotation) ReferencedTypes() []string {
	var out []string
	a.collectTypes(&out)
	return out
}

func (a Annotation) collectTypes(out *[]string) {
	*out = append(*out, a.Type)
	for _, e := range a.Elements {
		e.Value.collectTypes(out)
	}
}
