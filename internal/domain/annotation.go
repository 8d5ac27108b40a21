package domain

import (
	"slices"

	"classgraph/internal/annotation"
)

// Annotation is an annotation instance whose type, class values and enum
// values are bound to registry handles.
type Annotation struct {
	typ      *Handle
	owner    Annotated
	visible  bool
	elements []Element
}

// Element is one explicitly declared element of an Annotation.
type Element struct {
	Name  string
	Value Value
}

func NewAnnotation(typ *Handle, owner Annotated, visible bool, elements []Element) *Annotation {
	return &Annotation{typ: typ, owner: owner, visible: visible, elements: slices.Clone(elements)}
}

func (a *Annotation) Type() *Handle       { return a.typ }
func (a *Annotation) TypeName() string    { return a.typ.name }
func (a *Annotation) Owner() Annotated    { return a.owner }
func (a *Annotation) Elements() []Element { return slices.Clone(a.elements) }

// Visible reports runtime retention; false means class retention.
func (a *Annotation) Visible() bool { return a.visible }

// Explicit returns the element value as written on the annotated element.
func (a *Annotation) Explicit(name string) (Value, bool) {
	for _, e := range a.elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Get returns the explicit element value, falling back to the element default
// declared by the annotation type when that type is resolved.
func (a *Annotation) Get(name string) (Value, bool) {
	if v, ok := a.Explicit(name); ok {
		return v, true
	}
	for _, m := range a.defaults() {
		if m.name == name {
			return *m.annotationDefault, true
		}
	}
	return Value{}, false
}

// defaults lists the annotation type's element methods that carry a default.
func (a *Annotation) defaults() []*Member {
	c := a.typ.Class()
	if c == nil {
		return nil
	}
	var out []*Member
	for _, m := range c.members {
		if m.kind == MethodMember && m.annotationDefault != nil {
			out = append(out, m)
		}
	}
	return out
}

// Properties returns every element, defaults included, as plain Go data.
// Classes become type names, enum constants "Type.NAME", nested annotations
// nested maps and arrays slices.
func (a *Annotation) Properties() map[string]any {
	return a.properties(nil)
}

// properties skips defaults of annotation types already being expanded, so
// defaults that nest their own annotation type terminate.
func (a *Annotation) properties(expanding []*Handle) map[string]any {
	out := make(map[string]any, len(a.elements))
	cyclic := false
	for _, h := range expanding {
		if h == a.typ {
			cyclic = true
			break
		}
	}
	expanding = append(expanding, a.typ)
	if !cyclic {
		for _, m := range a.defaults() {
			out[m.name] = m.annotationDefault.toInterface(expanding)
		}
	}
	for _, e := range a.elements {
		out[e.Name] = e.Value.toInterface(expanding)
	}
	return out
}

func (a *Annotation) String() string {
	return "@" + a.typ.name
}

// EnumConstant references a constant of an enum type.
type EnumConstant struct {
	Type *Handle
	Name string
}

// Equal compares by type name and constant name, so constants from different
// registries compare equal.
func (e EnumConstant) Equal(o EnumConstant) bool {
	return e.Key() == o.Key()
}

// Key is "Type.NAME".
func (e EnumConstant) Key() string {
	if e.Type == nil {
		return "." + e.Name
	}
	return e.Type.name + "." + e.Name
}

func (e EnumConstant) String() string { return e.Key() }

// Value is the handle-bound counterpart of annotation.Value. Only the field
// matching kind is set.
type Value struct {
	kind    annotation.Kind
	prim    annotation.Primitive
	prims   []annotation.Primitive
	pkind   annotation.PrimitiveKind
	str     string
	strs    []string
	enum    EnumConstant
	enums   []EnumConstant
	class   *Handle
	classes []*Handle
	ann     *Annotation
	anns    []*Annotation
}

func PrimitiveValue(p annotation.Primitive) Value { return Value{kind: annotation.KindPrimitive, prim: p} }
func StringValue(s string) Value                  { return Value{kind: annotation.KindString, str: s} }
func StringArray(ss []string) Value               { return Value{kind: annotation.KindStringArray, strs: slices.Clone(ss)} }
func EnumValue(e EnumConstant) Value              { return Value{kind: annotation.KindEnum, enum: e} }
func EnumArray(es []EnumConstant) Value           { return Value{kind: annotation.KindEnumArray, enums: slices.Clone(es)} }
func ClassValue(h *Handle) Value                  { return Value{kind: annotation.KindClass, class: h} }
func ClassArray(hs []*Handle) Value               { return Value{kind: annotation.KindClassArray, classes: slices.Clone(hs)} }
func AnnotationValue(a *Annotation) Value         { return Value{kind: annotation.KindAnnotation, ann: a} }
func AnnotationArray(as []*Annotation) Value      { return Value{kind: annotation.KindAnnotationArray, anns: slices.Clone(as)} }
func EmptyArray() Value                           { return Value{kind: annotation.KindEmptyArray} }

// PrimitiveArray builds a primitive array; the element kind is taken from the
// first element.
func PrimitiveArray(ps []annotation.Primitive) Value {
	v := Value{kind: annotation.KindPrimitiveArray, prims: slices.Clone(ps)}
	if len(ps) > 0 {
		v.pkind = ps[0].Kind()
	}
	return v
}

// EmptyPrimitiveArray is an empty primitive array of a known element kind.
func EmptyPrimitiveArray(kind annotation.PrimitiveKind) Value {
	return Value{kind: annotation.KindPrimitiveArray, prims: []annotation.Primitive{}, pkind: kind}
}

func (v Value) Kind() annotation.Kind { return v.kind }

// ElementKind is the primitive kind of a primitive or primitive array value.
func (v Value) ElementKind() annotation.PrimitiveKind {
	if v.kind == annotation.KindPrimitive {
		return v.prim.Kind()
	}
	return v.pkind
}

// Array accessors return copies.
func (v Value) Primitive() annotation.Primitive    { return v.prim }
func (v Value) Primitives() []annotation.Primitive { return slices.Clone(v.prims) }
func (v Value) StringValue() string                { return v.str }
func (v Value) StringValues() []string             { return slices.Clone(v.strs) }
func (v Value) Enum() EnumConstant                 { return v.enum }
func (v Value) Enums() []EnumConstant              { return slices.Clone(v.enums) }
func (v Value) Class() *Handle                     { return v.class }
func (v Value) Classes() []*Handle                 { return slices.Clone(v.classes) }
func (v Value) Annotation() *Annotation            { return v.ann }
func (v Value) Annotations() []*Annotation         { return slices.Clone(v.anns) }

// Len is the element count of array kinds and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case annotation.KindPrimitiveArray:
		return len(v.prims)
	case annotation.KindStringArray:
		return len(v.strs)
	case annotation.KindEnumArray:
		return len(v.enums)
	case annotation.KindClassArray:
		return len(v.classes)
	case annotation.KindAnnotationArray:
		return len(v.anns)
	}
	return 0
}

// Interface converts v to plain Go data, see Annotation.Properties.
func (v Value) Interface() any {
	return v.toInterface(nil)
}

func (v Value) toInterface(expanding []*Handle) any {
	switch v.kind {
	case annotation.KindPrimitive:
		return v.prim.Interface()
	case annotation.KindPrimitiveArray:
		return primitiveSlice(v.pkind, v.prims)
	case annotation.KindString:
		return v.str
	case annotation.KindStringArray:
		return append([]string(nil), v.strs...)
	case annotation.KindEnum:
		return v.enum.Key()
	case annotation.KindEnumArray:
		out := make([]string, len(v.enums))
		for i, e := range v.enums {
			out[i] = e.Key()
		}
		return out
	case annotation.KindClass:
		return v.class.name
	case annotation.KindClassArray:
		out := make([]string, len(v.classes))
		for i, h := range v.classes {
			out[i] = h.name
		}
		return out
	case annotation.KindAnnotation:
		return v.ann.properties(expanding)
	case annotation.KindAnnotationArray:
		out := make([]map[string]any, len(v.anns))
		for i, a := range v.anns {
			out[i] = a.properties(expanding)
		}
		return out
	case annotation.KindEmptyArray:
		return []any{}
	}
	return nil
}

// primitiveSlice returns a typed slice ([]int32, []bool, ...) for a
// homogeneous primitive array.
func primitiveSlice(kind annotation.PrimitiveKind, ps []annotation.Primitive) any {
	switch kind {
	case annotation.Boolean:
		return convertPrimitives(ps, func(p annotation.Primitive) bool { return p.Bool() })
	case annotation.Byte:
		return convertPrimitives(ps, func(p annotation.Primitive) int8 { return int8(p.Int()) })
	case annotation.Char:
		return convertPrimitives(ps, func(p annotation.Primitive) uint16 { return uint16(p.Int()) })
	case annotation.Short:
		return convertPrimitives(ps, func(p annotation.Primitive) int16 { return int16(p.Int()) })
	case annotation.Int:
		return convertPrimitives(ps, func(p annotation.Primitive) int32 { return int32(p.Int()) })
	case annotation.Long:
		return convertPrimitives(ps, func(p annotation.Primitive) int64 { return p.Int() })
	case annotation.Float:
		return convertPrimitives(ps, func(p annotation.Primitive) float32 { return float32(p.Float()) })
	case annotation.Double:
		return convertPrimitives(ps, func(p annotation.Primitive) float64 { return p.Float() })
	}
	return []any{}
}

func convertPrimitives[T any](ps []annotation.Primitive, conv func(annotation.Primitive) T) []T {
	out := make([]T, len(ps))
	for i, p := range ps {
		out[i] = conv(p)
	}
	return out
}
