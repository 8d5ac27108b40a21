package assembler

import (
	"classgraph/internal/annotation"
	"classgraph/internal/domain"
)

// bindAnnotation turns a decoded annotation into a domain annotation whose
// type, class and enum references are registry handles. Nested annotations
// share the owner of the outermost one.
func (a *assembly) bindAnnotation(ann annotation.Annotation, owner domain.Annotated) *domain.Annotation {
	typ := a.reg.Stub(ann.Type)
	var elems []domain.Element
	if len(ann.Elements) > 0 {
		elems = make([]domain.Element, len(ann.Elements))
	}
	for i, e := range ann.Elements {
		elems[i] = domain.Element{Name: e.Name, Value: a.bindValue(e.Value, elementType(typ, e.Name), owner)}
	}
	return domain.NewAnnotation(typ, owner, ann.Visible, elems)
}

// elementType is the declared return type of element name on the annotation
// type typ, or nil while typ is a stub.
func elementType(typ *domain.Handle, name string) *domain.Handle {
	c := typ.Class()
	if c == nil {
		return nil
	}
	for _, m := range c.Members() {
		if m.Kind() == domain.MethodMember && m.Name() == name && len(m.Parameters()) == 0 {
			return m.Type()
		}
	}
	return nil
}

// bindValue binds v. declared is the element's declared type if known and is
// only consulted for empty arrays, whose element type the unit does not carry.
func (a *assembly) bindValue(v annotation.Value, declared *domain.Handle, owner domain.Annotated) domain.Value {
	switch v.Kind() {
	case annotation.KindPrimitive:
		return domain.PrimitiveValue(v.Primitive())
	case annotation.KindPrimitiveArray:
		return domain.PrimitiveArray(v.Primitives())
	case annotation.KindString:
		return domain.StringValue(v.StringValue())
	case annotation.KindStringArray:
		return domain.StringArray(v.StringValues())
	case annotation.KindEnum:
		return domain.EnumValue(a.enumConstant(v.Enum()))
	case annotation.KindEnumArray:
		out := make([]domain.EnumConstant, len(v.Enums()))
		for i, e := range v.Enums() {
			out[i] = a.enumConstant(e)
		}
		return domain.EnumArray(out)
	case annotation.KindClass:
		return domain.ClassValue(a.reg.Stub(v.Class()))
	case annotation.KindClassArray:
		out := make([]*domain.Handle, len(v.Classes()))
		for i, name := range v.Classes() {
			out[i] = a.reg.Stub(name)
		}
		return domain.ClassArray(out)
	case annotation.KindAnnotation:
		nested, _ := v.Annotation()
		return domain.AnnotationValue(a.bindAnnotation(nested, owner))
	case annotation.KindAnnotationArray:
		out := make([]*domain.Annotation, len(v.Annotations()))
		for i, nested := range v.Annotations() {
			out[i] = a.bindAnnotation(nested, owner)
		}
		return domain.AnnotationArray(out)
	case annotation.KindEmptyArray:
		return typedEmptyArray(declared)
	}
	return domain.Value{}
}

func (a *assembly) enumConstant(e annotation.EnumRef) domain.EnumConstant {
	return domain.EnumConstant{Type: a.reg.Stub(e.Type), Name: e.Name}
}

// typedEmptyArray picks the array variant from the declared array type. The
// value stays untyped when the declaration is unknown or its component type is
// an unresolved stub.
func typedEmptyArray(declared *domain.Handle) domain.Value {
	if declared == nil || declared.Component() == nil {
		return domain.EmptyArray()
	}
	comp := declared.Component()
	if kind, ok := annotation.PrimitiveKindOf(comp.Name()); ok {
		return domain.EmptyPrimitiveArray(kind)
	}
	switch comp.Name() {
	case "java.lang.String":
		return domain.StringArray([]string{})
	case "java.lang.Class":
		return domain.ClassArray([]*domain.Handle{})
	}
	c := comp.Class()
	switch {
	case c == nil:
		return domain.EmptyArray()
	case c.IsAnnotation():
		return domain.AnnotationArray([]*domain.Annotation{})
	case c.IsEnum():
		return domain.EnumArray([]domain.EnumConstant{})
	}
	return domain.EmptyArray()
}
