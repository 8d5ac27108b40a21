package domain

import "k8s.io/apimachinery/pkg/util/sets"

// AnnotationOfType returns the direct annotation of type typeName.
// Meta-annotations are not considered.
func (c *Class) AnnotationOfType(typeName string) (*Annotation, error) {
	return annotationOfType(c, c.annotations, typeName)
}

func (c *Class) TryAnnotationOfType(typeName string) (*Annotation, bool) {
	return tryAnnotationOfType(c.annotations, typeName)
}

func (c *Class) IsAnnotatedWith(typeName string) bool {
	_, ok := tryAnnotationOfType(c.annotations, typeName)
	return ok
}

// IsMetaAnnotatedWith reports whether typeName is reachable from the class
// annotations, the direct ones included.
func (c *Class) IsMetaAnnotatedWith(typeName string) bool {
	return isMetaAnnotatedWith(c.annotations, typeName)
}

// MetaAnnotations returns the annotations declared on the types of the class
// annotations, transitively, in breadth-first order.
func (c *Class) MetaAnnotations() []*Annotation {
	return metaAnnotations(c.annotations)
}

func (m *Member) AnnotationOfType(typeName string) (*Annotation, error) {
	return annotationOfType(m, m.annotations, typeName)
}

func (m *Member) TryAnnotationOfType(typeName string) (*Annotation, bool) {
	return tryAnnotationOfType(m.annotations, typeName)
}

func (m *Member) IsAnnotatedWith(typeName string) bool {
	_, ok := tryAnnotationOfType(m.annotations, typeName)
	return ok
}

func (m *Member) IsMetaAnnotatedWith(typeName string) bool {
	return isMetaAnnotatedWith(m.annotations, typeName)
}

func (m *Member) MetaAnnotations() []*Annotation {
	return metaAnnotations(m.annotations)
}

func annotationOfType(owner Annotated, anns []*Annotation, typeName string) (*Annotation, error) {
	if a, ok := tryAnnotationOfType(anns, typeName); ok {
		return a, nil
	}
	return nil, &AnnotationNotPresentError{Type: typeName, Element: owner.Description()}
}

func tryAnnotationOfType(anns []*Annotation, typeName string) (*Annotation, bool) {
	for _, a := range anns {
		if a.typ.name == typeName {
			return a, true
		}
	}
	return nil, false
}

func isMetaAnnotatedWith(anns []*Annotation, typeName string) bool {
	found := false
	walkAnnotations(anns, func(a *Annotation) bool {
		found = a.typ.name == typeName
		return !found
	})
	return found
}

func metaAnnotations(anns []*Annotation) []*Annotation {
	var out []*Annotation
	direct := len(anns)
	walkAnnotations(anns, func(a *Annotation) bool {
		if direct > 0 {
			direct--
			return true
		}
		out = append(out, a)
		return true
	})
	return out
}

// walkAnnotations visits roots and then, breadth-first, the annotations
// declared on each visited annotation type. Every type is expanded at most
// once, so cyclic meta-annotation chains terminate. Stub types have no
// annotations to expand. visit returns false to stop.
func walkAnnotations(roots []*Annotation, visit func(*Annotation) bool) {
	queue := append([]*Annotation(nil), roots...)
	expanded := sets.New[string]()
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		if !visit(a) {
			return
		}
		if expanded.Has(a.typ.name) {
			continue
		}
		expanded.Insert(a.typ.name)
		if c := a.typ.Class(); c != nil {
			queue = append(queue, c.annotations...)
		}
	}
}

// AnnotationOfType looks typeName up among the annotations declared directly
// on the type h names. A stub declares none.
func (h *Handle) AnnotationOfType(typeName string) (*Annotation, error) {
	if h.class == nil {
		return nil, &AnnotationNotPresentError{Type: typeName, Element: "stub " + h.name}
	}
	return h.class.AnnotationOfType(typeName)
}

// AnnotationOfType returns the meta-annotation typeName declared on the
// annotation type of a, so chained calls walk a meta-annotation chain one
// level at a time.
func (a *Annotation) AnnotationOfType(typeName string) (*Annotation, error) {
	return a.typ.AnnotationOfType(typeName)
}
