package domain

import "slices"

// Graph is the frozen result of an import. It never changes after
// Registry.Freeze and is safe for concurrent readers.
type Graph struct {
	handles map[string]*Handle
	classes []*Class
}

// Class returns the resolved class named name.
func (g *Graph) Class(name string) (*Class, bool) {
	h, ok := g.handles[name]
	if !ok || h.class == nil {
		return nil, false
	}
	return h.class, true
}

// Handle returns the handle for name, stub or resolved.
func (g *Graph) Handle(name string) (*Handle, bool) {
	h, ok := g.handles[name]
	return h, ok
}

// Classes returns the resolved classes sorted by name.
func (g *Graph) Classes() []*Class {
	return slices.Clone(g.classes)
}

// Handles returns every handle sorted by name.
func (g *Graph) Handles() []*Handle {
	return sortedHandles(g.handles)
}

// Stubs returns the handles that never resolved, sorted by name.
func (g *Graph) Stubs() []*Handle {
	var out []*Handle
	for _, h := range sortedHandles(g.handles) {
		if h.class == nil {
			out = append(out, h)
		}
	}
	return out
}

// AnnotatedWith returns the classes carrying a direct annotation of typeName,
// or one reachable through meta-annotations when meta is set.
func (g *Graph) AnnotatedWith(typeName string, meta bool) []*Class {
	var out []*Class
	for _, c := range g.classes {
		if c.IsAnnotatedWith(typeName) || (meta && c.IsMetaAnnotatedWith(typeName)) {
			out = append(out, c)
		}
	}
	return out
}
