package domain

import (
	"fmt"
	"sort"
	"sync"

	"classgraph/internal/classfile"
)

// Registry hands out exactly one Handle per type name. It is safe for
// concurrent use; once frozen, handles can no longer be upgraded.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
	frozen  bool

	// detached holds stubs created after Freeze; the graph never sees them.
	detached map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// Stub returns the handle for name, creating a stub on first use. Array names
// also register their component types. After Freeze, unknown names yield a
// detached stub that the frozen graph does not contain; repeated calls return
// the same detached stub.
func (r *Registry) Stub(name string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stubLocked(name)
}

func (r *Registry) stubLocked(name string) *Handle {
	if h, ok := r.handles[name]; ok {
		return h
	}
	if h, ok := r.detached[name]; ok {
		return h
	}
	h := newHandle(name)
	if r.frozen {
		if r.detached == nil {
			r.detached = make(map[string]*Handle)
		}
		r.detached[name] = h
	} else {
		r.handles[name] = h
	}
	if h.IsArray() {
		h.component = r.stubLocked(name[:len(name)-2])
	}
	return h
}

// Lookup returns the handle for name without creating one.
func (r *Registry) Lookup(name string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[name]
	return h, ok
}

// Upgrade binds c to its stub handle h. A handle is upgraded at most once; a
// second attempt returns *DuplicateImportError and leaves the first class in
// place.
func (r *Registry) Upgrade(h *Handle, c *Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrGraphFrozen
	}
	if owned, ok := r.handles[h.name]; !ok || owned != h {
		return fmt.Errorf("handle %s was not issued by this registry", h.name)
	}
	if c.handle != h {
		return fmt.Errorf("class %s cannot upgrade handle %s", c.Name(), h.name)
	}
	if h.IsArray() || classfile.IsPrimitiveTypeName(h.name) {
		return fmt.Errorf("handle %s names a type that has no class unit", h.name)
	}
	if h.class != nil {
		return &DuplicateImportError{Name: h.name, Unit: c.unit, FirstUnit: h.class.unit}
	}
	h.class = c
	return nil
}

// Handles returns every registered handle sorted by name.
func (r *Registry) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedHandles(r.handles)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Freeze seals the registry and every resolved class and returns the
// read-only graph over them.
func (r *Registry) Freeze() *Graph {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = true
	g := &Graph{handles: make(map[string]*Handle, len(r.handles))}
	for name, h := range r.handles {
		g.handles[name] = h
		if h.class != nil {
			h.class.sealed = true
			g.classes = append(g.classes, h.class)
		}
	}
	sort.Slice(g.classes, func(i, j int) bool { return g.classes[i].Name() < g.classes[j].Name() })
	return g
}

func sortedHandles(m map[string]*Handle) []*Handle {
	out := make([]*Handle, 0, len(m))
	for _, h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
