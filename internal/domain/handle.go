// Package domain is the resolved, cross-referenced model of an imported class
// set. Every type is represented by exactly one Handle per registry; a handle
// starts as a stub and is upgraded at most once to a resolved class.
package domain

import (
	"strings"

	"classgraph/internal/classfile"
)

// HandleState is the lifecycle state of a Handle.
type HandleState uint8

const (
	Stub HandleState = iota + 1
	Resolved
)

func (s HandleState) String() string {
	switch s {
	case Stub:
		return "stub"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Handle is the identity of a type name inside one registry. Handles are
// created only by Registry.Stub, so pointer equality is name equality.
type Handle struct {
	name      string
	component *Handle
	class     *Class
}

func newHandle(name string) *Handle {
	return &Handle{name: name}
}

// Name is the binary type name, e.g. "com.example.Outer$Inner" or "int[]".
func (h *Handle) Name() string { return h.name }

func (h *Handle) State() HandleState {
	if h.class == nil {
		return Stub
	}
	return Resolved
}

func (h *Handle) IsStub() bool     { return h.class == nil }
func (h *Handle) IsResolved() bool { return h.class != nil }

// Class returns the resolved class, or nil while the handle is a stub.
func (h *Handle) Class() *Class { return h.class }

// IsArray reports whether the handle names an array type.
func (h *Handle) IsArray() bool { return strings.HasSuffix(h.name, "[]") }

// IsPrimitive reports whether the handle names a primitive type or void.
func (h *Handle) IsPrimitive() bool { return classfile.IsPrimitiveTypeName(h.name) }

// Component returns the element type handle of an array type, nil otherwise.
// For "int[][]" this is the handle of "int[]".
func (h *Handle) Component() *Handle { return h.component }

// PackageName is everything before the last '.', empty for the default
// package, primitives and arrays of primitives.
func (h *Handle) PackageName() string {
	base := classfile.ComponentTypeName(h.name)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return ""
}

// SimpleName strips the package and any enclosing class names, keeping array
// brackets: "a.b.Outer$Inner[]" becomes "Inner[]".
func (h *Handle) SimpleName() string {
	base := classfile.ComponentTypeName(h.name)
	dims := h.name[len(base):]
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '$'); i >= 0 && i < len(base)-1 {
		base = base[i+1:]
	}
	return base + dims
}

func (h *Handle) String() string {
	return h.name
}
