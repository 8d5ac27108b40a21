package domain

import (
	"fmt"
	"slices"

	"classgraph/internal/classfile"
)

// Annotated is anything annotations can be declared on.
type Annotated interface {
	Description() string
}

// ClassInit carries the scalar parts of a class node and its supertypes.
type ClassInit struct {
	Unit         string
	Access       uint16
	Super        *Handle
	Interfaces   []*Handle
	Signature    string
	SourceFile   string
	MajorVersion uint16
}

// Class is a resolved type. It is populated by the assembler and read-only once
// the registry is frozen.
type Class struct {
	handle       *Handle
	unit         string
	access       uint16
	super        *Handle
	interfaces   []*Handle
	signature    string
	sourceFile   string
	majorVersion uint16

	members     []*Member
	memberIndex map[memberKey]*Member
	annotations []*Annotation

	sealed bool
}

type memberKey struct {
	name       string
	descriptor string
}

// NewClass creates the class node for h. It does not upgrade h; pass the
// result to Registry.Upgrade.
func NewClass(h *Handle, init ClassInit) *Class {
	return &Class{
		handle:       h,
		unit:         init.Unit,
		access:       init.Access,
		super:        init.Super,
		interfaces:   slices.Clone(init.Interfaces),
		signature:    init.Signature,
		sourceFile:   init.SourceFile,
		majorVersion: init.MajorVersion,
		memberIndex:  make(map[memberKey]*Member),
	}
}

// Slice getters return copies, so callers cannot change a frozen class.
func (c *Class) Handle() *Handle            { return c.handle }
func (c *Class) Name() string               { return c.handle.name }
func (c *Class) Unit() string               { return c.unit }
func (c *Class) Access() uint16             { return c.access }
func (c *Class) Signature() string          { return c.signature }
func (c *Class) SourceFile() string         { return c.sourceFile }
func (c *Class) MajorVersion() uint16       { return c.majorVersion }
func (c *Class) Description() string        { return "class " + c.handle.name }
func (c *Class) SimpleName() string         { return c.handle.SimpleName() }
func (c *Class) PackageName() string        { return c.handle.PackageName() }
func (c *Class) Interfaces() []*Handle      { return slices.Clone(c.interfaces) }
func (c *Class) Members() []*Member         { return slices.Clone(c.members) }
func (c *Class) Annotations() []*Annotation { return slices.Clone(c.annotations) }

// Super is nil for java.lang.Object and units without a super class.
func (c *Class) Super() *Handle { return c.super }

func (c *Class) IsInterface() bool  { return c.access&classfile.AccInterface != 0 }
func (c *Class) IsAnnotation() bool { return c.access&classfile.AccAnnotation != 0 }
func (c *Class) IsEnum() bool       { return c.access&classfile.AccEnum != 0 }

// Fields returns the declared fields in declaration order.
func (c *Class) Fields() []*Member {
	return c.membersOf(FieldMember)
}

// Methods returns methods and constructors in declaration order.
func (c *Class) Methods() []*Member {
	var out []*Member
	for _, m := range c.members {
		if m.kind != FieldMember {
			out = append(out, m)
		}
	}
	return out
}

func (c *Class) Constructors() []*Member {
	return c.membersOf(ConstructorMember)
}

func (c *Class) membersOf(kind MemberKind) []*Member {
	var out []*Member
	for _, m := range c.members {
		if m.kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Member looks a member up by name and descriptor.
func (c *Class) Member(name, descriptor string) (*Member, error) {
	if m, ok := c.memberIndex[memberKey{name, descriptor}]; ok {
		return m, nil
	}
	return nil, &MemberNotFoundError{Class: c.Name(), Name: name, Descriptor: descriptor}
}

// MemberNamed returns the first member declared with name.
func (c *Class) MemberNamed(name string) (*Member, bool) {
	for _, m := range c.members {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

// AddMember appends m, keeping declaration order.
func (c *Class) AddMember(m *Member) error {
	if c.sealed {
		return ErrGraphFrozen
	}
	key := memberKey{m.name, m.descriptor}
	if _, ok := c.memberIndex[key]; ok {
		return &DuplicateMemberError{Class: c.Name(), Name: m.name, Descriptor: m.descriptor}
	}
	m.owner = c
	c.members = append(c.members, m)
	c.memberIndex[key] = m
	return nil
}

func (c *Class) AddAnnotation(a *Annotation) error {
	if c.sealed {
		return ErrGraphFrozen
	}
	c.annotations = append(c.annotations, a)
	return nil
}

// MemberKind distinguishes the member variants of a class.
type MemberKind uint8

const (
	FieldMember MemberKind = iota + 1
	MethodMember
	ConstructorMember
	StaticInitializerMember
)

func (k MemberKind) String() string {
	switch k {
	case FieldMember:
		return "field"
	case MethodMember:
		return "method"
	case ConstructorMember:
		return "constructor"
	case StaticInitializerMember:
		return "static initializer"
	default:
		return "unknown"
	}
}

// MemberInit carries the scalar parts of a member.
type MemberInit struct {
	Kind       MemberKind
	Name       string
	Descriptor string
	Access     uint16
	// Type is the field type or the method return type.
	Type       *Handle
	Parameters []*Handle
	Signature  string
}

// Member is a field, method, constructor or static initializer.
type Member struct {
	owner      *Class
	kind       MemberKind
	name       string
	descriptor string
	access     uint16
	typ        *Handle
	parameters []*Handle
	signature  string

	annotations          []*Annotation
	parameterAnnotations [][]*Annotation
	annotationDefault    *Value
}

func NewMember(init MemberInit) *Member {
	return &Member{
		kind:       init.Kind,
		name:       init.Name,
		descriptor: init.Descriptor,
		access:     init.Access,
		typ:        init.Type,
		parameters: slices.Clone(init.Parameters),
		signature:  init.Signature,
	}
}

func (m *Member) Owner() *Class              { return m.owner }
func (m *Member) Kind() MemberKind           { return m.kind }
func (m *Member) Name() string               { return m.name }
func (m *Member) Descriptor() string         { return m.descriptor }
func (m *Member) Access() uint16             { return m.access }
func (m *Member) Type() *Handle              { return m.typ }
func (m *Member) Parameters() []*Handle      { return slices.Clone(m.parameters) }
func (m *Member) Signature() string          { return m.signature }
func (m *Member) Annotations() []*Annotation { return slices.Clone(m.annotations) }

func (m *Member) Description() string {
	owner := "?"
	if m.owner != nil {
		owner = m.owner.Name()
	}
	if m.kind == FieldMember {
		return "field " + owner + "." + m.name
	}
	return m.kind.String() + " " + owner + "." + m.name + m.descriptor
}

// ParameterAnnotations returns the annotations of parameter i, nil when none
// are declared.
func (m *Member) ParameterAnnotations(i int) []*Annotation {
	if i < 0 || i >= len(m.parameterAnnotations) {
		return nil
	}
	return slices.Clone(m.parameterAnnotations[i])
}

// AnnotationDefault is the default value of an annotation type element.
func (m *Member) AnnotationDefault() (Value, bool) {
	if m.annotationDefault == nil {
		return Value{}, false
	}
	return *m.annotationDefault, true
}

func (m *Member) sealed() bool {
	return m.owner != nil && m.owner.sealed
}

func (m *Member) AddAnnotation(a *Annotation) error {
	if m.sealed() {
		return ErrGraphFrozen
	}
	m.annotations = append(m.annotations, a)
	return nil
}

// SetParameterAnnotations records the annotations of parameter i.
func (m *Member) SetParameterAnnotations(i int, anns []*Annotation) error {
	if m.sealed() {
		return ErrGraphFrozen
	}
	if i < 0 {
		return fmt.Errorf("negative parameter index %d on %s", i, m.Description())
	}
	for len(m.parameterAnnotations) <= i {
		m.parameterAnnotations = append(m.parameterAnnotations, nil)
	}
	m.parameterAnnotations[i] = slices.Clone(anns)
	return nil
}

func (m *Member) SetAnnotationDefault(v Value) error {
	if m.sealed() {
		return ErrGraphFrozen
	}
	m.annotationDefault = &v
	return nil
}
