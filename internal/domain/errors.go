package domain

import (
	"errors"
	"fmt"
)

// ErrGraphFrozen is returned by mutations after the registry was frozen.
var ErrGraphFrozen = errors.New("graph is frozen")

// DuplicateImportError reports a second class unit for an already resolved name.
type DuplicateImportError struct {
	Name      string
	Unit      string
	FirstUnit string
}

func (e *DuplicateImportError) Error() string {
	return fmt.Sprintf("duplicate import of %s from %s (first imported from %s)", e.Name, e.Unit, e.FirstUnit)
}

// AnnotationNotPresentError is returned when an element has no direct
// annotation of the requested type.
type AnnotationNotPresentError struct {
	Type    string
	Element string
}

func (e *AnnotationNotPresentError) Error() string {
	return fmt.Sprintf("%s is not annotated with @%s", e.Element, e.Type)
}

// MemberNotFoundError is returned by Class.Member for an unknown name and descriptor.
type MemberNotFoundError struct {
	Class      string
	Name       string
	Descriptor string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("class %s has no member %s%s", e.Class, e.Name, e.Descriptor)
}

// DuplicateMemberError is returned when a class declares the same name and
// descriptor twice.
type DuplicateMemberError struct {
	Class      string
	Name       string
	Descriptor string
}

func (e *DuplicateMemberError) Error() string {
	return fmt.Sprintf("class %s declares member %s%s twice", e.Class, e.Name, e.Descriptor)
}
