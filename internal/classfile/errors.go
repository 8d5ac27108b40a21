package classfile

import (
	"errors"
	"fmt"
)

// ErrMalformedUnit matches every *MalformedUnitError via errors.Is.
var ErrMalformedUnit = errors.New("malformed class unit")

// MalformedUnitError reports a unit that does not follow the class file layout.
// Offset is the absolute byte offset at which reading failed.
type MalformedUnitError struct {
	Unit   string
	Offset int
	Reason string
}

func (e *MalformedUnitError) Error() string {
	return fmt.Sprintf("malformed class unit %q at offset %d: %s", e.Unit, e.Offset, e.Reason)
}

func (e *MalformedUnitError) Is(target error) bool {
	return target == ErrMalformedUnit
}
