package session

import (
	"fmt"
	"io"
)

// Unit is one binary class unit to import. Data is used when set; otherwise
// Open is called once by a worker to read the unit.
type Unit struct {
	Name string
	Data []byte
	Open func() (io.ReadCloser, error)
}

// BytesUnit wraps an in-memory unit.
func BytesUnit(name string, data []byte) Unit {
	return Unit{Name: name, Data: data}
}

func (u Unit) read() ([]byte, error) {
	if u.Data != nil {
		return u.Data, nil
	}
	if u.Open == nil {
		return nil, fmt.Errorf("unit %s has no content", u.Name)
	}
	rc, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open unit %s: %w", u.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit %s: %w", u.Name, err)
	}
	return data, nil
}
