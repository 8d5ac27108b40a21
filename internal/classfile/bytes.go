package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
)

// byteReader is a bounds-checked big-endian cursor. base is the absolute offset
// of data[0] so nested attribute readers report offsets relative to the unit.
type byteReader struct {
	unit string
	data []byte
	pos  int
	base int
}

func (r *byteReader) offset() int {
	return r.base + r.pos
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *byteReader) fail(format string, args ...any) error {
	return &MalformedUnitError{Unit: r.unit, Offset: r.offset(), Reason: fmt.Sprintf(format, args...)}
}

func (r *byteReader) need(n int, what string) error {
	if n < 0 || r.remaining() < n {
		return r.fail("truncated while reading %s: need %d bytes, have %d", what, n, r.remaining())
	}
	return nil
}

func (r *byteReader) u1(what string) (uint8, error) {
	if err := r.need(1, what); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) u2(what string) (uint16, error) {
	if err := r.need(2, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *byteReader) u4(what string) (uint32, error) {
	if err := r.need(4, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) u8(what string) (uint64, error) {
	if err := r.need(8, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(n int, what string) ([]byte, error) {
	if err := r.need(n, what); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// sub carves the next n bytes into a child reader and advances past them.
func (r *byteReader) sub(n int, what string) (*byteReader, error) {
	start := r.offset()
	b, err := r.bytes(n, what)
	if err != nil {
		return nil, err
	}
	return &byteReader{unit: r.unit, data: b, base: start}, nil
}

func float32FromBits(v uint32) float32 {
	return math.Float32frombits(v)
}

func float64FromBits(v uint64) float64 {
	return math.Float64frombits(v)
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8: NUL is encoded on two
// bytes and supplementary characters as surrogate pairs of three bytes each.
func decodeModifiedUTF8(b []byte) (string, bool) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			if c == 0 {
				return "", false
			}
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", false
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", false
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", false
		}
	}
	return string(utf16.Decode(units)), true
}
