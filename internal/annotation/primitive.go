package annotation

import (
	"math"
	"strconv"
)

// PrimitiveKind is the Java primitive type of a Primitive.
type PrimitiveKind uint8

const (
	Boolean PrimitiveKind = iota + 1
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
)

var primitiveNames = map[PrimitiveKind]string{
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
}

func (k PrimitiveKind) String() string {
	if n, ok := primitiveNames[k]; ok {
		return n
	}
	return "unknown"
}

// PrimitiveKindOf maps a Java type name such as "int" to its kind.
func PrimitiveKindOf(typeName string) (PrimitiveKind, bool) {
	for k, n := range primitiveNames {
		if n == typeName {
			return k, true
		}
	}
	return 0, false
}

// Primitive is an immutable primitive constant. Integers are stored as their
// sign-extended value, floats as IEEE 754 bits, so == compares by value.
type Primitive struct {
	kind PrimitiveKind
	bits uint64
}

func BoolOf(v bool) Primitive {
	if v {
		return Primitive{kind: Boolean, bits: 1}
	}
	return Primitive{kind: Boolean}
}

func ByteOf(v int8) Primitive     { return Primitive{kind: Byte, bits: uint64(int64(v))} }
func CharOf(v uint16) Primitive   { return Primitive{kind: Char, bits: uint64(v)} }
func ShortOf(v int16) Primitive   { return Primitive{kind: Short, bits: uint64(int64(v))} }
func IntOf(v int32) Primitive     { return Primitive{kind: Int, bits: uint64(int64(v))} }
func LongOf(v int64) Primitive    { return Primitive{kind: Long, bits: uint64(v)} }
func FloatOf(v float32) Primitive { return Primitive{kind: Float, bits: uint64(math.Float32bits(v))} }
func DoubleOf(v float64) Primitive {
	return Primitive{kind: Double, bits: math.Float64bits(v)}
}

func (p Primitive) Kind() PrimitiveKind { return p.kind }

func (p Primitive) Bool() bool { return p.kind == Boolean && p.bits != 0 }

// Int returns integral kinds widened to int64; zero for the rest.
func (p Primitive) Int() int64 {
	switch p.kind {
	case Byte, Char, Short, Int, Long:
		return int64(p.bits)
	}
	return 0
}

// Float returns float kinds widened to float64; zero for the rest.
func (p Primitive) Float() float64 {
	switch p.kind {
	case Float:
		return float64(math.Float32frombits(uint32(p.bits)))
	case Double:
		return math.Float64frombits(p.bits)
	}
	return 0
}

// Interface returns the value as the matching Go type: bool, int8, uint16,
// int16, int32, int64, float32 or float64.
func (p Primitive) Interface() any {
	switch p.kind {
	case Boolean:
		return p.bits != 0
	case Byte:
		return int8(p.bits)
	case Char:
		return uint16(p.bits)
	case Short:
		return int16(p.bits)
	case Int:
		return int32(p.bits)
	case Long:
		return int64(p.bits)
	case Float:
		return math.Float32frombits(uint32(p.bits))
	case Double:
		return math.Float64frombits(p.bits)
	}
	return nil
}

func (p Primitive) String() string {
	switch p.kind {
	case Boolean:
		return strconv.FormatBool(p.Bool())
	case Char:
		return strconv.QuoteRune(rune(p.bits))
	case Float:
		return strconv.FormatFloat(p.Float(), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(p.Float(), 'g', -1, 64)
	case Byte, Short, Int, Long:
		return strconv.FormatInt(p.Int(), 10)
	}
	return "<invalid>"
}
