// Package classtest writes minimal class files for tests and fixtures. It
// covers exactly the structural parts the reader interprets: constant pool,
// supertypes, members, annotations, signatures and source file names.
package classtest

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"unicode/utf16"
)

// Value is one annotation element value to encode.
type Value struct {
	tag       byte
	i32       int32
	i64       int64
	f32       float32
	f64       float64
	str       string
	enumType  string
	enumConst string
	className string
	ann       *Annotation
	elems     []Value
}

func Byte(v int8) Value       { return Value{tag: 'B', i32: int32(v)} }
func Char(v uint16) Value     { return Value{tag: 'C', i32: int32(v)} }
func Short(v int16) Value     { return Value{tag: 'S', i32: int32(v)} }
func Int(v int32) Value       { return Value{tag: 'I', i32: v} }
func Long(v int64) Value      { return Value{tag: 'J', i64: v} }
func Float(v float32) Value   { return Value{tag: 'F', f32: v} }
func Double(v float64) Value  { return Value{tag: 'D', f64: v} }
func String(v string) Value   { return Value{tag: 's', str: v} }
func Class(name string) Value { return Value{tag: 'c', className: name} }

func Bool(v bool) Value {
	if v {
		return Value{tag: 'Z', i32: 1}
	}
	return Value{tag: 'Z'}
}

// Enum encodes the constant name of enum type typeName.
func Enum(typeName, name string) Value {
	return Value{tag: 'e', enumType: typeName, enumConst: name}
}

// Nested encodes an annotation-valued element.
func Nested(a Annotation) Value {
	return Value{tag: '@', ann: &a}
}

// Array encodes an array element; the values are written in the given order.
func Array(vs ...Value) Value {
	return Value{tag: '[', elems: vs}
}

// RawTag encodes a value with an arbitrary tag byte and no payload, for
// producing malformed units.
func RawTag(tag byte) Value {
	return Value{tag: tag}
}

// Element is a named element value.
type Element struct {
	Name  string
	Value Value
}

func Elem(name string, v Value) Element {
	return Element{Name: name, Value: v}
}

// Annotation is one annotation occurrence. Invisible annotations are written
// to RuntimeInvisible* attributes.
type Annotation struct {
	Type      string
	Elements  []Element
	Invisible bool
}

func Ann(typeName string, elems ...Element) Annotation {
	return Annotation{Type: typeName, Elements: elems}
}

// Member is a field or method to write.
type Member struct {
	Access               uint16
	Name                 string
	Descriptor           string
	Signature            string
	Annotations          []Annotation
	ParameterAnnotations [][]Annotation
	AnnotationDefault    *Value
}

// Builder accumulates one class unit.
type Builder struct {
	name        string
	access      uint16
	super       string
	interfaces  []string
	fields      []Member
	methods     []Member
	annotations []Annotation
	signature   string
	sourceFile  string
	major       uint16
}

// NewClass starts a public class extending java.lang.Object.
func NewClass(name string) *Builder {
	return &Builder{name: name, access: 0x0021, super: "java.lang.Object", major: 52}
}

// NewAnnotationType starts an annotation interface.
func NewAnnotationType(name string) *Builder {
	return &Builder{
		name:       name,
		access:     0x2601,
		super:      "java.lang.Object",
		interfaces: []string{"java.lang.annotation.Annotation"},
		major:      52,
	}
}

// NewEnum starts an enum with one static final field per constant.
func NewEnum(name string, constants ...string) *Builder {
	b := &Builder{name: name, access: 0x4031, super: "java.lang.Enum", major: 52}
	for _, c := range constants {
		b.fields = append(b.fields, Member{Access: 0x4019, Name: c, Descriptor: Descriptor(name)})
	}
	return b
}

func (b *Builder) Access(flags uint16) *Builder { b.access = flags; return b }

// Super sets the super class; an empty name writes no super class.
func (b *Builder) Super(name string) *Builder { b.super = name; return b }

func (b *Builder) Interfaces(names ...string) *Builder {
	b.interfaces = append(b.interfaces, names...)
	return b
}

func (b *Builder) Annotate(anns ...Annotation) *Builder {
	b.annotations = append(b.annotations, anns...)
	return b
}

func (b *Builder) Signature(sig string) *Builder  { b.signature = sig; return b }
func (b *Builder) SourceFile(s string) *Builder   { b.sourceFile = s; return b }
func (b *Builder) MajorVersion(v uint16) *Builder { b.major = v; return b }

func (b *Builder) Field(m Member) *Builder {
	b.fields = append(b.fields, m)
	return b
}

func (b *Builder) Method(m Member) *Builder {
	b.methods = append(b.methods, m)
	return b
}

// Element declares an annotation type element method returning typeName.
func (b *Builder) Element(name, typeName string) *Builder {
	return b.Method(Member{Access: 0x0401, Name: name, Descriptor: "()" + Descriptor(typeName)})
}

// Bytes encodes the class unit.
func (b *Builder) Bytes() []byte {
	cp := newPool()
	var body bytes.Buffer

	u2(&body, b.access)
	u2(&body, cp.class(b.name))
	if b.super == "" {
		u2(&body, 0)
	} else {
		u2(&body, cp.class(b.super))
	}
	u2(&body, uint16(len(b.interfaces)))
	for _, i := range b.interfaces {
		u2(&body, cp.class(i))
	}
	writeMembers(&body, cp, b.fields)
	writeMembers(&body, cp, b.methods)

	var attrs []attribute
	attrs = append(attrs, annotationAttributes(cp, b.annotations)...)
	if b.signature != "" {
		attrs = append(attrs, utf8Attribute(cp, "Signature", b.signature))
	}
	if b.sourceFile != "" {
		attrs = append(attrs, utf8Attribute(cp, "SourceFile", b.sourceFile))
	}
	writeAttributes(&body, cp, attrs)

	var out bytes.Buffer
	u4(&out, 0xCAFEBABE)
	u2(&out, 0)
	u2(&out, b.major)
	cp.writeTo(&out)
	out.Write(body.Bytes())
	return out.Bytes()
}

// Descriptor converts a type name into a field descriptor ("int[]" -> "[I").
func Descriptor(typeName string) string {
	dims := 0
	for strings.HasSuffix(typeName, "[]") {
		typeName = strings.TrimSuffix(typeName, "[]")
		dims++
	}
	var base string
	switch typeName {
	case "boolean":
		base = "Z"
	case "byte":
		base = "B"
	case "char":
		base = "C"
	case "short":
		base = "S"
	case "int":
		base = "I"
	case "long":
		base = "J"
	case "float":
		base = "F"
	case "double":
		base = "D"
	case "void":
		base = "V"
	default:
		base = "L" + strings.ReplaceAll(typeName, ".", "/") + ";"
	}
	return strings.Repeat("[", dims) + base
}

// MethodDescriptor builds "(params)ret" from type names.
func MethodDescriptor(ret string, params ...string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(Descriptor(p))
	}
	sb.WriteByte(')')
	sb.WriteString(Descriptor(ret))
	return sb.String()
}

type attribute struct {
	name string
	body []byte
}

func writeMembers(w *bytes.Buffer, cp *pool, members []Member) {
	u2(w, uint16(len(members)))
	for _, m := range members {
		u2(w, m.Access)
		u2(w, cp.utf8(m.Name))
		u2(w, cp.utf8(m.Descriptor))
		var attrs []attribute
		attrs = append(attrs, annotationAttributes(cp, m.Annotations)...)
		attrs = append(attrs, parameterAnnotationAttributes(cp, m.ParameterAnnotations)...)
		if m.AnnotationDefault != nil {
			var buf bytes.Buffer
			writeValue(&buf, cp, *m.AnnotationDefault)
			attrs = append(attrs, attribute{name: "AnnotationDefault", body: buf.Bytes()})
		}
		if m.Signature != "" {
			attrs = append(attrs, utf8Attribute(cp, "Signature", m.Signature))
		}
		writeAttributes(w, cp, attrs)
	}
}

func writeAttributes(w *bytes.Buffer, cp *pool, attrs []attribute) {
	u2(w, uint16(len(attrs)))
	for _, a := range attrs {
		u2(w, cp.utf8(a.name))
		u4(w, uint32(len(a.body)))
		w.Write(a.body)
	}
}

func utf8Attribute(cp *pool, name, value string) attribute {
	var buf bytes.Buffer
	u2(&buf, cp.utf8(value))
	return attribute{name: name, body: buf.Bytes()}
}

func annotationAttributes(cp *pool, anns []Annotation) []attribute {
	var visible, invisible []Annotation
	for _, a := range anns {
		if a.Invisible {
			invisible = append(invisible, a)
		} else {
			visible = append(visible, a)
		}
	}
	var attrs []attribute
	if len(visible) > 0 {
		attrs = append(attrs, attribute{name: "RuntimeVisibleAnnotations", body: annotationTable(cp, visible)})
	}
	if len(invisible) > 0 {
		attrs = append(attrs, attribute{name: "RuntimeInvisibleAnnotations", body: annotationTable(cp, invisible)})
	}
	return attrs
}

func parameterAnnotationAttributes(cp *pool, params [][]Annotation) []attribute {
	if len(params) == 0 {
		return nil
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(len(params)))
	for _, anns := range params {
		buf.Write(annotationTable(cp, anns))
	}
	return []attribute{{name: "RuntimeVisibleParameterAnnotations", body: buf.Bytes()}}
}

func annotationTable(cp *pool, anns []Annotation) []byte {
	var buf bytes.Buffer
	u2(&buf, uint16(len(anns)))
	for _, a := range anns {
		writeAnnotation(&buf, cp, a)
	}
	return buf.Bytes()
}

func writeAnnotation(w *bytes.Buffer, cp *pool, a Annotation) {
	u2(w, cp.utf8(Descriptor(a.Type)))
	u2(w, uint16(len(a.Elements)))
	for _, e := range a.Elements {
		u2(w, cp.utf8(e.Name))
		writeValue(w, cp, e.Value)
	}
}

func writeValue(w *bytes.Buffer, cp *pool, v Value) {
	w.WriteByte(v.tag)
	switch v.tag {
	case 'B', 'C', 'I', 'S', 'Z':
		u2(w, cp.integer(v.i32))
	case 'J':
		u2(w, cp.long(v.i64))
	case 'F':
		u2(w, cp.float(v.f32))
	case 'D':
		u2(w, cp.double(v.f64))
	case 's':
		u2(w, cp.utf8(v.str))
	case 'e':
		u2(w, cp.utf8(Descriptor(v.enumType)))
		u2(w, cp.utf8(v.enumConst))
	case 'c':
		u2(w, cp.utf8(Descriptor(v.className)))
	case '@':
		writeAnnotation(w, cp, *v.ann)
	case '[':
		u2(w, uint16(len(v.elems)))
		for _, e := range v.elems {
			writeValue(w, cp, e)
		}
	}
}

type poolKey struct {
	tag byte
	val string
}

type pool struct {
	buf   bytes.Buffer
	next  uint16
	index map[poolKey]uint16
}

func newPool() *pool {
	return &pool{next: 1, index: make(map[poolKey]uint16)}
}

func (p *pool) add(key poolKey, slots uint16, write func(w *bytes.Buffer)) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := p.next
	p.buf.WriteByte(key.tag)
	write(&p.buf)
	p.next += slots
	p.index[key] = idx
	return idx
}

func (p *pool) utf8(s string) uint16 {
	return p.add(poolKey{1, s}, 1, func(w *bytes.Buffer) {
		enc := encodeModifiedUTF8(s)
		u2(w, uint16(len(enc)))
		w.Write(enc)
	})
}

func (p *pool) class(name string) uint16 {
	nameIdx := p.utf8(strings.ReplaceAll(name, ".", "/"))
	return p.add(poolKey{7, name}, 1, func(w *bytes.Buffer) { u2(w, nameIdx) })
}

func (p *pool) integer(v int32) uint16 {
	return p.add(poolKey{3, keyBits(int64(v))}, 1, func(w *bytes.Buffer) { u4(w, uint32(v)) })
}

func (p *pool) float(v float32) uint16 {
	bits := math.Float32bits(v)
	return p.add(poolKey{4, keyBits(int64(bits))}, 1, func(w *bytes.Buffer) { u4(w, bits) })
}

func (p *pool) long(v int64) uint16 {
	return p.add(poolKey{5, keyBits(v)}, 2, func(w *bytes.Buffer) { u8(w, uint64(v)) })
}

func (p *pool) double(v float64) uint16 {
	bits := math.Float64bits(v)
	return p.add(poolKey{6, keyBits(int64(bits))}, 2, func(w *bytes.Buffer) { u8(w, bits) })
}

func (p *pool) writeTo(w *bytes.Buffer) {
	u2(w, p.next)
	w.Write(p.buf.Bytes())
}

func encodeModifiedUTF8(s string) []byte {
	var out []byte
	for _, c := range utf16.Encode([]rune(s)) {
		switch {
		case c >= 0x0001 && c <= 0x007F:
			out = append(out, byte(c))
		case c <= 0x07FF:
			out = append(out, byte(0xC0|c>>6), byte(0x80|c&0x3F))
		default:
			out = append(out, byte(0xE0|c>>12), byte(0x80|(c>>6)&0x3F), byte(0x80|c&0x3F))
		}
	}
	return out
}

// keyBits encodes a numeric constant as a pool dedup key.
func keyBits(v int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return string(buf[:])
}

func u2(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func u4(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func u8(w *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.Write(b[:])
}
