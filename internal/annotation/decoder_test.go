package annotation

import (
	"testing"

	"classgraph/internal/classfile"
	"classgraph/internal/classfile/classtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFixture(t *testing.T, elems ...classtest.Element) Annotation {
	t.Helper()
	data := classtest.NewClass("com.example.Target").
		Annotate(classtest.Ann("com.example.Fixture", elems...)).
		Bytes()
	rc, err := classfile.Parse("Target.class", data)
	require.NoError(t, err)
	require.Len(t, rc.Annotations, 1)
	a, err := DecodeAnnotation(rc.Annotations[0])
	require.NoError(t, err)
	return a
}

func TestDecode_Scalars(t *testing.T) {
	a := decodeFixture(t,
		classtest.Elem("flag", classtest.Bool(true)),
		classtest.Elem("b", classtest.Byte(-3)),
		classtest.Elem("c", classtest.Char('x')),
		classtest.Elem("s", classtest.Short(-300)),
		classtest.Elem("i", classtest.Int(42)),
		classtest.Elem("l", classtest.Long(1<<40)),
		classtest.Elem("f", classtest.Float(1.5)),
		classtest.Elem("d", classtest.Double(-2.25)),
		classtest.Elem("str", classtest.String("hello")),
		classtest.Elem("e", classtest.Enum("com.example.Mode", "FAST")),
		classtest.Elem("cls", classtest.Class("com.example.Other")),
	)

	assert.Equal(t, "com.example.Fixture", a.Type)
	assert.True(t, a.Visible)

	expectPrimitive := func(name string, kind PrimitiveKind, want any) {
		v, ok := a.Get(name)
		require.True(t, ok, name)
		require.Equal(t, KindPrimitive, v.Kind(), name)
		assert.Equal(t, kind, v.Primitive().Kind(), name)
		assert.Equal(t, want, v.Primitive().Interface(), name)
	}
	expectPrimitive("flag", Boolean, true)
	expectPrimitive("b", Byte, int8(-3))
	expectPrimitive("c", Char, uint16('x'))
	expectPrimitive("s", Short, int16(-300))
	expectPrimitive("i", Int, int32(42))
	expectPrimitive("l", Long, int64(1<<40))
	expectPrimitive("f", Float, float32(1.5))
	expectPrimitive("d", Double, -2.25)

	str, _ := a.Get("str")
	assert.Equal(t, KindString, str.Kind())
	assert.Equal(t, "hello", str.StringValue())

	e, _ := a.Get("e")
	assert.Equal(t, KindEnum, e.Kind())
	assert.Equal(t, EnumRef{Type: "com.example.Mode", Name: "FAST"}, e.Enum())
	assert.Equal(t, "com.example.Mode.FAST", e.Enum().String())

	cls, _ := a.Get("cls")
	assert.Equal(t, KindClass, cls.Kind())
	assert.Equal(t, "com.example.Other", cls.Class())

	_, ok := a.Get("missing")
	assert.False(t, ok)
}

func TestDecode_ArraysPreserveOrder(t *testing.T) {
	a := decodeFixture(t,
		classtest.Elem("classes", classtest.Array(classtest.Class("p.A"), classtest.Class("p.B"), classtest.Class("p.C"))),
		classtest.Elem("reversed", classtest.Array(classtest.Class("p.C"), classtest.Class("p.B"), classtest.Class("p.A"))),
		classtest.Elem("ints", classtest.Array(classtest.Int(3), classtest.Int(1), classtest.Int(2))),
		classtest.Elem("longs", classtest.Array(classtest.Long(7), classtest.Long(-7))),
		classtest.Elem("bools", classtest.Array(classtest.Bool(false), classtest.Bool(true))),
		classtest.Elem("doubles", classtest.Array(classtest.Double(0.1), classtest.Double(0.2))),
		classtest.Elem("strings", classtest.Array(classtest.String("z"), classtest.String("a"))),
		classtest.Elem("enums", classtest.Array(classtest.Enum("p.E", "TWO"), classtest.Enum("p.E", "ONE"))),
		classtest.Elem("anns", classtest.Array(
			classtest.Nested(classtest.Ann("p.N", classtest.Elem("value", classtest.Int(1)))),
			classtest.Nested(classtest.Ann("p.N", classtest.Elem("value", classtest.Int(2)))),
		)),
		classtest.Elem("empty", classtest.Array()),
	)

	classes, _ := a.Get("classes")
	assert.Equal(t, KindClassArray, classes.Kind())
	assert.Equal(t, []string{"p.A", "p.B", "p.C"}, classes.Classes())

	reversed, _ := a.Get("reversed")
	assert.Equal(t, []string{"p.C", "p.B", "p.A"}, reversed.Classes())

	ints, _ := a.Get("ints")
	assert.Equal(t, KindPrimitiveArray, ints.Kind())
	assert.Equal(t, []Primitive{IntOf(3), IntOf(1), IntOf(2)}, ints.Primitives())

	longs, _ := a.Get("longs")
	assert.Equal(t, []Primitive{LongOf(7), LongOf(-7)}, longs.Primitives())

	bools, _ := a.Get("bools")
	assert.Equal(t, []Primitive{BoolOf(false), BoolOf(true)}, bools.Primitives())

	doubles, _ := a.Get("doubles")
	assert.Equal(t, []Primitive{DoubleOf(0.1), DoubleOf(0.2)}, doubles.Primitives())

	strs, _ := a.Get("strings")
	assert.Equal(t, KindStringArray, strs.Kind())
	assert.Equal(t, []string{"z", "a"}, strs.StringValues())

	enums, _ := a.Get("enums")
	assert.Equal(t, KindEnumArray, enums.Kind())
	assert.Equal(t, []EnumRef{{Type: "p.E", Name: "TWO"}, {Type: "p.E", Name: "ONE"}}, enums.Enums())

	anns, _ := a.Get("anns")
	require.Equal(t, KindAnnotationArray, anns.Kind())
	require.Equal(t, 2, anns.Len())
	first, _ := anns.Annotations()[0].Get("value")
	second, _ := anns.Annotations()[1].Get("value")
	assert.Equal(t, int64(1), first.Primitive().Int())
	assert.Equal(t, int64(2), second.Primitive().Int())

	empty, _ := a.Get("empty")
	assert.Equal(t, KindEmptyArray, empty.Kind())
	assert.True(t, empty.Kind().IsArray())
	assert.Zero(t, empty.Len())
}

func TestDecode_NestedAnnotationKeepsNamesUnbound(t *testing.T) {
	a := decodeFixture(t,
		classtest.Elem("annotationParam", classtest.Nested(classtest.Ann("p.Param",
			classtest.Elem("value", classtest.Class("p.D")),
		))),
	)
	v, ok := a.Get("annotationParam")
	require.True(t, ok)
	nested, ok := v.Annotation()
	require.True(t, ok)
	assert.Equal(t, "p.Param", nested.Type)
	inner, _ := nested.Get("value")
	assert.Equal(t, "p.D", inner.Class())

	assert.Equal(t, []string{"com.example.Fixture", "p.Param", "p.D"}, a.ReferencedTypes())
}

func TestDecode_Errors(t *testing.T) {
	t.Run("mixed array", func(t *testing.T) {
		raw := classfile.RawElementValue{Tag: classfile.TagArray, Array: []classfile.RawElementValue{
			{Tag: classfile.TagInt, Const: int32(1)},
			{Tag: classfile.TagString, Const: "x"},
		}}
		_, err := Decode(raw)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "value[1]", de.Path)
	})

	t.Run("array of arrays", func(t *testing.T) {
		raw := classfile.RawElementValue{Tag: classfile.TagArray, Array: []classfile.RawElementValue{
			{Tag: classfile.TagArray},
		}}
		_, err := Decode(raw)
		assert.Error(t, err)
	})

	t.Run("wrong constant type", func(t *testing.T) {
		_, err := Decode(classfile.RawElementValue{Tag: classfile.TagLong, Const: int32(1)})
		assert.Error(t, err)
	})

	t.Run("duplicate element", func(t *testing.T) {
		raw := classfile.RawAnnotation{TypeName: "p.A", Elements: []classfile.RawElement{
			{Name: "x", Value: classfile.RawElementValue{Tag: classfile.TagInt, Const: int32(1)}},
			{Name: "x", Value: classfile.RawElementValue{Tag: classfile.TagInt, Const: int32(2)}},
		}}
		_, err := DecodeAnnotation(raw)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "@p.A.x", de.Path)
	})
}

func TestPrimitive_String(t *testing.T) {
	assert.Equal(t, "true", BoolOf(true).String())
	assert.Equal(t, "-3", ByteOf(-3).String())
	assert.Equal(t, "'x'", CharOf('x').String())
	assert.Equal(t, "1.5", FloatOf(1.5).String())
	assert.Equal(t, "int", Int.String())
	k, ok := PrimitiveKindOf("double")
	assert.True(t, ok)
	assert.Equal(t, Double, k)
}

func TestValue_ArrayAccessorsReturnCopies(t *testing.T) {
	names := []string{"p.A", "p.B"}
	v := OfClasses(names)
	names[0] = "p.Changed"
	v.Classes()[1] = "p.Changed"
	assert.Equal(t, []string{"p.A", "p.B"}, v.Classes())

	s := OfStrings([]string{"x"})
	s.StringValues()[0] = "y"
	assert.Equal(t, []string{"x"}, s.StringValues())

	e := OfEnums([]EnumRef{{Type: "p.E", Name: "ON"}})
	e.Enums()[0] = EnumRef{}
	assert.Equal(t, "p.E.ON", e.Enums()[0].String())

	a := OfAnnotations([]Annotation{{Type: "p.N"}})
	a.Annotations()[0] = Annotation{}
	assert.Equal(t, "p.N", a.Annotations()[0].Type)

	p := OfPrimitives([]Primitive{{kind: Int, bits: 7}})
	p.Primitives()[0] = Primitive{}
	assert.Equal(t, Int, p.Primitives()[0].Kind())
}
