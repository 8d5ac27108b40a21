package domain

import (
	"testing"

	"classgraph/internal/annotation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolve upgrades name to an empty class and annotates it with the given types.
func resolve(t *testing.T, r *Registry, name string, annotatedWith ...string) *Class {
	t.Helper()
	h := r.Stub(name)
	c := NewClass(h, ClassInit{Unit: name + ".class"})
	require.NoError(t, r.Upgrade(h, c))
	for _, a := range annotatedWith {
		require.NoError(t, c.AddAnnotation(NewAnnotation(r.Stub(a), c, true, nil)))
	}
	return c
}

func typeNames(anns []*Annotation) []string {
	out := make([]string, len(anns))
	for i, a := range anns {
		out[i] = a.TypeName()
	}
	return out
}

func TestQuery_MetaAnnotationChain(t *testing.T) {
	r := NewRegistry()
	target := resolve(t, r, "p.Target", "p.A")
	resolve(t, r, "p.A", "p.B", "p.C")
	resolve(t, r, "p.B", "p.D")
	resolve(t, r, "p.C")
	r.Freeze()

	assert.True(t, target.IsAnnotatedWith("p.A"))
	assert.False(t, target.IsAnnotatedWith("p.B"))
	assert.True(t, target.IsMetaAnnotatedWith("p.A"))
	assert.True(t, target.IsMetaAnnotatedWith("p.D"), "stub types end the chain but are still matched")
	assert.False(t, target.IsMetaAnnotatedWith("p.Unknown"))
	assert.Equal(t, []string{"p.B", "p.C", "p.D"}, typeNames(target.MetaAnnotations()))

	_, err := target.AnnotationOfType("p.B")
	var notPresent *AnnotationNotPresentError
	require.ErrorAs(t, err, &notPresent)
	assert.Equal(t, "p.B", notPresent.Type)
	assert.Equal(t, "class p.Target", notPresent.Element)
}

func TestQuery_CyclesTerminate(t *testing.T) {
	r := NewRegistry()
	self := resolve(t, r, "p.Self", "p.Self")
	resolve(t, r, "p.X", "p.Y")
	resolve(t, r, "p.Y", "p.X")
	target := resolve(t, r, "p.Target", "p.X")
	r.Freeze()

	assert.True(t, self.IsMetaAnnotatedWith("p.Self"))
	assert.False(t, self.IsMetaAnnotatedWith("p.Other"))
	assert.Equal(t, []string{"p.Self"}, typeNames(self.MetaAnnotations()))

	assert.True(t, target.IsMetaAnnotatedWith("p.Y"))
	assert.False(t, target.IsMetaAnnotatedWith("p.Z"))
	assert.Equal(t, []string{"p.Y", "p.X"}, typeNames(target.MetaAnnotations()))
}

func TestMember_Lookup(t *testing.T) {
	r := NewRegistry()
	c := resolve(t, r, "p.Owner")
	intH := r.Stub("int")
	field := NewMember(MemberInit{Kind: FieldMember, Name: "count", Descriptor: "I", Type: intH})
	method := NewMember(MemberInit{Kind: MethodMember, Name: "count", Descriptor: "()I", Type: intH})
	ctor := NewMember(MemberInit{Kind: ConstructorMember, Name: "<init>", Descriptor: "()V", Type: r.Stub("void")})
	require.NoError(t, c.AddMember(field))
	require.NoError(t, c.AddMember(method))
	require.NoError(t, c.AddMember(ctor))

	var dup *DuplicateMemberError
	require.ErrorAs(t, c.AddMember(NewMember(MemberInit{Kind: FieldMember, Name: "count", Descriptor: "I"})), &dup)

	got, err := c.Member("count", "()I")
	require.NoError(t, err)
	assert.Same(t, method, got)
	assert.Same(t, c, got.Owner())

	_, err = c.Member("count", "J")
	var notFound *MemberNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "p.Owner", notFound.Class)

	assert.Equal(t, []*Member{field, method, ctor}, c.Members())
	assert.Equal(t, []*Member{field}, c.Fields())
	assert.Equal(t, []*Member{method, ctor}, c.Methods())
	assert.Equal(t, []*Member{ctor}, c.Constructors())
	assert.Equal(t, "method p.Owner.count()I", method.Description())
}

func TestAnnotation_PropertiesAndDefaults(t *testing.T) {
	r := NewRegistry()
	typ := resolve(t, r, "p.Config")
	level := NewMember(MemberInit{Kind: MethodMember, Name: "level", Descriptor: "()I"})
	require.NoError(t, typ.AddMember(level))
	require.NoError(t, level.SetAnnotationDefault(PrimitiveValue(annotation.IntOf(3))))

	target := resolve(t, r, "p.Target")
	nested := NewAnnotation(r.Stub("p.Param"), target, true, []Element{
		{Name: "value", Value: ClassValue(r.Stub("p.D"))},
	})
	mode := EnumConstant{Type: r.Stub("p.Mode"), Name: "FAST"}
	a := NewAnnotation(typ.Handle(), target, true, []Element{
		{Name: "name", Value: StringValue("svc")},
		{Name: "mode", Value: EnumValue(mode)},
		{Name: "types", Value: ClassArray([]*Handle{r.Stub("p.A"), r.Stub("p.B")})},
		{Name: "weights", Value: PrimitiveArray([]annotation.Primitive{annotation.IntOf(1), annotation.IntOf(2)})},
		{Name: "param", Value: AnnotationValue(nested)},
		{Name: "none", Value: EmptyArray()},
	})

	v, ok := a.Get("level")
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Primitive().Int())
	_, ok = a.Explicit("level")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{
		"level":   int32(3),
		"name":    "svc",
		"mode":    "p.Mode.FAST",
		"types":   []string{"p.A", "p.B"},
		"weights": []int32{1, 2},
		"param":   map[string]any{"value": "p.D"},
		"none":    []any{},
	}, a.Properties())

	assert.True(t, mode.Equal(EnumConstant{Type: NewRegistry().Stub("p.Mode"), Name: "FAST"}))
	assert.False(t, mode.Equal(EnumConstant{Type: r.Stub("p.Mode"), Name: "SLOW"}))
	assert.Equal(t, "p.Mode.FAST", mode.String())
}

func TestAnnotation_SelfNestingDefaultsTerminate(t *testing.T) {
	r := NewRegistry()
	typ := resolve(t, r, "p.Loop")
	next := NewMember(MemberInit{Kind: MethodMember, Name: "next", Descriptor: "()Lp/Loop;"})
	require.NoError(t, typ.AddMember(next))
	require.NoError(t, next.SetAnnotationDefault(AnnotationValue(NewAnnotation(typ.Handle(), typ, true, nil))))

	a := NewAnnotation(typ.Handle(), typ, true, nil)
	assert.Equal(t, map[string]any{"next": map[string]any{}}, a.Properties())
}
