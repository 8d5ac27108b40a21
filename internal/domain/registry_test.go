package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Stub(t *testing.T) {
	r := NewRegistry()

	t.Run("idempotent", func(t *testing.T) {
		a := r.Stub("com.example.A")
		b := r.Stub("com.example.A")
		assert.Same(t, a, b)
		assert.True(t, a.IsStub())
		assert.Equal(t, Stub, a.State())
	})

	t.Run("array registers component", func(t *testing.T) {
		arr := r.Stub("java.lang.String[][]")
		require.NotNil(t, arr.Component())
		assert.Equal(t, "java.lang.String[]", arr.Component().Name())
		assert.Same(t, r.Stub("java.lang.String"), arr.Component().Component())
		assert.True(t, arr.IsArray())
	})

	t.Run("concurrent callers share one handle", func(t *testing.T) {
		var wg sync.WaitGroup
		got := make([]*Handle, 32)
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i] = r.Stub("com.example.Concurrent")
			}(i)
		}
		wg.Wait()
		for _, h := range got {
			assert.Same(t, got[0], h)
		}
	})

	t.Run("lookup does not create", func(t *testing.T) {
		_, ok := r.Lookup("com.example.Missing")
		assert.False(t, ok)
		h, ok := r.Lookup("com.example.A")
		assert.True(t, ok)
		assert.Equal(t, "com.example.A", h.Name())
	})
}

func TestRegistry_Upgrade(t *testing.T) {
	r := NewRegistry()
	h := r.Stub("com.example.A")

	first := NewClass(h, ClassInit{Unit: "a1.class"})
	require.NoError(t, r.Upgrade(h, first))
	assert.True(t, h.IsResolved())
	assert.Same(t, first, h.Class())

	second := NewClass(h, ClassInit{Unit: "a2.class"})
	err := r.Upgrade(h, second)
	var dup *DuplicateImportError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "com.example.A", dup.Name)
	assert.Equal(t, "a2.class", dup.Unit)
	assert.Equal(t, "a1.class", dup.FirstUnit)
	assert.Same(t, first, h.Class(), "first import wins")

	t.Run("foreign handle", func(t *testing.T) {
		other := NewRegistry().Stub("com.example.B")
		assert.Error(t, r.Upgrade(other, NewClass(other, ClassInit{})))
	})

	t.Run("primitive", func(t *testing.T) {
		p := r.Stub("int")
		assert.Error(t, r.Upgrade(p, NewClass(p, ClassInit{})))
	})

	t.Run("frozen", func(t *testing.T) {
		b := r.Stub("com.example.B")
		g := r.Freeze()
		assert.ErrorIs(t, r.Upgrade(b, NewClass(b, ClassInit{})), ErrGraphFrozen)
		assert.ErrorIs(t, first.AddAnnotation(NewAnnotation(b, first, true, nil)), ErrGraphFrozen)

		detached := r.Stub("com.example.Late")
		_, ok := g.Handle("com.example.Late")
		assert.False(t, ok)
		assert.True(t, detached.IsStub())
		assert.Same(t, detached, r.Stub("com.example.Late"))
		assert.Same(t, b, r.Stub("com.example.B"))

		_, ok = r.Lookup("com.example.Late")
		assert.False(t, ok)

		arr := r.Stub("com.example.Late[]")
		assert.Same(t, arr, r.Stub("com.example.Late[]"))
		assert.Same(t, detached, arr.Component())
		_, ok = g.Handle("com.example.Late[]")
		assert.False(t, ok)
	})
}

func TestHandle_Names(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name, simple, pkg string
		primitive       bool
	}{
		{"com.example.Outer$Inner", "Inner", "com.example", false},
		{"com.example.Plain[]", "Plain[]", "com.example", false},
		{"Unpackaged", "Unpackaged", "", false},
		{"int", "int", "", true},
		{"int[]", "int[]", "", false},
	}
	for _, tc := range cases {
		h := r.Stub(tc.name)
		assert.Equal(t, tc.simple, h.SimpleName(), tc.name)
		assert.Equal(t, tc.pkg, h.PackageName(), tc.name)
		assert.Equal(t, tc.primitive, h.IsPrimitive(), tc.name)
	}
}

func TestGraph_Freeze(t *testing.T) {
	r := NewRegistry()
	b := r.Stub("com.example.B")
	a := r.Stub("com.example.A")
	r.Stub("com.example.Unresolved")
	require.NoError(t, r.Upgrade(b, NewClass(b, ClassInit{})))
	require.NoError(t, r.Upgrade(a, NewClass(a, ClassInit{})))

	g := r.Freeze()
	classes := g.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, "com.example.A", classes[0].Name())
	assert.Equal(t, "com.example.B", classes[1].Name())

	_, ok := g.Class("com.example.Unresolved")
	assert.False(t, ok)
	stubs := g.Stubs()
	require.Len(t, stubs, 1)
	assert.Equal(t, "com.example.Unresolved", stubs[0].Name())
	assert.Len(t, g.Handles(), 3)
}
