package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"classgraph/internal/classfile"
	"classgraph/internal/classfile/classtest"
	"classgraph/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport_MalformedUnitIsolation(t *testing.T) {
	first := classtest.NewClass("p.First").Bytes()
	second := classtest.NewClass("p.Second").Annotate(classtest.Ann("p.Marker")).Bytes()
	third := classtest.NewClass("p.Third").Interfaces("p.First").Bytes()

	// Cut inside the constant pool: header is 10 bytes, the first entry is the
	// class name utf8.
	truncated := second[:14]

	res, err := Import(context.Background(), []Unit{
		BytesUnit("First.class", first),
		BytesUnit("Second.class", truncated),
		BytesUnit("Third.class", third),
	}, WithWorkers(2))
	require.NoError(t, err)

	for _, name := range []string{"p.First", "p.Third"} {
		c, ok := res.Graph.Class(name)
		require.True(t, ok, name)
		assert.True(t, c.Handle().IsResolved())
	}
	_, ok := res.Graph.Class("p.Second")
	assert.False(t, ok)

	third3, _ := res.Graph.Class("p.Third")
	assert.True(t, third3.Interfaces()[0].IsResolved())

	malformed := res.DiagnosticsOf(MalformedUnit)
	require.Len(t, malformed, 1)
	assert.Equal(t, "Second.class", malformed[0].Unit)
	assert.ErrorIs(t, malformed[0].Err, classfile.ErrMalformedUnit)
	var mu *classfile.MalformedUnitError
	require.ErrorAs(t, malformed[0].Err, &mu)
	assert.Equal(t, "Second.class", mu.Unit)
}

func TestImport_DuplicateUnitNames(t *testing.T) {
	res, err := Import(context.Background(), []Unit{
		BytesUnit("A.class", classtest.NewClass("p.A").SourceFile("One.java").Bytes()),
		BytesUnit("A.class", classtest.NewClass("p.A").SourceFile("Two.java").Bytes()),
	})
	require.NoError(t, err)

	dups := res.DiagnosticsOf(DuplicateImport)
	require.Len(t, dups, 1)
	assert.Equal(t, "A.class", dups[0].Unit)

	c, ok := res.Graph.Class("p.A")
	require.True(t, ok)
	assert.Equal(t, "One.java", c.SourceFile())
}

func TestImport_DuplicateTypeNames(t *testing.T) {
	res, err := Import(context.Background(), []Unit{
		BytesUnit("a/A.class", classtest.NewClass("p.A").Bytes()),
		BytesUnit("b/A.class", classtest.NewClass("p.A").Bytes()),
	}, WithWorkers(1))
	require.NoError(t, err)

	dups := res.DiagnosticsOf(DuplicateImport)
	require.Len(t, dups, 1)
	var dup *domain.DuplicateImportError
	require.ErrorAs(t, dups[0].Err, &dup)
	assert.Equal(t, "b/A.class", dup.Unit)
	assert.Equal(t, "a/A.class", dup.FirstUnit)
}

func TestImport_UnresolvedReferences(t *testing.T) {
	res, err := Import(context.Background(), []Unit{
		BytesUnit("A.class", classtest.NewClass("p.A").Super("p.Base").Bytes()),
	})
	require.NoError(t, err)

	var names []string
	for _, d := range res.DiagnosticsOf(UnresolvedReferenceAsStub) {
		names = append(names, d.Message)
		assert.Equal(t, "A.class", d.Unit)
	}
	assert.Equal(t, []string{"p.Base referenced but not imported, kept as stub"}, names)

	h, ok := res.Graph.Handle("p.Base")
	require.True(t, ok)
	assert.True(t, h.IsStub())
	assert.Equal(t, 1, res.Stats.Stubs)
}

func TestImport_OpenUnits(t *testing.T) {
	data := classtest.NewClass("p.Opened").Bytes()
	res, err := Import(context.Background(), []Unit{
		{Name: "Opened.class", Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}},
		{Name: "Broken.class", Open: func() (io.ReadCloser, error) {
			return nil, errors.New("permission denied")
		}},
	})
	require.NoError(t, err)

	_, ok := res.Graph.Class("p.Opened")
	assert.True(t, ok)
	malformed := res.DiagnosticsOf(MalformedUnit)
	require.Len(t, malformed, 1)
	assert.Equal(t, "Broken.class", malformed[0].Unit)
	assert.NotErrorIs(t, malformed[0].Err, classfile.ErrMalformedUnit)
	assert.Contains(t, malformed[0].Message, "permission denied")
}

func TestImport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Import(ctx, []Unit{BytesUnit("A.class", classtest.NewClass("p.A").Bytes())})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestImport_Cache(t *testing.T) {
	cache, err := NewDescriptorCache(8)
	require.NoError(t, err)
	data := classtest.NewClass("p.Cached").Bytes()

	_, err = Import(context.Background(), []Unit{BytesUnit("first/Cached.class", data)}, WithCache(cache))
	require.NoError(t, err)
	res, err := Import(context.Background(), []Unit{BytesUnit("second/Cached.class", data)}, WithCache(cache))
	require.NoError(t, err)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, cache.Len())

	c, ok := res.Graph.Class("p.Cached")
	require.True(t, ok)
	assert.Equal(t, "second/Cached.class", c.Unit())

	_, err = cache.Parse("bad.class", []byte{0xCA, 0xFE})
	assert.ErrorIs(t, err, classfile.ErrMalformedUnit)
	assert.Equal(t, 1, cache.Len())
}

func TestImport_ExcludeInvisible(t *testing.T) {
	data := classtest.NewClass("p.A").Annotate(
		classtest.Ann("p.Runtime"),
		classtest.Annotation{Type: "p.Build", Invisible: true},
	).Bytes()

	res, err := Import(context.Background(), []Unit{BytesUnit("A.class", data)}, WithIncludeInvisible(false))
	require.NoError(t, err)
	c, _ := res.Graph.Class("p.A")
	assert.True(t, c.IsAnnotatedWith("p.Runtime"))
	assert.False(t, c.IsAnnotatedWith("p.Build"))
}

func TestImport_ManyUnitsConcurrently(t *testing.T) {
	var units []Unit
	names := []string{"p.A", "p.B", "p.C", "p.D", "p.E", "p.F", "p.G", "p.H"}
	for i, name := range names {
		b := classtest.NewClass(name)
		if i > 0 {
			b.Super(names[i-1])
		}
		units = append(units, BytesUnit(name+".class", b.Bytes()))
	}
	res, err := Import(context.Background(), units, WithWorkers(4))
	require.NoError(t, err)
	require.Len(t, res.Graph.Classes(), len(names))
	for i := 1; i < len(names); i++ {
		c, _ := res.Graph.Class(names[i])
		prev, _ := res.Graph.Handle(names[i-1])
		assert.Same(t, prev, c.Super())
		assert.True(t, c.Super().IsResolved())
	}
}
