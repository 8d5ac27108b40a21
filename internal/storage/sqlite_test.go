package storage

import (
	"context"
	"path/filepath"
	"testing"

	"classgraph/internal/classfile/classtest"
	"classgraph/internal/domain"
	"classgraph/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importGraph(t *testing.T, builders ...*classtest.Builder) *domain.Graph {
	t.Helper()
	units := make([]session.Unit, len(builders))
	for i, b := range builders {
		units[i] = session.BytesUnit("unit"+string(rune('a'+i))+".class", b.Bytes())
	}
	res, err := session.Import(context.Background(), units)
	require.NoError(t, err)
	return res.Graph
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func serviceGraph(t *testing.T) *domain.Graph {
	return importGraph(t,
		classtest.NewAnnotationType("p.Component").
			Element("value", "java.lang.String"),
		classtest.NewAnnotationType("p.Service").
			Annotate(classtest.Ann("p.Component")),
		classtest.NewClass("p.Orders").
			Interfaces("p.Api").
			Annotate(classtest.Ann("p.Service")).
			Method(classtest.Member{
				Access:      0x0001,
				Name:        "find",
				Descriptor:  classtest.MethodDescriptor("p.Order", "long"),
				Annotations: []classtest.Annotation{classtest.Ann("p.Component", classtest.Elem("value", classtest.String("finder")))},
				ParameterAnnotations: [][]classtest.Annotation{
					{classtest.Ann("p.Component", classtest.Elem("value", classtest.String("id")))},
				},
			}),
	)
}

func TestSQLiteStore_SaveGraph(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveGraph(ctx, serviceGraph(t)))

	summaries, err := store.LoadSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "p.Component", summaries[0].Name)
	assert.Equal(t, "p.Orders", summaries[1].Name)
	assert.Equal(t, "p.Service", summaries[2].Name)

	orders := summaries[1]
	assert.Equal(t, "p", orders.Package)
	assert.Equal(t, "unitc.class", orders.Unit)
	assert.Equal(t, "java.lang.Object", orders.Super)
	assert.Equal(t, []string{"p.Api"}, orders.Interfaces)
	assert.Equal(t, 1, orders.Members)
	assert.Equal(t, []string{"p.Service"}, orders.Annotations)

	t.Run("find annotated", func(t *testing.T) {
		records, err := store.FindAnnotated(ctx, "p.Component")
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, "p.Orders", records[0].Class)
		assert.Equal(t, "find", records[0].Member)
		assert.Equal(t, -1, records[0].Parameter)
		assert.Equal(t, "finder", records[0].Properties["value"])

		assert.Equal(t, 0, records[1].Parameter)
		assert.Equal(t, "id", records[1].Properties["value"])

		assert.Equal(t, "p.Service", records[2].Class)
		assert.Empty(t, records[2].Member)
		assert.True(t, records[2].Visible)
	})

	t.Run("load class", func(t *testing.T) {
		c, err := store.LoadClass(ctx, "p.Orders")
		require.NoError(t, err)
		assert.Equal(t, "class", c.Kind)
		require.Len(t, c.Members, 1)
		assert.Equal(t, "p.Order", c.Members[0].Type)
		assert.Equal(t, []string{"long"}, c.Members[0].Parameters)

		_, err = store.LoadClass(ctx, "p.Missing")
		assert.ErrorIs(t, err, ErrClassNotFound)
	})

	t.Run("stubs", func(t *testing.T) {
		stubs, err := store.Stubs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"java.lang.Object",
			"java.lang.String",
			"java.lang.annotation.Annotation",
			"p.Api",
			"p.Order",
		}, stubs)
	})
}

func TestSQLiteStore_SaveGraph_SnapshotSync(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	// Initial snapshot: A and B, A annotated with B
	g1 := importGraph(t,
		classtest.NewClass("p.A").Annotate(classtest.Ann("p.B")),
		classtest.NewAnnotationType("p.B"),
	)
	require.NoError(t, store.SaveGraph(ctx, g1))

	// New snapshot: A removed, C added and annotated with B
	g2 := importGraph(t,
		classtest.NewAnnotationType("p.B"),
		classtest.NewClass("p.C").Annotate(classtest.Ann("p.B")),
	)
	require.NoError(t, store.SaveGraph(ctx, g2))

	summaries, err := store.LoadSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "p.B", summaries[0].Name)
	assert.Equal(t, "p.C", summaries[1].Name)

	records, err := store.FindAnnotated(ctx, "p.B")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p.C", records[0].Class)
}

func TestSQLiteStore_SaveGraph_EmptySnapshotClearsData(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveGraph(ctx, serviceGraph(t)))
	require.NoError(t, store.SaveGraph(ctx, importGraph(t)))

	summaries, err := store.LoadSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	records, err := store.FindAnnotated(ctx, "p.Component")
	require.NoError(t, err)
	assert.Empty(t, records)

	stubs, err := store.Stubs(ctx)
	require.NoError(t, err)
	assert.Empty(t, stubs)
}
