package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/domain"
)

func product(code, name, brands, categories, grade string) catalog.Product {
	return catalog.Product{
		Code:          code,
		Name:          name,
		Brands:        brands,
		Categories:    categories,
		EcoscoreGrade: grade,
		Extra:         map[string]any{"image_url": "https://img.example/" + code + ".jpg"},
	}
}

func codes(matches []catalog.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Product.Code
	}
	return out
}

// runStoreConformance exercises behavior every adapter must share.
// The store must be empty and configured for 3-dimensional vectors.
func runStoreConformance(t *testing.T, s Store) {
	ctx := context.Background()

	err := s.Upsert(ctx, []Entry{
		{Product: product("water", "Spring Water", "Acme", "Beverages, Water", "a"), Vector: []float32{1, 0, 0}},
		{Product: product("soda", "Cola Soda", "Fizz", "Beverages, Sodas", "d"), Vector: []float32{0.8, 0.6, 0}},
		{Product: product("spread", "Hazelnut Spread", "Ferrero", "Spreads", "e"), Vector: []float32{0, 1, 0}},
		{Product: product("seltzer", "Lime Seltzer", "Bubbly", "Beverages, Sparkling Water", "B"), Vector: []float32{2, 0, 0}},
	})
	require.NoError(t, err)

	t.Run("count", func(t *testing.T) {
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("search orders by similarity with insertion order breaking ties", func(t *testing.T) {
		got, err := s.Search(ctx, []float32{1, 0, 0}, 3, Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"water", "seltzer", "soda"}, codes(got))
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-5)
		assert.InDelta(t, 0.8, got[2].Similarity, 1e-5)
		for _, m := range got {
			assert.GreaterOrEqual(t, m.Similarity, 0.0)
			assert.LessOrEqual(t, m.Similarity, 1.0)
		}
	})

	t.Run("payload round trips", func(t *testing.T) {
		got, err := s.Search(ctx, []float32{0, 1, 0}, 1, Filter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Hazelnut Spread", got[0].Product.Name)
		assert.Equal(t, "Ferrero", got[0].Product.Brands)
		assert.Equal(t, "https://img.example/spread.jpg", got[0].Product.Extra["image_url"])
	})

	t.Run("grade filter", func(t *testing.T) {
		got, err := s.Search(ctx, []float32{1, 0, 0}, 10, Filter{Grades: GradesUpTo("b")})
		require.NoError(t, err)
		assert.Equal(t, []string{"water", "seltzer"}, codes(got))
	})

	t.Run("category filter uses primary category", func(t *testing.T) {
		got, err := s.Search(ctx, []float32{0, 1, 0}, 10, Filter{Category: "beverages, anything"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"water", "soda", "seltzer"}, codes(got))
	})

	t.Run("get", func(t *testing.T) {
		p, vec, err := s.Get(ctx, "soda")
		require.NoError(t, err)
		assert.Equal(t, "Cola Soda", p.Name)
		require.Len(t, vec, 3)
		assert.InDelta(t, 0.8, vec[0], 1e-5)

		_, _, err = s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upsert replaces by code", func(t *testing.T) {
		updated := product("soda", "Cola Soda Zero", "Fizz", "Beverages, Sodas", "c")
		require.NoError(t, s.Upsert(ctx, []Entry{{Product: updated, Vector: []float32{0.8, 0.6, 0}}}))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		p, _, err := s.Get(ctx, "soda")
		require.NoError(t, err)
		assert.Equal(t, "Cola Soda Zero", p.Name)
		assert.Equal(t, "c", p.EcoscoreGrade)
	})

	t.Run("catalog metadata", func(t *testing.T) {
		ms, ok := s.(MetadataStore)
		require.True(t, ok)

		_, found, err := ms.GetMeta(ctx, "embedding_model")
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, ms.SetMeta(ctx, "embedding_model", "m1"))
		require.NoError(t, ms.SetMeta(ctx, "embedding_model", "m2"))

		v, found, err := ms.GetMeta(ctx, "embedding_model")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "m2", v)
	})

	t.Run("dimension mismatch is a search error", func(t *testing.T) {
		_, err := s.Search(ctx, []float32{1, 0}, 3, Filter{})
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindSearch))
		assert.ErrorIs(t, err, ErrVectorDimensionMismatch)
	})

	t.Run("closed store fails with search error", func(t *testing.T) {
		require.NoError(t, s.Close())
		_, err := s.Search(ctx, []float32{1, 0, 0}, 3, Filter{})
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindSearch))
		assert.ErrorIs(t, err, ErrClosed)
	})
}
