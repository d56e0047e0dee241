package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Conformance(t *testing.T) {
	runStoreConformance(t, NewMemoryStore(3))
}

func TestMemoryStore_LearnsDimension(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Upsert(ctx, []Entry{{Product: product("a", "A", "", "", "a"), Vector: []float32{0, 3}}}))
	err := s.Upsert(ctx, []Entry{{Product: product("b", "B", "", "", "a"), Vector: []float32{1, 2, 3}}})
	assert.ErrorIs(t, err, ErrVectorDimensionMismatch)
}

func TestMemoryStore_GetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	require.NoError(t, s.Upsert(ctx, []Entry{{Product: product("a", "A", "", "", "a"), Vector: []float32{1, 0}}}))

	p, vec, err := s.Get(ctx, "a")
	require.NoError(t, err)
	p.Extra["image_url"] = "mutated"
	vec[0] = 42

	again, vec2, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/a.jpg", again.Extra["image_url"])
	assert.Equal(t, float32(1), vec2[0])
}

func TestMemoryStore_RejectsMissingCode(t *testing.T) {
	s := NewMemoryStore(2)
	err := s.Upsert(context.Background(), []Entry{{Vector: []float32{1, 0}}})
	assert.Error(t, err)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore(2).Search(ctx, []float32{1, 0}, 3, Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}
