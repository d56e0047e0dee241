package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestMockClient_DeterministicUnitVectors(t *testing.T) {
	c := NewMockClient(64)
	ctx := context.Background()

	a, err := c.EmbedSingle(ctx, "Coca-Cola Zero Sugar")
	require.NoError(t, err)
	b, err := c.EmbedSingle(ctx, "coca cola zero sugar")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)
	assert.Equal(t, a, b, "case and punctuation do not matter")
}

func TestMockClient_SharedWordsAreCloser(t *testing.T) {
	c := NewMockClient(256)
	vecs, err := c.Embed(context.Background(), []string{"nutella hazelnut spread", "hazelnut spread", "sparkling water lime"})
	require.NoError(t, err)

	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestMockClient_EmptyText(t *testing.T) {
	v, err := NewMockClient(8).EmbedSingle(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, float32(1), v[0])
}
