package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshakrishna15/SlopScan/internal/cache"
	"github.com/harshakrishna15/SlopScan/internal/config"
)

type countingEmbedder struct {
	*MockClient
	inputs [][]string
	err    error
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.inputs = append(c.inputs, append([]string(nil), texts...))
	if c.err != nil {
		return nil, c.err
	}
	return c.MockClient.Embed(ctx, texts)
}

type brokenCache struct{ cache.Client }

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func TestCachedEmbedder_OnlyMissesReachInner(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{MockClient: NewMockClient(16)}
	mc := cache.NewMemoryClient(100)
	defer mc.Close()
	e := NewCachedEmbedder(inner, mc, time.Hour, nil)

	first, err := e.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)

	second, err := e.Embed(ctx, []string{"b", "c", "a"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, inner.inputs)
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, 3, mc.Len())
}

func TestCachedEmbedder_KeysIncludeModel(t *testing.T) {
	mc := cache.NewMemoryClient(10)
	defer mc.Close()
	e := NewCachedEmbedder(NewMockClient(8), mc, 0, nil)

	key := e.key("hello")
	assert.Contains(t, key, "emb:mock-embedding-model:")
	assert.NotEqual(t, key, e.key("hello "))
}

func TestCachedEmbedder_CacheFailuresFallThrough(t *testing.T) {
	inner := &countingEmbedder{MockClient: NewMockClient(8)}
	e := NewCachedEmbedder(inner, brokenCache{}, time.Hour, nil)

	v, err := e.EmbedSingle(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, v, 8)
}

func TestCachedEmbedder_PropagatesInnerError(t *testing.T) {
	mc := cache.NewMemoryClient(10)
	defer mc.Close()
	inner := &countingEmbedder{MockClient: NewMockClient(8), err: errors.New("quota")}

	_, err := NewCachedEmbedder(inner, mc, 0, nil).Embed(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "quota")
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Embedding.Provider = "mock"

	e, err := New(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, e)

	mc := cache.NewMemoryClient(1)
	defer mc.Close()
	e, err = New(cfg, mc, nil)
	require.NoError(t, err)
	assert.IsType(t, &CachedEmbedder{}, e)

	cfg.Embedding.Provider = "openrouter"
	cfg.Embedding.APIKey = ""
	_, err = New(cfg, nil, nil)
	assert.Error(t, err)
}
