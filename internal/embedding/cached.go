package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/harshakrishna15/SlopScan/internal/cache"
	"github.com/harshakrishna15/SlopScan/internal/observability"
)

// CachedEmbedder serves repeated texts from a cache and forwards misses
// to the wrapped Embedder in a single batch.
type CachedEmbedder struct {
	inner  Embedder
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCachedEmbedder wraps inner with c. A zero ttl keeps entries forever.
func NewCachedEmbedder(inner Embedder, c cache.Client, ttl time.Duration, logger *observability.Logger) *CachedEmbedder {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CachedEmbedder{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: logger.WithOperation("embedding_cache"),
	}
}

// Embed returns vectors for texts, calling the wrapped Embedder only for misses.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)

	for i, text := range texts {
		keys[i] = e.key(text)
		if vec, ok := e.lookup(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := e.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, vec := range fresh {
		i := missIdx[j]
		out[i] = vec
		e.store(ctx, keys[i], vec)
	}

	e.logger.Debug().
		Int("requested", len(texts)).
		Int("misses", len(missTexts)).
		Msg("embedding cache lookup")

	return out, nil
}

// EmbedSingle embeds one text through the cache.
func (e *CachedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Model returns the wrapped model name.
func (e *CachedEmbedder) Model() string {
	return e.inner.Model()
}

// Dimension returns the wrapped dimension.
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

// key is sha256(model + text), scoped under the model name.
func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.inner.Model() + "\x00" + text))
	return cache.EmbeddingKey(e.inner.Model(), hex.EncodeToString(sum[:]))
}

// lookup treats cache errors as misses.
func (e *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	raw, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn().Err(err).Msg("embedding cache read failed")
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (e *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, raw, e.ttl); err != nil {
		e.logger.Warn().Err(err).Msg("embedding cache write failed")
	}
}
