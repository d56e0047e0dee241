// Package monitoring guards the catalog against embedding model drift.
package monitoring

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
)

// Metadata keys recorded with the catalog.
const (
	MetaEmbeddingModel     = "embedding_model"
	MetaEmbeddingDimension = "embedding_dimension"
)

// EmbeddingGuard detects a catalog embedded with a different model or
// dimension than the one serving queries.
type EmbeddingGuard struct {
	logger    *observability.Logger
	store     vectorstore.MetadataStore
	model     string
	dimension int
}

// EmbeddingMismatch describes stored versus current embedding settings.
type EmbeddingMismatch struct {
	StoredModel      string
	StoredDimension  int
	CurrentModel     string
	CurrentDimension int
}

func (m *EmbeddingMismatch) String() string {
	return fmt.Sprintf("catalog embedded with %s/%d, serving %s/%d",
		m.StoredModel, m.StoredDimension, m.CurrentModel, m.CurrentDimension)
}

// NewEmbeddingGuard creates a guard for the given embedder settings.
func NewEmbeddingGuard(logger *observability.Logger, store vectorstore.MetadataStore, model string, dimension int) *EmbeddingGuard {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &EmbeddingGuard{
		logger:    logger.WithOperation("embedding_guard"),
		store:     store,
		model:     model,
		dimension: dimension,
	}
}

// Check compares recorded settings with the current ones. It returns nil
// when they match or when nothing was recorded yet.
func (g *EmbeddingGuard) Check(ctx context.Context) (*EmbeddingMismatch, error) {
	model, hasModel, err := g.store.GetMeta(ctx, MetaEmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("read embedding model: %w", err)
	}
	rawDim, hasDim, err := g.store.GetMeta(ctx, MetaEmbeddingDimension)
	if err != nil {
		return nil, fmt.Errorf("read embedding dimension: %w", err)
	}
	if !hasModel && !hasDim {
		g.logger.Debug().Msg("catalog has no recorded embedding settings")
		return nil, nil
	}

	dim, _ := strconv.Atoi(rawDim)
	if model == g.model && dim == g.dimension {
		return nil, nil
	}

	mismatch := &EmbeddingMismatch{
		StoredModel:      model,
		StoredDimension:  dim,
		CurrentModel:     g.model,
		CurrentDimension: g.dimension,
	}
	g.logger.Warn().
		Str("stored_model", model).
		Int("stored_dimension", dim).
		Str("current_model", g.model).
		Int("current_dimension", g.dimension).
		Msg("Embedding model mismatch; re-seed the catalog")
	return mismatch, nil
}

// Record stores the current settings as the catalog's embedding settings.
func (g *EmbeddingGuard) Record(ctx context.Context) error {
	if err := g.store.SetMeta(ctx, MetaEmbeddingModel, g.model); err != nil {
		return err
	}
	return g.store.SetMeta(ctx, MetaEmbeddingDimension, strconv.Itoa(g.dimension))
}
