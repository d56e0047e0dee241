// Package recommend finds greener, brand-diverse alternatives to a product.
package recommend

import (
	"context"
	"errors"
	"strings"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/embedding"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
)

// Options tune the alternatives pool.
type Options struct {
	MinEcoscore     string
	ProductPoolSize int
	SourcePoolSize  int
	MaxResults      int
	MatchCategory   bool
}

// OptionsFromConfig maps the recommend config section.
func OptionsFromConfig(cfg config.RecommendConfig) Options {
	return Options{
		MinEcoscore:     cfg.MinEcoscore,
		ProductPoolSize: cfg.ProductPoolSize,
		SourcePoolSize:  cfg.SourcePoolSize,
		MaxResults:      cfg.MaxResults,
		MatchCategory:   cfg.MatchCategory,
	}
}

// Service looks up alternatives in the vector store.
type Service struct {
	store    vectorstore.Store
	embedder embedding.Embedder
	opts     Options
	logger   *observability.Logger
}

// NewService creates a recommendation service.
func NewService(store vectorstore.Store, embedder embedding.Embedder, opts Options, logger *observability.Logger) *Service {
	if opts.MinEcoscore == "" {
		opts.MinEcoscore = "b"
	}
	if opts.ProductPoolSize <= 0 {
		opts.ProductPoolSize = 25
	}
	if opts.SourcePoolSize <= 0 {
		opts.SourcePoolSize = 60
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		store:    store,
		embedder: embedder,
		opts:     opts,
		logger:   logger.WithOperation("recommend"),
	}
}

// ForProduct recommends alternatives to a catalog product, searching with
// its stored vector.
func (s *Service) ForProduct(ctx context.Context, code string) ([]catalog.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ValidationError("product code is required", nil)
	}

	p, vec, err := s.store.Get(ctx, code)
	if errors.Is(err, vectorstore.ErrNotFound) || (err == nil && len(vec) == 0) {
		return nil, domain.NotFoundError("product not found", vectorstore.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return s.recommend(ctx, vec, s.opts.ProductPoolSize, p.Categories, Source{Code: p.Code})
}

// ForSource recommends alternatives to a described product that may not be
// in the catalog.
func (s *Service) ForSource(ctx context.Context, src Source) ([]catalog.Product, error) {
	if strings.TrimSpace(src.Name) == "" {
		return nil, domain.ValidationError("product_name is required", nil)
	}

	vec, err := s.embedder.EmbedSingle(ctx, src.Text())
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.EmbeddingError("embed source", err)
	}

	return s.recommend(ctx, vec, s.opts.SourcePoolSize, src.Categories, src)
}

func (s *Service) recommend(ctx context.Context, vec []float32, pool int, categories string, src Source) ([]catalog.Product, error) {
	filter := vectorstore.Filter{Grades: vectorstore.GradesUpTo(s.opts.MinEcoscore)}
	if s.opts.MatchCategory {
		filter.Category = catalog.PrimaryCategory(categories)
	}

	matches, err := s.store.Search(ctx, vec, pool, filter)
	if err != nil {
		return nil, err
	}

	candidates := make([]catalog.Product, len(matches))
	for i, m := range matches {
		candidates[i] = m.Product
	}

	out := Filter(src, candidates, s.opts.MaxResults)

	s.logger.WithContext(ctx).Info().
		Str("source_code", src.Code).
		Str("category", filter.Category).
		Strs("grades", filter.Grades).
		Int("pool", len(matches)).
		Int("returned", len(out)).
		Msg("alternatives selected")

	return out, nil
}
