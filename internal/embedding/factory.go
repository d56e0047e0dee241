package embedding

import (
	"fmt"

	"github.com/harshakrishna15/SlopScan/internal/cache"
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/observability"
)

// New builds the configured embedder, wrapped in a cache when c is non-nil.
func New(cfg *config.Config, c cache.Client, logger *observability.Logger) (Embedder, error) {
	var base Embedder
	switch cfg.Embedding.Provider {
	case "mock":
		base = NewMockClient(cfg.Embedding.Dimension)
	case "", "openrouter":
		client, err := NewClient(Config{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			BaseURL:    cfg.Embedding.BaseURL,
			Dimension:  cfg.Embedding.Dimension,
			Timeout:    cfg.Embedding.Timeout,
			MaxRetries: cfg.Embedding.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		base = client
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}

	if c == nil {
		return base, nil
	}
	return NewCachedEmbedder(base, c, cfg.Cache.TTL, logger), nil
}
