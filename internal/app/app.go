// Package app wires the store, cache, embedder, recognizer and services from
// configuration. Both the API server and the CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/harshakrishna15/SlopScan/internal/cache"
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/embedding"
	"github.com/harshakrishna15/SlopScan/internal/identify"
	"github.com/harshakrishna15/SlopScan/internal/monitoring"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/recognition"
	"github.com/harshakrishna15/SlopScan/internal/recommend"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
)

// App holds every long-lived handle. Close releases them.
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Store    vectorstore.Store
	Cache    cache.Client
	Embedder embedding.Embedder

	// Recognizer is nil when no recognition API key is configured.
	Recognizer *recognition.Client

	Identify  *identify.Service
	Recommend *recommend.Service

	// Guard is nil when the store keeps no catalog metadata.
	Guard *monitoring.EmbeddingGuard
	// Mismatch is set when the catalog was embedded with other settings.
	Mismatch *monitoring.EmbeddingMismatch
}

// New opens the configured backends and builds the services. When
// cfg.Vector.SeedIfEmpty is set an empty catalog receives the demo products.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	a := &App{Config: cfg, Logger: logger}

	store, err := vectorstore.Open(ctx, cfg.Vector)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	a.Store = store

	c, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.Cache = c

	emb, err := embedding.New(cfg, c, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	a.Embedder = emb

	var recognizer recognition.Recognizer
	rc, err := recognition.New(cfg.Recognition, logger)
	switch {
	case err == nil:
		a.Recognizer = rc
		recognizer = rc
	case domain.IsKind(err, domain.KindConfig):
		logger.Warn().Err(err).Msg("recognizer disabled; photo identification unavailable")
	default:
		a.Close()
		return nil, fmt.Errorf("create recognizer: %w", err)
	}

	a.Identify = identify.NewService(recognizer, emb, store, identify.OptionsFromConfig(cfg.Identify), logger)
	a.Recommend = recommend.NewService(store, emb, recommend.OptionsFromConfig(cfg.Recommend), logger)

	if ms, ok := store.(vectorstore.MetadataStore); ok {
		a.Guard = monitoring.NewEmbeddingGuard(logger, ms, emb.Model(), emb.Dimension())
	}

	seeded := false
	if cfg.Vector.SeedIfEmpty {
		seeded, err = vectorstore.SeedIfEmpty(ctx, store, emb)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		if seeded {
			logger.Info().Int("products", len(vectorstore.DemoProducts())).Msg("seeded empty catalog with demo products")
		}
	}

	a.checkEmbedding(ctx, seeded)

	logger.Info().
		Str("vector", cfg.Vector.Adapter).
		Str("cache", cfg.Cache.Driver).
		Str("embedding_model", emb.Model()).
		Bool("recognizer", a.Recognizer != nil).
		Msg("SlopScan initialized")

	return a, nil
}

// RecordEmbedding marks the catalog as embedded with the current embedder.
func (a *App) RecordEmbedding(ctx context.Context) error {
	a.Mismatch = nil
	if a.Guard == nil {
		return nil
	}
	return a.Guard.Record(ctx)
}

// checkEmbedding records the embedder after a fresh seed, otherwise compares
// it with the recorded one. Metadata errors are logged and never fail startup.
func (a *App) checkEmbedding(ctx context.Context, seeded bool) {
	var err error
	if seeded {
		err = a.RecordEmbedding(ctx)
	} else if a.Guard != nil {
		a.Mismatch, err = a.Guard.Check(ctx)
	}
	if err != nil {
		a.Logger.Warn().Err(err).Msg("embedding guard unavailable; continuing without it")
	}
}

// EmbeddingStatus summarizes the embedding guard for status output.
func (a *App) EmbeddingStatus() string {
	switch {
	case a.Guard == nil:
		return "untracked"
	case a.Mismatch != nil:
		return "mismatch: " + a.Mismatch.String()
	default:
		return "ok"
	}
}

// RecognizerState reports the recognizer circuit breaker state, or
// "disabled" when no recognizer is configured.
func (a *App) RecognizerState() string {
	if a.Recognizer == nil {
		return "disabled"
	}
	return a.Recognizer.State()
}

// Close releases the store and cache.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vector store: %w", err))
		}
	}
	return errors.Join(errs...)
}
