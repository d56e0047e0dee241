// Package identify turns recognizer guesses into a ranked, confidence-gated
// product match.
package identify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/embedding"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/ranking"
	"github.com/harshakrishna15/SlopScan/internal/recognition"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
)

// Options tune the pipeline.
type Options struct {
	ConfidenceThreshold float64
	PerGuessTopK        int
	MaxCandidates       int
	FanoutWorkers       int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0,
		PerGuessTopK:        3,
		MaxCandidates:       5,
		FanoutWorkers:       5,
	}
}

// OptionsFromConfig maps the identify config section.
func OptionsFromConfig(cfg config.IdentifyConfig) Options {
	return Options{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		PerGuessTopK:        cfg.PerGuessTopK,
		MaxCandidates:       cfg.MaxCandidates,
		FanoutWorkers:       cfg.FanoutWorkers,
	}
}

// BestMatch is the public subset of the top candidate.
type BestMatch struct {
	Code          string
	Name          string
	Brands        string
	Confidence    float64
	EcoscoreGrade string
}

// Result is the outcome of one identify request.
type Result struct {
	Guesses           []string
	Brand             string
	FrontText         string
	BestMatch         *BestMatch
	Candidates        []ranking.Scored
	NeedsConfirmation bool
}

// Service runs recognize, embed, fan-out search, aggregate, rescore, rank and gate.
type Service struct {
	recognizer recognition.Recognizer
	embedder   embedding.Embedder
	store      vectorstore.Store
	opts       Options
	logger     *observability.Logger
}

// NewService wires the pipeline. recognizer may be nil when only
// IdentifyGuesses is used.
func NewService(recognizer recognition.Recognizer, embedder embedding.Embedder, store vectorstore.Store, opts Options, logger *observability.Logger) *Service {
	if opts.PerGuessTopK <= 0 {
		opts.PerGuessTopK = 3
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 5
	}
	if opts.FanoutWorkers <= 0 {
		opts.FanoutWorkers = 5
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		recognizer: recognizer,
		embedder:   embedder,
		store:      store,
		opts:       opts,
		logger:     logger.WithOperation("identify"),
	}
}

// Identify recognizes the product in image and matches it against the catalog.
func (s *Service) Identify(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, domain.ValidationError("empty image file", nil)
	}
	if s.recognizer == nil {
		return nil, domain.ConfigError("no recognizer configured", nil)
	}

	rec, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.RecognitionError("recognizer failed", err)
	}

	return s.IdentifyGuesses(ctx, rec)
}

// IdentifyGuesses runs the matching pipeline for already-recognized guesses.
func (s *Service) IdentifyGuesses(ctx context.Context, rec recognition.Result) (*Result, error) {
	log := s.logger.WithContext(ctx)
	start := time.Now()

	guesses := make([]string, 0, len(rec.Guesses))
	for _, g := range rec.Guesses {
		if g = strings.TrimSpace(g); g != "" {
			guesses = append(guesses, g)
		}
	}

	res := &Result{
		Guesses:           guesses,
		Brand:             strings.TrimSpace(rec.Brand),
		FrontText:         strings.TrimSpace(rec.FrontText),
		Candidates:        []ranking.Scored{},
		NeedsConfirmation: true,
	}

	if len(guesses) == 0 {
		log.Info().Msg("recognizer returned no guesses")
		return res, nil
	}

	vectors, err := s.embedGuesses(ctx, log, guesses)
	if err != nil {
		return nil, err
	}

	outcomes := fanOut(ctx, s.store, vectors, s.opts.PerGuessTopK, s.opts.FanoutWorkers)

	perGuess := make([][]catalog.Match, 0, len(outcomes))
	var (
		firstErr  error
		succeeded int
	)
	for i, o := range outcomes {
		if vectors[i] == nil {
			continue
		}
		if o.err != nil {
			log.Warn().
				Str("guess", guesses[i]).
				Int("guess_index", i).
				Err(o.err).
				Msg("search failed for guess")
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		succeeded++
		perGuess = append(perGuess, o.matches)
	}

	if succeeded == 0 {
		return nil, domain.SearchError("vector search failed for every guess", firstErr)
	}

	merged := Aggregate(perGuess)
	query := ranking.BuildQuery(guesses, res.Brand, res.FrontText)
	ranked := ranking.Rank(ranking.Rescore(query, merged), s.opts.MaxCandidates)

	for _, c := range ranked {
		log.Debug().
			Str("product_code", c.Product.Code).
			Float64("similarity", c.Similarity).
			Float64("brand_boost", c.BrandBoost).
			Float64("variant_delta", c.VariantDelta).
			Float64("adjusted", c.Adjusted).
			Msg("rescored candidate")
	}

	res.Candidates = ranked
	var best *ranking.Scored
	if len(ranked) > 0 {
		best = &ranked[0]
		res.BestMatch = &BestMatch{
			Code:          best.Product.Code,
			Name:          best.Product.Name,
			Brands:        best.Product.Brands,
			Confidence:    best.Adjusted,
			EcoscoreGrade: best.Product.EcoscoreGrade,
		}
	}
	res.NeedsConfirmation = ranking.NeedsConfirmation(best, s.opts.ConfidenceThreshold)

	log.Info().
		Int("guesses", len(guesses)).
		Int("failed_guesses", len(guesses)-succeeded).
		Int("unique_candidates", len(merged)).
		Bool("needs_confirmation", res.NeedsConfirmation).
		Dur("duration", time.Since(start)).
		Msg("identify complete")

	return res, nil
}

// embedGuesses embeds all guesses in one batch, falling back to one call per
// guess when the batch fails. A guess whose embedding fails gets a nil
// vector. It fails only when no guess could be embedded.
func (s *Service) embedGuesses(ctx context.Context, log *observability.Logger, guesses []string) ([][]float32, error) {
	vectors, err := s.embedder.Embed(ctx, guesses)
	if err == nil && len(vectors) == len(guesses) {
		return vectors, nil
	}
	if err == nil {
		err = domain.EmbeddingError("embedding batch size mismatch", nil)
	}
	log.Warn().Err(err).Msg("batch embedding failed, embedding guesses one by one")

	vectors = make([][]float32, len(guesses))
	var firstErr error
	ok := 0
	for i, g := range guesses {
		v, gerr := s.embedder.EmbedSingle(ctx, g)
		if gerr != nil || len(v) == 0 {
			if gerr == nil {
				gerr = domain.EmbeddingError("empty embedding", nil)
			}
			log.Warn().Str("guess", g).Int("guess_index", i).Err(gerr).Msg("embedding failed for guess")
			if firstErr == nil {
				firstErr = gerr
			}
			continue
		}
		vectors[i] = v
		ok++
	}

	if ok == 0 {
		return nil, domain.EmbeddingError("could not embed any guess", firstErr)
	}
	return vectors, nil
}
