// Package vectorstore provides nearest-neighbor search over the product catalog.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/config"
	"github.com/harshakrishna15/SlopScan/internal/domain"
)

// Store defines the nearest-neighbor catalog contract.
type Store interface {
	// Search returns up to k products nearest to query, most similar first.
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]catalog.Match, error)

	// Get returns a product and its stored vector.
	Get(ctx context.Context, code string) (*catalog.Product, []float32, error)

	// Upsert inserts or replaces products keyed by product code.
	Upsert(ctx context.Context, entries []Entry) error

	// Count returns the number of indexed products.
	Count(ctx context.Context) (int64, error)

	// Close releases resources. Calls after Close fail with a search error.
	Close() error
}

// MetadataStore is implemented by stores that keep catalog-level key/value
// metadata alongside the products.
type MetadataStore interface {
	GetMeta(ctx context.Context, key string) (value string, ok bool, err error)
	SetMeta(ctx context.Context, key, value string) error
}

// Filter narrows a search. Zero value matches everything.
type Filter struct {
	// Grades is an allow-list of ecoscore grades.
	Grades []string
	// Category, when set, must equal the candidate's primary category.
	Category string
}

// Entry is a product and its embedding.
type Entry struct {
	Product catalog.Product
	Vector  []float32
}

var (
	// ErrNotFound indicates an unknown product code.
	ErrNotFound = errors.New("product not found")
	// ErrClosed indicates use after Close.
	ErrClosed = errors.New("vector store closed")
	// ErrVectorDimensionMismatch indicates a dimension mismatch.
	ErrVectorDimensionMismatch = errors.New("vector dimension mismatch")
)

var ecoscoreGrades = []string{"a", "b", "c", "d", "e"}

// GradesUpTo returns every grade from "a" through minGrade inclusive.
// An unknown grade yields all grades.
func GradesUpTo(minGrade string) []string {
	minGrade = strings.ToLower(strings.TrimSpace(minGrade))
	for i, g := range ecoscoreGrades {
		if g == minGrade {
			out := make([]string, i+1)
			copy(out, ecoscoreGrades[:i+1])
			return out
		}
	}
	out := make([]string, len(ecoscoreGrades))
	copy(out, ecoscoreGrades)
	return out
}

// Matches reports whether p passes the filter.
func (f Filter) Matches(p catalog.Product) bool {
	if len(f.Grades) > 0 {
		ok := false
		for _, g := range f.Grades {
			if strings.EqualFold(g, p.EcoscoreGrade) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if f.Category != "" && catalog.PrimaryCategory(p.Categories) != catalog.PrimaryCategory(f.Category) {
		return false
	}

	return true
}

// Open creates the store selected by configuration.
func Open(ctx context.Context, cfg config.VectorConfig) (Store, error) {
	switch cfg.Adapter {
	case "memory":
		return NewMemoryStore(cfg.Dimension), nil
	case "sqlite":
		return NewSQLiteStore(ctx, SQLiteConfig{Path: cfg.SQLite.Path, Dimension: cfg.Dimension})
	case "pgvector":
		return NewPGVectorStore(ctx, PGVectorConfig{
			DSN:             cfg.PGVector.DSN,
			Table:           cfg.PGVector.Table,
			Dimension:       cfg.Dimension,
			MaxOpenConns:    cfg.PGVector.MaxOpenConns,
			MaxIdleConns:    cfg.PGVector.MaxIdleConns,
			ConnMaxLifetime: cfg.PGVector.ConnMaxLifetime,
		})
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown vector adapter %q", cfg.Adapter), nil)
	}
}

// scoredEntry is used by the brute-force adapters.
type scoredEntry struct {
	seq        int
	product    catalog.Product
	similarity float64
}

// topK sorts by similarity descending (insertion order breaks ties) and keeps k.
func topK(entries []scoredEntry, k int) []catalog.Match {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].similarity != entries[j].similarity {
			return entries[i].similarity > entries[j].similarity
		}
		return entries[i].seq < entries[j].seq
	})

	if k < 0 {
		k = 0
	}
	if k > len(entries) {
		k = len(entries)
	}

	out := make([]catalog.Match, k)
	for i := 0; i < k; i++ {
		out[i] = catalog.Match{Product: entries[i].product.Clone(), Similarity: entries[i].similarity}
	}
	return out
}

// cosineSimilarity returns dot(a, b) for unit vectors, clamped to [0, 1].
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	if dot > 1 {
		dot = 1
	} else if dot < 0 {
		dot = 0
	}
	return dot
}

// normalizeVector returns a unit-length copy of v.
func normalizeVector(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func searchFailed(err error) error {
	return domain.SearchError("vector search failed", err)
}

var (
	_ Store         = (*MemoryStore)(nil)
	_ Store         = (*SQLiteStore)(nil)
	_ Store         = (*PGVectorStore)(nil)
	_ MetadataStore = (*MemoryStore)(nil)
	_ MetadataStore = (*SQLiteStore)(nil)
	_ MetadataStore = (*PGVectorStore)(nil)
)
