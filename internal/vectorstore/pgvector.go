package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

// productRowNamespace derives stable row IDs from product codes.
var productRowNamespace = uuid.MustParse("6f1c2a0e-6a53-4c1b-9a55-3c0c1b6f9e21")

// PGVectorConfig holds PostgreSQL + pgvector settings.
type PGVectorConfig struct {
	DSN             string
	Table           string
	Dimension       int
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PGVectorStore searches the catalog with pgvector's cosine distance operator.
type PGVectorStore struct {
	db        *sql.DB
	table     string
	metaTable string
	dimension int
	closed    atomic.Bool
}

// NewPGVectorStore connects, enables the vector extension and creates the table.
func NewPGVectorStore(ctx context.Context, cfg PGVectorConfig) (*PGVectorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("pgvector requires a positive dimension")
	}
	if cfg.Table == "" {
		cfg.Table = "products"
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PGVectorStore{
		db:        db,
		table:     pq.QuoteIdentifier(cfg.Table),
		metaTable: pq.QuoteIdentifier(cfg.Table + "_meta"),
		dimension: cfg.Dimension,
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGVectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id               UUID PRIMARY KEY,
			seq              BIGSERIAL,
			product_code     TEXT NOT NULL UNIQUE,
			ecoscore_grade   TEXT NOT NULL DEFAULT '',
			categories       TEXT NOT NULL DEFAULT '',
			payload          JSONB NOT NULL,
			embedding        vector(%d) NOT NULL
		)`, s.table, s.dimension),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, s.metaTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate pgvector: %w", err)
		}
	}
	return nil
}

// Search orders rows by cosine distance and converts it to similarity.
func (s *PGVectorStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]catalog.Match, error) {
	if s.closed.Load() {
		return nil, searchFailed(ErrClosed)
	}
	if len(query) != s.dimension {
		return nil, searchFailed(fmt.Errorf("%w: expected %d, got %d", ErrVectorDimensionMismatch, s.dimension, len(query)))
	}
	if k <= 0 {
		return []catalog.Match{}, nil
	}

	args := []interface{}{formatVector(normalizeVector(query))}
	var clauses []string
	if len(filter.Grades) > 0 {
		grades := make([]string, len(filter.Grades))
		for i, g := range filter.Grades {
			grades[i] = strings.ToLower(g)
		}
		args = append(args, pq.Array(grades))
		clauses = append(clauses, fmt.Sprintf("lower(ecoscore_grade) = ANY($%d)", len(args)))
	}
	if filter.Category != "" {
		args = append(args, catalog.PrimaryCategory(filter.Category))
		clauses = append(clauses, fmt.Sprintf("lower(trim(split_part(categories, ',', 1))) = $%d", len(args)))
	}
	args = append(args, k)

	q := fmt.Sprintf(`SELECT payload, 1 - (embedding <=> $1::vector) AS similarity FROM %s`, s.table)
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY embedding <=> $1::vector, seq LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, searchFailed(err)
	}
	defer rows.Close()

	out := make([]catalog.Match, 0, k)
	for rows.Next() {
		var (
			payload    []byte
			similarity sql.NullFloat64
		)
		if err := rows.Scan(&payload, &similarity); err != nil {
			return nil, searchFailed(err)
		}
		p, err := catalog.DecodePayload(payload)
		if err != nil {
			return nil, searchFailed(err)
		}
		out = append(out, catalog.Match{Product: p, Similarity: clampSimilarity(similarity.Float64)})
	}
	if err := rows.Err(); err != nil {
		return nil, searchFailed(err)
	}
	return out, nil
}

// Get returns a product and its stored vector.
func (s *PGVectorStore) Get(ctx context.Context, code string) (*catalog.Product, []float32, error) {
	if s.closed.Load() {
		return nil, nil, searchFailed(ErrClosed)
	}

	var payload []byte
	var raw string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT payload, embedding::text FROM %s WHERE product_code = $1`, s.table), code,
	).Scan(&payload, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, searchFailed(err)
	}

	p, err := catalog.DecodePayload(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", code, err)
	}
	vec, err := parseVector(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("parse vector for %s: %w", code, err)
	}
	return &p, vec, nil
}

// Upsert inserts or replaces products in one transaction.
func (s *PGVectorStore) Upsert(ctx context.Context, entries []Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, product_code, ecoscore_grade, categories, payload, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)
		ON CONFLICT (product_code) DO UPDATE SET
			ecoscore_grade = EXCLUDED.ecoscore_grade,
			categories = EXCLUDED.categories,
			payload = EXCLUDED.payload,
			embedding = EXCLUDED.embedding`, s.table))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Product.Code == "" {
			return fmt.Errorf("upsert: product code is required")
		}
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d for %s", ErrVectorDimensionMismatch, s.dimension, len(e.Vector), e.Product.Code)
		}

		payload, err := catalog.EncodePayload(e.Product)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Product.Code, err)
		}

		if _, err := stmt.ExecContext(ctx,
			uuid.NewSHA1(productRowNamespace, []byte(e.Product.Code)),
			e.Product.Code,
			strings.ToLower(e.Product.EcoscoreGrade),
			e.Product.Categories,
			string(payload),
			formatVector(normalizeVector(e.Vector)),
		); err != nil {
			return fmt.Errorf("upsert %s: %w", e.Product.Code, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored products.
func (s *PGVectorStore) Count(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, searchFailed(ErrClosed)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, searchFailed(err)
	}
	return n, nil
}

// GetMeta returns a catalog metadata value.
func (s *PGVectorStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	var v string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.metaTable), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read catalog meta: %w", err)
	}
	return v, true, nil
}

// SetMeta stores a catalog metadata value.
func (s *PGVectorStore) SetMeta(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, s.metaTable),
		key, value)
	if err != nil {
		return fmt.Errorf("write catalog meta: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PGVectorStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// formatVector renders v in pgvector's text form: [x,y,z].
func formatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector is the inverse of formatVector.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return []float32{}, nil
	}

	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

func clampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
