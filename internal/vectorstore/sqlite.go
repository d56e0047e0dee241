package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

// SQLiteConfig holds SQLite store settings.
type SQLiteConfig struct {
	Path      string
	Dimension int
}

// SQLiteStore keeps the catalog in a single SQLite file. Filtering happens in
// SQL; similarity is computed in Go over the filtered rows.
type SQLiteStore struct {
	db        *sql.DB
	dimension int
	closed    atomic.Bool
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	code             TEXT NOT NULL UNIQUE,
	ecoscore_grade   TEXT NOT NULL DEFAULT '',
	primary_category TEXT NOT NULL DEFAULT '',
	payload          TEXT NOT NULL,
	embedding        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_grade ON products (ecoscore_grade);
CREATE TABLE IF NOT EXISTS catalog_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLiteStore opens (and migrates) a SQLite catalog.
func NewSQLiteStore(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := cfg.Path
	if dsn != ":memory:" {
		dsn = "file:" + cfg.Path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps :memory: databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db, dimension: cfg.Dimension}, nil
}

// Search scans rows passing the filter and returns the k most similar.
func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]catalog.Match, error) {
	if s.closed.Load() {
		return nil, searchFailed(ErrClosed)
	}
	if s.dimension > 0 && len(query) != s.dimension {
		return nil, searchFailed(fmt.Errorf("%w: expected %d, got %d", ErrVectorDimensionMismatch, s.dimension, len(query)))
	}

	var (
		clauses []string
		args    []interface{}
	)
	if len(filter.Grades) > 0 {
		placeholders := make([]string, len(filter.Grades))
		for i, g := range filter.Grades {
			placeholders[i] = "?"
			args = append(args, strings.ToLower(g))
		}
		clauses = append(clauses, "ecoscore_grade IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.Category != "" {
		clauses = append(clauses, "primary_category = ?")
		args = append(args, catalog.PrimaryCategory(filter.Category))
	}

	query0 := "SELECT seq, payload, embedding FROM products"
	if len(clauses) > 0 {
		query0 += " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query0, args...)
	if err != nil {
		return nil, searchFailed(err)
	}
	defer rows.Close()

	q := normalizeVector(query)
	var candidates []scoredEntry
	for rows.Next() {
		var (
			seq     int
			payload string
			blob    []byte
		)
		if err := rows.Scan(&seq, &payload, &blob); err != nil {
			return nil, searchFailed(err)
		}

		p, err := catalog.DecodePayload([]byte(payload))
		if err != nil {
			return nil, searchFailed(err)
		}

		candidates = append(candidates, scoredEntry{
			seq:        seq,
			product:    p,
			similarity: cosineSimilarity(q, decodeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, searchFailed(err)
	}

	return topK(candidates, k), nil
}

// Get returns a product and its stored vector.
func (s *SQLiteStore) Get(ctx context.Context, code string) (*catalog.Product, []float32, error) {
	if s.closed.Load() {
		return nil, nil, searchFailed(ErrClosed)
	}

	var (
		payload string
		blob    []byte
	)
	err := s.db.QueryRowContext(ctx, "SELECT payload, embedding FROM products WHERE code = ?", code).Scan(&payload, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, searchFailed(err)
	}

	p, err := catalog.DecodePayload([]byte(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", code, err)
	}
	return &p, decodeVector(blob), nil
}

// Upsert inserts or replaces products in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, entries []Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (code, ecoscore_grade, primary_category, payload, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			ecoscore_grade = excluded.ecoscore_grade,
			primary_category = excluded.primary_category,
			payload = excluded.payload,
			embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Product.Code == "" {
			return fmt.Errorf("upsert: product code is required")
		}
		if s.dimension > 0 && len(e.Vector) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d for %s", ErrVectorDimensionMismatch, s.dimension, len(e.Vector), e.Product.Code)
		}

		payload, err := catalog.EncodePayload(e.Product)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Product.Code, err)
		}

		if _, err := stmt.ExecContext(ctx,
			e.Product.Code,
			strings.ToLower(e.Product.EcoscoreGrade),
			catalog.PrimaryCategory(e.Product.Categories),
			string(payload),
			encodeVector(normalizeVector(e.Vector)),
		); err != nil {
			return fmt.Errorf("upsert %s: %w", e.Product.Code, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored products.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, searchFailed(ErrClosed)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, searchFailed(err)
	}
	return n, nil
}

// GetMeta returns a catalog metadata value.
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM catalog_meta WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read catalog meta: %w", err)
	}
	return v, true, nil
}

// SetMeta stores a catalog metadata value.
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO catalog_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("write catalog meta: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
