// Package pgvector provides a vector index adapter backed by
// PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultTable       = "briefing_vectors"
	DefaultConnTimeout = 30 * time.Second
)

// Config holds configuration for the pgvector index.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string (required).
	DatabaseURL string

	// Table is the vectors table name (default: briefing_vectors).
	Table string

	// Dimensions fixes the embedding size the table is created with
	// (required).
	Dimensions int
}

// Index stores vector records in a pgvector-enabled PostgreSQL table.
// Upserts replace by id, queries rank by cosine distance, and the
// metadata payload rides along as jsonb.
type Index struct {
	pool       *pgxpool.Pool
	table      string
	dimensions int
}

// NewIndex connects to PostgreSQL and makes sure the extension and
// table exist.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("pgvector: database URL is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("pgvector: dimensions must be positive")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultConnTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector: ping: %w", err)
	}

	idx := &Index{pool: pool, table: cfg.Table, dimensions: cfg.Dimensions}
	if err := idx.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        text PRIMARY KEY,
			source_id text NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata  jsonb NOT NULL DEFAULT '{}'::jsonb
		)`, idx.table, idx.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_source_id_idx ON %s (source_id)`,
			idx.table, idx.table),
	}
	for _, stmt := range stmts {
		if _, err := idx.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector: schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts or replaces records in one batch.
func (idx *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, source_id, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET source_id = EXCLUDED.source_id,
		    embedding = EXCLUDED.embedding,
		    metadata  = EXCLUDED.metadata`, idx.table)

	for _, rec := range records {
		if len(rec.Embedding) != idx.dimensions {
			return fmt.Errorf("record %s has %d dims, index expects %d: %w",
				rec.ID, len(rec.Embedding), idx.dimensions, domain.ErrDimensionMismatch)
		}
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("pgvector: encode metadata for %s: %w", rec.ID, err)
		}
		sourceID, _ := rec.Metadata[domain.MetaSourceID].(string)
		batch.Queue(query, rec.ID, sourceID, pgv.NewVector(rec.Embedding), meta)
	}

	results := idx.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("pgvector: upsert: %v: %w", err, domain.ErrIndexUnavailable)
		}
	}
	return nil
}

// Query returns the topK nearest records by cosine distance, best
// first, with the distance converted to a [0,1] similarity score.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int, filter domain.Filter) (domain.RetrievalResult, error) {
	if topK <= 0 {
		return domain.RetrievalResult{}, nil
	}
	if len(vector) != idx.dimensions {
		return domain.RetrievalResult{}, fmt.Errorf("query vector has %d dims, index expects %d: %w",
			len(vector), idx.dimensions, domain.ErrDimensionMismatch)
	}

	where, args := filterClause(filter, 3)
	query := fmt.Sprintf(`
		SELECT id, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $2`, idx.table, where)

	queryArgs := append([]any{pgv.NewVector(vector), topK}, args...)
	rows, err := idx.pool.Query(ctx, query, queryArgs...)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("pgvector: query: %v: %w", err, domain.ErrIndexUnavailable)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			id    string
			meta  map[string]any
			score float64
		)
		if err := rows.Scan(&id, &meta, &score); err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("pgvector: scan: %w", err)
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		matches = append(matches, domain.Match{VectorID: id, Score: score, Metadata: meta})
	}
	if err := rows.Err(); err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("pgvector: rows: %v: %w", err, domain.ErrIndexUnavailable)
	}
	return domain.RetrievalResult{Matches: matches}, nil
}

// filterClause renders a metadata filter as a WHERE clause. Each key
// must match one of its allowed values; keys are ANDed together.
// Placeholders start at firstArg since $1 and $2 are taken by the
// vector and the limit.
func filterClause(filter domain.Filter, firstArg int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	var (
		clauses []string
		args    []any
	)
	n := firstArg
	for key, values := range filter {
		clauses = append(clauses, fmt.Sprintf("metadata->>$%d = ANY($%d)", n, n+1))
		args = append(args, key, values)
		n += 2
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// DeleteSource removes every record belonging to the source.
func (idx *Index) DeleteSource(ctx context.Context, sourceID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE source_id = $1`, idx.table)
	if _, err := idx.pool.Exec(ctx, query, sourceID); err != nil {
		return fmt.Errorf("pgvector: delete source %s: %v: %w", sourceID, err, domain.ErrIndexUnavailable)
	}
	return nil
}

// Stats reports the record count.
func (idx *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, idx.table)
	var count int
	if err := idx.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return domain.IndexStats{}, fmt.Errorf("pgvector: stats: %v: %w", err, domain.ErrIndexUnavailable)
	}
	return domain.IndexStats{TotalVectorCount: count}, nil
}

// Close releases the connection pool.
func (idx *Index) Close() error {
	idx.pool.Close()
	return nil
}
