// Package sqlite provides the source catalog backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite
// implementation that requires no CGO, so the binary cross-compiles
// cleanly. The schema is managed through versioned migrations embedded
// in the migrations/ directory.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/meridian-labs/briefing/internal/adapters/driven/catalog/sqlite/migrations"
	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CatalogStore = (*Store)(nil)

// Store tracks ingested sources in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a catalog store at the given data directory. If
// dataDir is empty, defaults to ~/.briefing/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".briefing", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// UpsertSource inserts or replaces a source record by id.
func (s *Store) UpsertSource(ctx context.Context, rec *domain.SourceRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("source without id: %w", domain.ErrInvalidInput)
	}
	now := time.Now()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	const q = `
		INSERT INTO sources (id, title, url, category, status, chunk_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			category = excluded.category,
			status = excluded.status,
			chunk_count = excluded.chunk_count,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.Title, rec.URL, rec.Category, rec.Status, rec.ChunkCount, createdAt, now)
	if err != nil {
		return fmt.Errorf("upserting source %s: %w", rec.ID, err)
	}
	return nil
}

// GetSource returns one source record by id.
func (s *Store) GetSource(ctx context.Context, id string) (*domain.SourceRecord, error) {
	const q = `
		SELECT id, title, url, category, status, chunk_count, created_at, updated_at
		FROM sources WHERE id = ?
	`
	var rec domain.SourceRecord
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.Title, &rec.URL, &rec.Category, &rec.Status,
		&rec.ChunkCount, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting source %s: %w", id, err)
	}
	return &rec, nil
}

// ListSources returns all source records, most recently updated first.
func (s *Store) ListSources(ctx context.Context) ([]domain.SourceRecord, error) {
	const q = `
		SELECT id, title, url, category, status, chunk_count, created_at, updated_at
		FROM sources ORDER BY updated_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceRecord
	for rows.Next() {
		var rec domain.SourceRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.URL, &rec.Category, &rec.Status,
			&rec.ChunkCount, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SetStatus updates one source's status and chunk count.
func (s *Store) SetStatus(ctx context.Context, id, status string, chunkCount int) error {
	const q = `UPDATE sources SET status = ?, chunk_count = ?, updated_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, status, chunkCount, time.Now(), id)
	if err != nil {
		return fmt.Errorf("updating source %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CountSources returns how many sources the catalog tracks.
func (s *Store) CountSources(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM sources").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting sources: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
