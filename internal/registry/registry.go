// Package registry persists the little state that must survive restarts:
// the configured backend base URL and the history of blocked navigations.
// Everything else in the engine is deliberately in-memory.
package registry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"phishgate/internal/logging"
	"phishgate/internal/urlutil"
	"phishgate/internal/verdict"
)

//go:embed schema.sql
var schemaFS embed.FS

const backendURLKey = "backend_url"

// Block is one row of the block history.
type Block struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Host       string    `json:"host"`
	Result     string    `json:"result"`
	Source     string    `json:"source"`
	Confidence *float64  `json:"confidence,omitempty"`
	Category   string    `json:"type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Registry wraps the SQLite database holding settings and block history.
type Registry struct {
	db     *sql.DB
	logger logging.Logger
}

// NewRegistry returns a Registry and runs migrations from schema.sql.
// db should typically be the SQLite DB at <storage root>/phishgate.db.
func NewRegistry(db *sql.DB, logger logging.Logger) (*Registry, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("registry")
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Registry{db: db, logger: logger}, nil
}

// BackendURL returns the persisted backend base URL, or "" when none has
// been saved yet (callers fall back to their configured default).
func (r *Registry) BackendURL(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, backendURLKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading backend url: %w", err)
	}
	return value, nil
}

// SetBackendURL persists the backend base URL. The classifier re-reads it
// per request, so the change applies on the next check.
func (r *Registry) SetBackendURL(ctx context.Context, backendURL string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		backendURLKey, backendURL)
	if err != nil {
		return fmt.Errorf("saving backend url: %w", err)
	}
	r.logger.Info("backend url updated", logging.Field{Key: "backend_url", Value: backendURL})
	return nil
}

// RecordBlock appends one blocked navigation to the history.
func (r *Registry) RecordBlock(ctx context.Context, entry *verdict.Entry) error {
	if entry == nil {
		return fmt.Errorf("nil entry")
	}

	var confidence sql.NullFloat64
	if entry.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *entry.Confidence, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocks (id, url, host, result, source, confidence, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		entry.URL,
		urlutil.Host(entry.URL),
		string(entry.Result),
		string(entry.Source),
		confidence,
		entry.Category,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording block: %w", err)
	}
	return nil
}

// ListBlocks returns the most recent blocks, newest first. limit <= 0
// means a default of 100.
func (r *Registry) ListBlocks(ctx context.Context, limit int) ([]Block, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, host, result, source, confidence, category, created_at
		 FROM blocks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var b Block
		var confidence sql.NullFloat64
		if err := rows.Scan(&b.ID, &b.URL, &b.Host, &b.Result, &b.Source,
			&confidence, &b.Category, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning block row: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			b.Confidence = &c
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating block rows: %w", err)
	}
	return blocks, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}
