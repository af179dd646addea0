// Package frontend owns the authoritative relational row for a job (§3): the
// front-end creates it, the KV store (package job) tracks it advisorily while
// a worker holds the broker lease, and this package is the only writer of the
// terminal status once a pipeline run finishes.
package frontend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config holds the connection parameters for the relational store.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Connect opens and pings a Postgres connection per cfg.
func Connect(cfg Config) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("frontend: database URL is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("frontend: open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("frontend: ping database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// schemaDDL creates the jobs table if absent. Called once at startup; it is
// intentionally not a migration framework — the row shape in §3 is small and
// stable enough that idempotent DDL is sufficient here.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id             TEXT PRIMARY KEY,
	source_url         TEXT NOT NULL,
	kind               TEXT NOT NULL,
	status             TEXT NOT NULL,
	current_step       TEXT NOT NULL DEFAULT '',
	progress_stage     TEXT NOT NULL DEFAULT '',
	progress_percent   INTEGER NOT NULL DEFAULT 0,
	progress_message   TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	parent_job_id      TEXT,
	output_path        TEXT,
	title              TEXT,
	thumbnail_path     TEXT,
	max_highlights     INTEGER NOT NULL DEFAULT 5,
	include_subtitles  BOOLEAN NOT NULL DEFAULT false
)`

// EnsureSchema runs the idempotent DDL. Safe to call on every process start
// (mirrors the broker topology manager's §4.1 "repeated calls are a no-op"
// contract, applied to the relational side of the store).
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	if err != nil {
		return fmt.Errorf("frontend: ensure schema: %w", err)
	}
	return nil
}
