package repository

import (
	"context"
	"fmt"
	"strings"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id           TEXT PRIMARY KEY,
		source_path  TEXT NOT NULL,
		content_hash TEXT NOT NULL UNIQUE,
		filename     TEXT NOT NULL,
		file_ext     TEXT NOT NULL,
		file_size    BIGINT NOT NULL,
		uploaded_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		document_id   TEXT REFERENCES documents(id),
		source        TEXT NOT NULL,
		format        TEXT NOT NULL,
		status        TEXT NOT NULL,
		strategy      TEXT NOT NULL DEFAULT '',
		text_chars    INTEGER NOT NULL DEFAULT 0,
		chunk_count   INTEGER NOT NULL DEFAULT 0,
		case_number   TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		started_at    {{ts}} NOT NULL,
		finished_at   {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS deadlines (
		id                TEXT PRIMARY KEY,
		run_id            TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		title             TEXT NOT NULL,
		snippet           TEXT NOT NULL,
		due               TEXT NOT NULL,
		event_type        TEXT NOT NULL,
		description       TEXT NOT NULL,
		calendar_event_id TEXT NOT NULL DEFAULT '',
		calendar_link     TEXT NOT NULL DEFAULT '',
		created_at        {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_document_id ON runs(document_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deadlines_run_id ON deadlines(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deadlines_due ON deadlines(due)`,
}

// Migrate creates the tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	ts := "TIMESTAMP"
	if db.Dialect == Postgres {
		ts = "TIMESTAMPTZ"
	}
	for i, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{ts}}", ts)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	db.logger.Debug("database migrated", "steps", len(schema))
	return nil
}
