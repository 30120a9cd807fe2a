package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently at startup. The history table is append-only
// by convention: nothing in the codebase issues UPDATE or DELETE against it,
// and seq provides a total insertion order for same-timestamp ties.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS citizens (
		id         UUID PRIMARY KEY,
		full_name  TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		push_token TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS complaints (
		id               UUID PRIMARY KEY,
		citizen_id       UUID NOT NULL,
		category         TEXT NOT NULL DEFAULT '',
		authority        TEXT NOT NULL,
		assignee         UUID,
		lock_kind        TEXT,
		lock_holder      UUID,
		lock_acquired_at TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_citizen ON complaints (citizen_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_authority ON complaints (authority, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_lock_holder ON complaints (lock_holder) WHERE lock_holder IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS complaint_history (
		id           UUID PRIMARY KEY,
		complaint_id UUID NOT NULL REFERENCES complaints (id),
		actor_kind   TEXT,
		actor_id     UUID,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		location     TEXT NOT NULL DEFAULT '',
		attachments  TEXT[] NOT NULL DEFAULT '{}',
		citizen_note TEXT,
		staff_note   TEXT,
		created_at   TIMESTAMPTZ NOT NULL,
		seq          BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_complaint ON complaint_history (complaint_id, created_at DESC, seq DESC)`,
}

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
