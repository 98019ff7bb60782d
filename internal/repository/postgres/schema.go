package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates tables and indexes if they don't exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Creations + ` (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			author_id   TEXT NOT NULL,
			author_name TEXT NOT NULL,
			kind        TEXT NOT NULL CHECK (kind IN ('text', 'audio')),
			title       VARCHAR(255) NOT NULL,
			body        TEXT,
			audio_ref   TEXT,
			status      TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'published')),
			like_count  INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
			liked_by    TEXT[] NOT NULL DEFAULT '{}',
			comments    JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK ((kind = 'audio') = (audio_ref IS NOT NULL))
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.UserPreferences + ` (
			user_id     TEXT PRIMARY KEY,
			preferences JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Prefix + `creations_author_created
			ON ` + tables.Creations + ` (author_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tables.Prefix + `creations_published_created
			ON ` + tables.Creations + ` (created_at DESC) WHERE status = 'published'`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// DropTables drops every table owned by this prefix.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Creations, tables.UserPreferences} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearData removes all rows but keeps the schema.
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Creations, tables.UserPreferences} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
