package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Postgres driver.
	_ "github.com/lib/pq"
)

// DB wraps the sql connection pool.
type DB struct {
	*sql.DB
}

// New opens a Postgres connection pool and verifies connectivity.
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Migrate creates the schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT,
			timezone TEXT,
			preferred_language TEXT,
			approved BOOLEAN NOT NULL DEFAULT FALSE,
			settings JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			raw_content TEXT NOT NULL,
			input_type TEXT NOT NULL,
			word_count INTEGER NOT NULL DEFAULT 0,
			sentiment TEXT,
			topics JSONB,
			categories JSONB,
			model_version TEXT,
			analyzed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			modified_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_user_created
			ON journal_entries (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS insights (
			id UUID PRIMARY KEY,
			entry_id UUID NOT NULL REFERENCES journal_entries(id),
			sentiment_score DOUBLE PRECISION,
			sentiment_label TEXT,
			detected_emotions JSONB,
			key_topics JSONB,
			summary TEXT,
			reflection_questions JSONB,
			generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS token_usage (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			date TEXT NOT NULL,
			prompt_tokens BIGINT NOT NULL,
			completion_tokens BIGINT NOT NULL,
			total_tokens BIGINT NOT NULL,
			feature TEXT,
			model_name TEXT,
			logged_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_token_usage_user_date
			ON token_usage (user_id, date)`,
		`CREATE TABLE IF NOT EXISTS goals (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			description TEXT,
			target_metric TEXT,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'active',
			priority INTEGER,
			tags JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS prompt_templates (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			category TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
