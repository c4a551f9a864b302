package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS passport_events (
		id               TEXT PRIMARY KEY,
		access_code      TEXT NOT NULL UNIQUE,
		title            TEXT NOT NULL,
		country_code     TEXT NOT NULL,
		location         TEXT NOT NULL DEFAULT '',
		carnival_circuit TEXT NOT NULL DEFAULT '',
		organizer_name   TEXT NOT NULL DEFAULT '',
		event_type       TEXT NOT NULL,
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		is_flagship      BOOLEAN NOT NULL DEFAULT FALSE,
		start_time       TIMESTAMPTZ NOT NULL,
		max_capacity     INTEGER,
		total_checkins   INTEGER NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS passport_users (
		user_id             TEXT PRIMARY KEY,
		display_name        TEXT NOT NULL DEFAULT '',
		profile_picture_url TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS passport_profiles (
		user_id               TEXT PRIMARY KEY,
		total_credits         INTEGER NOT NULL DEFAULT 0,
		total_events          INTEGER NOT NULL DEFAULT 0,
		countries_visited     TEXT[] NOT NULL DEFAULT '{}',
		current_tier          TEXT NOT NULL DEFAULT 'BRONZE',
		unlocked_achievements TEXT[] NOT NULL DEFAULT '{}',
		achievement_points    INTEGER NOT NULL DEFAULT 0,
		event_type_stats      JSONB NOT NULL DEFAULT '{}',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_passport_profiles_ranking
		ON passport_profiles (total_credits DESC, total_events DESC, user_id ASC)`,
	`CREATE TABLE IF NOT EXISTS passport_stamps (
		id             TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		event_id       TEXT NOT NULL REFERENCES passport_events(id),
		event_title    TEXT NOT NULL,
		country_code   TEXT NOT NULL,
		location       TEXT NOT NULL DEFAULT '',
		event_type     TEXT NOT NULL,
		rarity         TEXT NOT NULL,
		edition_number INTEGER NOT NULL,
		credits_earned INTEGER NOT NULL,
		stamped_at     TIMESTAMPTZ NOT NULL,
		is_favorite    BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT passport_stamps_user_event_key UNIQUE (user_id, event_id),
		CONSTRAINT passport_stamps_event_edition_key UNIQUE (event_id, edition_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_passport_stamps_user_stamped
		ON passport_stamps (user_id, stamped_at DESC)`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
		token      TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		platform   TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_device_tokens_user ON device_tokens (user_id)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	zap.L().Info("database migrated", zap.Int("statements", len(schema)))
	return nil
}
