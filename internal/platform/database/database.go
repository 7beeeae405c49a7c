// Package database provides PostgreSQL connection management via pgx and
// the schema the stores depend on.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// ParseURL validates a PostgreSQL connection URL.
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	return cfg, nil
}

// New creates a new database connection pool.
func New(ctx context.Context, url string, maxConns, minConns int) (*DB, error) {
	cfg, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = int32(minConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// schema is applied on startup. Statements are idempotent so replicas can
// race on boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            uuid PRIMARY KEY,
		email         text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		privileged    boolean NOT NULL DEFAULT false,
		created_at    timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id           uuid PRIMARY KEY,
		account_id   uuid NOT NULL REFERENCES accounts(id),
		display_name text NOT NULL,
		grade        int NOT NULL,
		avatar_name  text NOT NULL DEFAULT '',
		xp           int NOT NULL DEFAULT 0,
		coins        int NOT NULL DEFAULT 0,
		created_at   timestamptz NOT NULL,
		CHECK (coins >= 0),
		CHECK (xp >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		id          uuid PRIMARY KEY,
		name        text NOT NULL,
		grade_level int NOT NULL,
		description text NOT NULL DEFAULT '',
		icon_name   text NOT NULL DEFAULT '',
		created_at  timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chapters (
		id          uuid PRIMARY KEY,
		subject_id  uuid NOT NULL REFERENCES subjects(id),
		title       text NOT NULL,
		description text NOT NULL DEFAULT '',
		order_index int NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS content_blocks (
		id         uuid PRIMARY KEY,
		chapter_id uuid NOT NULL REFERENCES chapters(id),
		block_kind text NOT NULL,
		payload    jsonb NOT NULL,
		provider   text NOT NULL DEFAULT '',
		created_at timestamptz NOT NULL,
		UNIQUE (chapter_id, block_kind)
	)`,
	`CREATE TABLE IF NOT EXISTS progress_records (
		id              uuid PRIMARY KEY,
		profile_id      uuid NOT NULL REFERENCES profiles(id),
		chapter_id      uuid NOT NULL REFERENCES chapters(id),
		status          text NOT NULL,
		score           int NOT NULL DEFAULT 0,
		total_questions int NOT NULL DEFAULT 0,
		xp_earned       int NOT NULL DEFAULT 0,
		started_at      timestamptz NOT NULL,
		completed_at    timestamptz,
		UNIQUE (profile_id, chapter_id)
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id                uuid PRIMARY KEY,
		name              text NOT NULL,
		description       text NOT NULL DEFAULT '',
		icon_name         text NOT NULL DEFAULT '',
		requirement_type  text NOT NULL,
		requirement_value int NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS badge_awards (
		profile_id uuid NOT NULL REFERENCES profiles(id),
		badge_id   uuid NOT NULL REFERENCES badges(id),
		awarded_at timestamptz NOT NULL,
		PRIMARY KEY (profile_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS shop_items (
		id          uuid PRIMARY KEY,
		name        text NOT NULL,
		description text NOT NULL DEFAULT '',
		category    text NOT NULL DEFAULT '',
		icon_name   text NOT NULL DEFAULT '',
		price       int NOT NULL CHECK (price >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS shop_ownership (
		profile_id   uuid NOT NULL REFERENCES profiles(id),
		item_id      uuid NOT NULL REFERENCES shop_items(id),
		purchased_at timestamptz NOT NULL,
		PRIMARY KEY (profile_id, item_id)
	)`,
}

// Migrate applies the schema.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
