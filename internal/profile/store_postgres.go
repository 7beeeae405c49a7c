package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed profile store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const profileColumns = `id::text, account_id::text, display_name, grade, avatar_name, xp, coins, created_at`

func scanProfile(row pgx.Row, key string) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.AccountID, &p.DisplayName, &p.Grade,
		&p.AvatarName, &p.XP, &p.Coins, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p Profile) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, account_id, display_name, grade, avatar_name, xp, coins, created_at)
		 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.AccountID, p.DisplayName, p.Grade, p.AvatarName, p.XP, p.Coins, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1::uuid`,
		id,
	), id)
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string) ([]Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE account_id = $1::uuid
		 ORDER BY created_at ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(
			&p.ID, &p.AccountID, &p.DisplayName, &p.Grade,
			&p.AvatarName, &p.XP, &p.Coins, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) Update(ctx context.Context, p Profile) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET display_name = $2, grade = $3, avatar_name = $4
		 WHERE id = $1::uuid`,
		p.ID, p.DisplayName, p.Grade, p.AvatarName,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	return nil
}

func (s *PostgresStore) AddEarnings(ctx context.Context, id string, e Earnings) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanProfile(s.pool.QueryRow(ctx,
		`UPDATE profiles SET xp = xp + $2, coins = coins + $3
		 WHERE id = $1::uuid
		 RETURNING `+profileColumns,
		id, e.XP, e.Coins,
	), id)
}

func (s *PostgresStore) SpendCoins(ctx context.Context, id string, amount int) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// The guard rides in the UPDATE itself so two concurrent spends can
	// never overdraw the balance.
	p, err := scanProfile(s.pool.QueryRow(ctx,
		`UPDATE profiles SET coins = coins - $2
		 WHERE id = $1::uuid AND coins >= $2
		 RETURNING `+profileColumns,
		id, amount,
	), id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// No row matched: either the profile is missing or the balance is short.
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: need %d", ErrInsufficientFunds, amount)
}
