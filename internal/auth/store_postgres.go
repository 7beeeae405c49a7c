package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const uniqueViolation = "23505"

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed account store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account Account) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, password_hash, privileged, created_at)
		 VALUES ($1::uuid, lower($2), $3, $4, $5)`,
		account.ID, account.Email, account.PasswordHash, account.Privileged, account.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrEmailTaken, account.Email)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.scanAccount(s.pool.QueryRow(ctx,
		`SELECT id::text, email, password_hash, privileged, created_at
		 FROM accounts WHERE id = $1::uuid`,
		id,
	), id)
}

func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.scanAccount(s.pool.QueryRow(ctx,
		`SELECT id::text, email, password_hash, privileged, created_at
		 FROM accounts WHERE email = lower($1)`,
		email,
	), email)
}

func (s *PostgresStore) scanAccount(row pgx.Row, key string) (*Account, error) {
	var account Account
	err := row.Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.Privileged, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}
