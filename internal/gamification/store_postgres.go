package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/owlet-learn/owlet/internal/profile"
)

const dbTimeout = 5 * time.Second

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed gamification store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) PutBadges(ctx context.Context, badges ...Badge) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range badges {
		_, err := tx.Exec(ctx,
			`INSERT INTO badges (id, name, description, icon_name, requirement_type, requirement_value)
			 VALUES ($1::uuid, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   description = EXCLUDED.description,
			   icon_name = EXCLUDED.icon_name,
			   requirement_type = EXCLUDED.requirement_type,
			   requirement_value = EXCLUDED.requirement_value`,
			b.ID, b.Name, b.Description, b.IconName, string(b.RequirementType), b.RequirementValue,
		)
		if err != nil {
			return fmt.Errorf("put badge %q: %w", b.Name, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListBadges(ctx context.Context) ([]Badge, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, description, icon_name, requirement_type, requirement_value
		 FROM badges ORDER BY requirement_value, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var badges []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Description, &b.IconName,
			&b.RequirementType, &b.RequirementValue,
		); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badges: %w", err)
	}
	return badges, nil
}

func (s *PostgresStore) ListAwards(ctx context.Context, profileID string) ([]Award, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT profile_id::text, badge_id::text, awarded_at
		 FROM badge_awards WHERE profile_id = $1::uuid
		 ORDER BY awarded_at ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}
	defer rows.Close()

	var awards []Award
	for rows.Next() {
		var a Award
		if err := rows.Scan(&a.ProfileID, &a.BadgeID, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan award: %w", err)
		}
		awards = append(awards, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate awards: %w", err)
	}
	return awards, nil
}

func (s *PostgresStore) GrantAward(ctx context.Context, award Award) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO badge_awards (profile_id, badge_id, awarded_at)
		 VALUES ($1::uuid, $2::uuid, $3)
		 ON CONFLICT (profile_id, badge_id) DO NOTHING`,
		award.ProfileID, award.BadgeID, award.AwardedAt,
	)
	if err != nil {
		return fmt.Errorf("grant award: %w", err)
	}
	return nil
}

func (s *PostgresStore) PutItems(ctx context.Context, items ...Item) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, item := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO shop_items (id, name, description, category, icon_name, price)
			 VALUES ($1::uuid, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   description = EXCLUDED.description,
			   category = EXCLUDED.category,
			   icon_name = EXCLUDED.icon_name,
			   price = EXCLUDED.price`,
			item.ID, item.Name, item.Description, item.Category, item.IconName, item.Price,
		)
		if err != nil {
			return fmt.Errorf("put item %q: %w", item.Name, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListItems(ctx context.Context) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, description, category, icon_name, price
		 FROM shop_items ORDER BY price, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Description,
			&item.Category, &item.IconName, &item.Price,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var item Item
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, name, description, category, icon_name, price
		 FROM shop_items WHERE id = $1::uuid`,
		id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.IconName, &item.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) ListOwnership(ctx context.Context, profileID string) ([]Ownership, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT profile_id::text, item_id::text, purchased_at
		 FROM shop_ownership WHERE profile_id = $1::uuid
		 ORDER BY purchased_at ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ownership: %w", err)
	}
	defer rows.Close()

	var out []Ownership
	for rows.Next() {
		var o Ownership
		if err := rows.Scan(&o.ProfileID, &o.ItemID, &o.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scan ownership: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ownership: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Owns(ctx context.Context, profileID, itemID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var owns bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM shop_ownership
		   WHERE profile_id = $1::uuid AND item_id = $2::uuid
		 )`,
		profileID, itemID,
	).Scan(&owns)
	if err != nil {
		return false, fmt.Errorf("check ownership: %w", err)
	}
	return owns, nil
}

// Purchase runs the ownership insert and the coin debit in one transaction.
// The unique index on (profile_id, item_id) catches races the Ledger's
// precheck cannot see.
func (s *PostgresStore) Purchase(ctx context.Context, profileID string, item Item) (*profile.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO shop_ownership (profile_id, item_id, purchased_at)
		 VALUES ($1::uuid, $2::uuid, $3)`,
		profileID, item.ID, time.Now().UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyOwned, item.ID)
		}
		return nil, fmt.Errorf("record ownership: %w", err)
	}

	var p profile.Profile
	err = tx.QueryRow(ctx,
		`UPDATE profiles SET coins = coins - $2
		 WHERE id = $1::uuid AND coins >= $2
		 RETURNING id::text, account_id::text, display_name, grade, avatar_name, xp, coins, created_at`,
		profileID, item.Price,
	).Scan(
		&p.ID, &p.AccountID, &p.DisplayName, &p.Grade,
		&p.AvatarName, &p.XP, &p.Coins, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: price %d", profile.ErrInsufficientFunds, item.Price)
		}
		return nil, fmt.Errorf("debit coins: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &p, nil
}
