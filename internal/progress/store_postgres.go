package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/owlet-learn/owlet/internal/profile"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const recordColumns = `id::text, profile_id::text, chapter_id::text, status, score, total_questions, xp_earned, started_at, completed_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.ProfileID, &rec.ChapterID, &rec.Status,
		&rec.Score, &rec.TotalQuestions, &rec.XPEarned, &rec.StartedAt, &rec.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("scan progress record: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, profileID, chapterID string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM progress_records
		 WHERE profile_id = $1::uuid AND chapter_id = $2::uuid`,
		profileID, chapterID,
	))
}

func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO progress_records (id, profile_id, chapter_id, status, score, total_questions, xp_earned, started_at, completed_at)
		 VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (profile_id, chapter_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   score = EXCLUDED.score,
		   total_questions = EXCLUDED.total_questions,
		   xp_earned = EXCLUDED.xp_earned,
		   completed_at = EXCLUDED.completed_at`,
		rec.ID, rec.ProfileID, rec.ChapterID, string(rec.Status),
		rec.Score, rec.TotalQuestions, rec.XPEarned, rec.StartedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert progress record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProfile(ctx context.Context, profileID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM progress_records
		 WHERE profile_id = $1::uuid
		 ORDER BY started_at ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.ProfileID, &rec.ChapterID, &rec.Status,
			&rec.Score, &rec.TotalQuestions, &rec.XPEarned, &rec.StartedAt, &rec.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan progress record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) CountCompleted(ctx context.Context, profileID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM progress_records
		 WHERE profile_id = $1::uuid AND status = $2`,
		profileID, string(StatusCompleted),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return count, nil
}

// ApplyQuizResult runs the record upsert and the profile credit in one
// transaction. The latest submission wins: score, total and xp are
// overwritten and the completion time restamped on every call.
func (s *PostgresStore) ApplyQuizResult(ctx context.Context, profileID, chapterID string, result Result) (*Record, *profile.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	rec, err := scanRecord(tx.QueryRow(ctx,
		`INSERT INTO progress_records (id, profile_id, chapter_id, status, score, total_questions, xp_earned, started_at, completed_at)
		 VALUES (gen_random_uuid(), $1::uuid, $2::uuid, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (profile_id, chapter_id) DO UPDATE SET
		   status = $3,
		   score = $4,
		   total_questions = $5,
		   xp_earned = $6,
		   completed_at = $7
		 RETURNING `+recordColumns,
		profileID, chapterID, string(StatusCompleted),
		result.Correct, result.Total, result.XPEarned, now,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("apply quiz record: %w", err)
	}

	var p profile.Profile
	err = tx.QueryRow(ctx,
		`UPDATE profiles SET xp = xp + $2, coins = coins + $3
		 WHERE id = $1::uuid
		 RETURNING id::text, account_id::text, display_name, grade, avatar_name, xp, coins, created_at`,
		profileID, result.XPEarned, result.CoinsEarned,
	).Scan(
		&p.ID, &p.AccountID, &p.DisplayName, &p.Grade,
		&p.AvatarName, &p.XP, &p.Coins, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", profile.ErrNotFound, profileID)
		}
		return nil, nil, fmt.Errorf("credit earnings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return rec, &p, nil
}
