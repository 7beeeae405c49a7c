package content

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

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
// content_blocks carries a unique index on (chapter_id, block_kind), so a
// lost generation race surfaces here as ErrBlockExists.
const uniqueViolation = "23505"

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed content store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateSubject(ctx context.Context, subject Subject) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO subjects (id, name, grade_level, description, icon_name, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
		subject.ID, subject.Name, subject.GradeLevel, subject.Description, subject.IconName, subject.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSubject(ctx context.Context, id string) (*Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.scanSubject(s.pool.QueryRow(ctx,
		`SELECT id::text, name, grade_level, description, icon_name, created_at
		 FROM subjects WHERE id = $1::uuid`,
		id,
	), id)
}

func (s *PostgresStore) FindSubject(ctx context.Context, name string, grade int) (*Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.scanSubject(s.pool.QueryRow(ctx,
		`SELECT id::text, name, grade_level, description, icon_name, created_at
		 FROM subjects WHERE lower(name) = lower($1) AND grade_level = $2
		 LIMIT 1`,
		name, grade,
	), name)
}

func (s *PostgresStore) scanSubject(row pgx.Row, key string) (*Subject, error) {
	var subject Subject
	err := row.Scan(
		&subject.ID, &subject.Name, &subject.GradeLevel,
		&subject.Description, &subject.IconName, &subject.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, key)
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &subject, nil
}

func (s *PostgresStore) ListSubjects(ctx context.Context, grade, limit, offset int) ([]Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, grade_level, description, icon_name, created_at
		 FROM subjects
		 WHERE ($1 = 0 OR grade_level = $1)
		 ORDER BY grade_level, name
		 LIMIT $2 OFFSET $3`,
		grade, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	subjects := []Subject{}
	for rows.Next() {
		var subject Subject
		if err := rows.Scan(
			&subject.ID, &subject.Name, &subject.GradeLevel,
			&subject.Description, &subject.IconName, &subject.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}

func (s *PostgresStore) CreateChapters(ctx context.Context, chapters ...Chapter) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, chapter := range chapters {
		_, err := tx.Exec(ctx,
			`INSERT INTO chapters (id, subject_id, title, description, order_index)
			 VALUES ($1::uuid, $2::uuid, $3, $4, $5)`,
			chapter.ID, chapter.SubjectID, chapter.Title, chapter.Description, chapter.OrderIndex,
		)
		if err != nil {
			return fmt.Errorf("create chapter %q: %w", chapter.Title, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetChapter(ctx context.Context, id string) (*Chapter, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var chapter Chapter
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, subject_id::text, title, description, order_index
		 FROM chapters WHERE id = $1::uuid`,
		id,
	).Scan(&chapter.ID, &chapter.SubjectID, &chapter.Title, &chapter.Description, &chapter.OrderIndex)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrChapterNotFound, id)
		}
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	return &chapter, nil
}

func (s *PostgresStore) ListChapters(ctx context.Context, subjectID string) ([]Chapter, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, subject_id::text, title, description, order_index
		 FROM chapters
		 WHERE subject_id = $1::uuid
		 ORDER BY order_index ASC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		var chapter Chapter
		if err := rows.Scan(
			&chapter.ID, &chapter.SubjectID, &chapter.Title,
			&chapter.Description, &chapter.OrderIndex,
		); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	return chapters, nil
}

func (s *PostgresStore) GetBlock(ctx context.Context, chapterID string, kind BlockKind) (*ContentBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	block := ContentBlock{ChapterID: chapterID, Kind: kind}
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, payload, provider, created_at
		 FROM content_blocks
		 WHERE chapter_id = $1::uuid AND block_kind = $2`,
		chapterID, string(kind),
	).Scan(&block.ID, &payload, &block.Provider, &block.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chapter %s kind %s", ErrBlockNotFound, chapterID, kind)
		}
		return nil, fmt.Errorf("get block: %w", err)
	}

	if err := block.UnmarshalPayload(payload); err != nil {
		return nil, fmt.Errorf("decode block payload: %w", err)
	}
	return &block, nil
}

func (s *PostgresStore) InsertBlocks(ctx context.Context, blocks ...*ContentBlock) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, block := range blocks {
		payload, err := block.MarshalPayload()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO content_blocks (id, chapter_id, block_kind, payload, provider, created_at)
			 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)`,
			block.ID, block.ChapterID, string(block.Kind), payload, block.Provider, block.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: chapter %s kind %s", ErrBlockExists, block.ChapterID, block.Kind)
			}
			return fmt.Errorf("insert block: %w", err)
		}
	}
	return tx.Commit(ctx)
}
