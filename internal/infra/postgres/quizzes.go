package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"proctor-quiz-service/internal/domain"
)

// QuizRepository stores quizzes in Postgres. The unique index on
// access_code is the final arbiter for code collisions.
type QuizRepository struct {
	pool *pgxpool.Pool
}

func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, title, duration_minutes, created_by, created_at, access_code`

func (r *QuizRepository) Insert(ctx context.Context, q domain.Quiz) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO quizzes (id, title, duration_minutes, created_by, created_at, access_code)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.Title, q.DurationMinutes, q.CreatedBy, q.CreatedAt, q.AccessCode)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (r *QuizRepository) ByID(ctx context.Context, id string) (domain.Quiz, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, id))
}

func (r *QuizRepository) ByCode(ctx context.Context, code string) (domain.Quiz, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE access_code=$1`, code))
}

func (r *QuizRepository) List(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quizColumns+` FROM quizzes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.DurationMinutes, &q.CreatedBy, &q.CreatedAt, &q.AccessCode); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM quizzes WHERE access_code=$1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check access code: %w", err)
	}
	return exists, nil
}

func (r *QuizRepository) scanOne(row pgx.Row) (domain.Quiz, error) {
	var q domain.Quiz
	err := row.Scan(&q.ID, &q.Title, &q.DurationMinutes, &q.CreatedBy, &q.CreatedAt, &q.AccessCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return q, nil
}
