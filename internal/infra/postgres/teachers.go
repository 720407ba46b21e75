package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"proctor-quiz-service/internal/domain"
)

// TeacherRepository stores teachers in Postgres.
type TeacherRepository struct {
	pool *pgxpool.Pool
}

func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

func (r *TeacherRepository) ByEmail(ctx context.Context, email string) (domain.Teacher, error) {
	var t domain.Teacher
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash FROM teachers WHERE email=$1`, email).
		Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Teacher{}, domain.ErrTeacherNotFound
	}
	if err != nil {
		return domain.Teacher{}, fmt.Errorf("load teacher: %w", err)
	}
	return t, nil
}

func (r *TeacherRepository) Insert(ctx context.Context, t domain.Teacher) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO teachers (id, name, email, password_hash) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO NOTHING`,
		t.ID, t.Name, t.Email, t.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}
	return nil
}
