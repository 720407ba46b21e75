package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"proctor-quiz-service/internal/domain"
)

// StudentRepository stores students in Postgres.
type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `id, university_number, name, email, password_hash, created_at`

func (r *StudentRepository) ByUniversityNumber(ctx context.Context, universityNumber string) (domain.Student, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE university_number=$1`, universityNumber))
}

func (r *StudentRepository) ByEmail(ctx context.Context, email string) (domain.Student, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+studentColumns+` FROM students WHERE email=$1`, email))
}

func (r *StudentRepository) Insert(ctx context.Context, s domain.Student) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO students (id, university_number, name, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.UniversityNumber, s.Name, s.Email, s.PasswordHash, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (r *StudentRepository) scanOne(row pgx.Row) (domain.Student, error) {
	var s domain.Student
	err := row.Scan(&s.ID, &s.UniversityNumber, &s.Name, &s.Email, &s.PasswordHash, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	if err != nil {
		return domain.Student{}, fmt.Errorf("load student: %w", err)
	}
	return s, nil
}
