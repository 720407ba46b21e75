package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"proctor-quiz-service/internal/domain"
)

// AttemptRepository stores attempts in Postgres. The primary key
// (quiz_id, university_number) enforces the one-attempt-per-pair invariant.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `quiz_id, university_number, answers, score, violation_count, violations, status, started_at, submitted_at`

func (r *AttemptRepository) Get(ctx context.Context, quizID, universityNumber string) (domain.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE quiz_id=$1 AND university_number=$2`,
		quizID, universityNumber))
}

// Create inserts the attempt only when the pair key is vacant; a concurrent
// insert wins harmlessly.
func (r *AttemptRepository) Create(ctx context.Context, a domain.Attempt) error {
	answers, violations, err := marshalAttempt(a)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempts (`+attemptColumns+`)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6::jsonb, $7, $8, $9)
		 ON CONFLICT (quiz_id, university_number) DO NOTHING`,
		a.QuizID, a.UniversityNumber, answers, a.Score, a.ViolationCount, violations,
		string(a.Status), a.StartedAt, nullable(a.SubmittedAt))
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

// AddViolation is one conditional UPDATE: it increments the counter,
// appends the tag and applies the escalation rule inside the store, so
// concurrent reports at most race on ordering, never on lost counts. The
// WHERE clause only matches live attempts; zero rows means NotFound.
func (r *AttemptRepository) AddViolation(ctx context.Context, quizID, universityNumber, violationType, failedAt string) (domain.Attempt, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE attempts SET
		    violation_count = violation_count + 1,
		    violations = violations || to_jsonb($3::text),
		    status = CASE WHEN $3 = 'tab_switch' OR violation_count + 1 > 1 THEN 'FAILED' ELSE status END,
		    submitted_at = CASE WHEN $3 = 'tab_switch' OR violation_count + 1 > 1 THEN $4 ELSE submitted_at END
		 WHERE quiz_id=$1 AND university_number=$2 AND (status='IN_PROGRESS' OR status='')
		 RETURNING `+attemptColumns,
		quizID, universityNumber, violationType, failedAt)
	// scanAttempt maps zero matched rows to ErrAttemptNotFound.
	return scanAttempt(row)
}

func (r *AttemptRepository) Upsert(ctx context.Context, a domain.Attempt) error {
	answers, violations, err := marshalAttempt(a)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO attempts (`+attemptColumns+`)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6::jsonb, $7, $8, $9)
		 ON CONFLICT (quiz_id, university_number) DO UPDATE SET
		    answers=EXCLUDED.answers, score=EXCLUDED.score,
		    violation_count=EXCLUDED.violation_count, violations=EXCLUDED.violations,
		    status=EXCLUDED.status, started_at=EXCLUDED.started_at, submitted_at=EXCLUDED.submitted_at`,
		a.QuizID, a.UniversityNumber, answers, a.Score, a.ViolationCount, violations,
		string(a.Status), a.StartedAt, nullable(a.SubmittedAt))
	if err != nil {
		return fmt.Errorf("upsert attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE quiz_id=$1`, quizID)
}

func (r *AttemptRepository) ListTerminal(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE quiz_id=$1 AND status IN ('PASSED','FAILED')`, quizID)
}

func (r *AttemptRepository) list(ctx context.Context, query, quizID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func scanAttempt(row pgx.Row) (domain.Attempt, error) {
	var (
		a           domain.Attempt
		answers     []byte
		violations  []byte
		status      string
		submittedAt *string
	)
	err := row.Scan(&a.QuizID, &a.UniversityNumber, &answers, &a.Score, &a.ViolationCount,
		&violations, &status, &a.StartedAt, &submittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(violations, &a.Violations); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal violations: %w", err)
	}
	a.Status = domain.AttemptStatus(status)
	if submittedAt != nil {
		a.SubmittedAt = *submittedAt
	}
	return a, nil
}

func marshalAttempt(a domain.Attempt) (answers, violations string, err error) {
	if a.Answers == nil {
		a.Answers = map[string]string{}
	}
	if a.Violations == nil {
		a.Violations = []string{}
	}
	rawAnswers, err := json.Marshal(a.Answers)
	if err != nil {
		return "", "", fmt.Errorf("marshal answers: %w", err)
	}
	rawViolations, err := json.Marshal(a.Violations)
	if err != nil {
		return "", "", fmt.Errorf("marshal violations: %w", err)
	}
	return string(rawAnswers), string(rawViolations), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
