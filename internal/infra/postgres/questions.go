package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"proctor-quiz-service/internal/domain"
)

// QuestionRepository stores questions in Postgres with the option map as
// JSONB, matching the document shape the API exposes.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) Insert(ctx context.Context, q domain.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO questions (id, quiz_id, question_text, options, correct_option)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		q.ID, q.QuizID, q.Text, string(options), q.CorrectLabel)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, question_text, options, correct_option FROM questions WHERE quiz_id=$1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &raw, &q.CorrectLabel); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// LoadAnswerKey reads only the id to correct-label pairs; it backs the answer
// key caches.
func (r *QuestionRepository) LoadAnswerKey(ctx context.Context, quizID string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, correct_option FROM questions WHERE quiz_id=$1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}
	defer rows.Close()

	key := make(map[string]string)
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan answer key: %w", err)
		}
		key[id] = label
	}
	return key, rows.Err()
}
