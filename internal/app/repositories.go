package app

import (
	"context"

	"proctor-quiz-service/internal/domain"
)

// StudentRepository resolves registered students (in-memory, Postgres, etc).
type StudentRepository interface {
	ByUniversityNumber(ctx context.Context, universityNumber string) (domain.Student, error)
	Insert(ctx context.Context, student domain.Student) error
}

// QuizRepository stores authored quizzes, unique by id and access code.
type QuizRepository interface {
	Insert(ctx context.Context, quiz domain.Quiz) error
	ByID(ctx context.Context, id string) (domain.Quiz, error)
	ByCode(ctx context.Context, code string) (domain.Quiz, error)
	List(ctx context.Context) ([]domain.Quiz, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// QuestionRepository stores questions keyed by their quiz.
type QuestionRepository interface {
	Insert(ctx context.Context, question domain.Question) error
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Question, error)
}

// AttemptRepository stores at most one attempt per (student, quiz) pair.
//
// AddViolation must be a single conditional update against the store: it
// increments the count, appends the tag, and applies the escalation rule
// (domain.ViolationFails) in one step, returning the updated attempt. It
// returns domain.ErrAttemptNotFound when no live attempt matches the key.
type AttemptRepository interface {
	Get(ctx context.Context, quizID, universityNumber string) (domain.Attempt, error)
	Create(ctx context.Context, attempt domain.Attempt) error
	AddViolation(ctx context.Context, quizID, universityNumber, violationType, failedAt string) (domain.Attempt, error)
	Upsert(ctx context.Context, attempt domain.Attempt) error
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error)
	ListTerminal(ctx context.Context, quizID string) ([]domain.Attempt, error)
}

// AnswerKeyProvider yields the correct label per question for a quiz,
// typically served from a cache in front of the question store.
type AnswerKeyProvider interface {
	AnswerKey(ctx context.Context, quizID string) (map[string]string, error)
}

// Notifier delivers a result summary. Implementations are best-effort:
// they must swallow every failure and never block the submit path.
type Notifier interface {
	Send(ctx context.Context, n domain.ResultNotification)
}
