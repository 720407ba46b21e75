package memory

import (
	"context"
	"sync"

	"proctor-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of the attempt repository.
// The map key enforces the one-attempt-per-(student, quiz) invariant and
// the store mutex stands in for the document store's per-document atomicity.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[attemptKey]domain.Attempt
}

type attemptKey struct {
	quizID           string
	universityNumber string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[attemptKey]domain.Attempt)}
}

func (s *AttemptStore) Get(_ context.Context, quizID, universityNumber string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey{quizID, universityNumber}]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// Create inserts the attempt only when the pair key is vacant.
func (s *AttemptStore) Create(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey{attempt.QuizID, attempt.UniversityNumber}
	if _, ok := s.attempts[key]; ok {
		return nil
	}
	s.attempts[key] = attempt
	return nil
}

// AddViolation performs the increment, tag append and escalation as one
// update under the store lock. Missing or terminal attempts yield
// domain.ErrAttemptNotFound.
func (s *AttemptStore) AddViolation(_ context.Context, quizID, universityNumber, violationType, failedAt string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey{quizID, universityNumber}
	attempt, ok := s.attempts[key]
	if !ok || !attempt.Live() {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	attempt.ViolationCount++
	attempt.Violations = append(attempt.Violations, violationType)
	if domain.ViolationFails(violationType, attempt.ViolationCount) {
		attempt.Status = domain.StatusFailed
		attempt.SubmittedAt = failedAt
	}
	s.attempts[key] = attempt
	return attempt, nil
}

func (s *AttemptStore) Upsert(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attemptKey{attempt.QuizID, attempt.UniversityNumber}] = attempt
	return nil
}

func (s *AttemptStore) ListByQuiz(_ context.Context, quizID string) ([]domain.Attempt, error) {
	return s.list(quizID, false), nil
}

func (s *AttemptStore) ListTerminal(_ context.Context, quizID string) ([]domain.Attempt, error) {
	return s.list(quizID, true), nil
}

func (s *AttemptStore) list(quizID string, terminalOnly bool) []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := make([]domain.Attempt, 0)
	for key, attempt := range s.attempts {
		if key.quizID != quizID {
			continue
		}
		if terminalOnly && !attempt.Status.Terminal() {
			continue
		}
		attempts = append(attempts, attempt)
	}
	return attempts
}
