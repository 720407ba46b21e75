package memory

import (
	"context"
	"sync"

	"proctor-quiz-service/internal/domain"
)

// QuestionStore is an in-memory implementation of the question repository.
type QuestionStore struct {
	mu     sync.RWMutex
	byQuiz map[string][]domain.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{byQuiz: make(map[string][]domain.Question)}
}

func (s *QuestionStore) Insert(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byQuiz[question.QuizID] = append(s.byQuiz[question.QuizID], question)
	return nil
}

func (s *QuestionStore) ListByQuiz(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.Question, len(s.byQuiz[quizID]))
	copy(questions, s.byQuiz[quizID])
	return questions, nil
}
