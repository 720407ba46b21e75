package memory

import (
	"context"
	"sync"

	"proctor-quiz-service/internal/domain"
)

// QuizStore is an in-memory implementation of the quiz repository.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz   // keyed by id
	byCode  map[string]string        // access code to id
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes: make(map[string]domain.Quiz),
		byCode:  make(map[string]string),
	}
}

func (s *QuizStore) Insert(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	s.byCode[quiz.AccessCode] = quiz.ID
	return nil
}

func (s *QuizStore) ByID(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) ByCode(_ context.Context, code string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.quizzes[id], nil
}

func (s *QuizStore) List(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

func (s *QuizStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCode[code]
	return ok, nil
}
