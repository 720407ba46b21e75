package memory

import (
	"context"
	"sync"

	"proctor-quiz-service/internal/domain"
)

// TeacherStore is an in-memory implementation of the teacher repository.
type TeacherStore struct {
	mu       sync.RWMutex
	teachers map[string]domain.Teacher // keyed by email
}

func NewTeacherStore() *TeacherStore {
	return &TeacherStore{teachers: make(map[string]domain.Teacher)}
}

func (s *TeacherStore) ByEmail(_ context.Context, email string) (domain.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teacher, ok := s.teachers[email]
	if !ok {
		return domain.Teacher{}, domain.ErrTeacherNotFound
	}
	return teacher, nil
}

func (s *TeacherStore) Insert(_ context.Context, teacher domain.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachers[teacher.Email] = teacher
	return nil
}
