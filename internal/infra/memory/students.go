package memory

import (
	"context"
	"sync"

	"proctor-quiz-service/internal/domain"
)

// StudentStore is an in-memory implementation of the student repository.
type StudentStore struct {
	mu       sync.RWMutex
	students map[string]domain.Student // keyed by university number
}

func NewStudentStore() *StudentStore {
	return &StudentStore{students: make(map[string]domain.Student)}
}

func (s *StudentStore) ByUniversityNumber(_ context.Context, universityNumber string) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[universityNumber]
	if !ok {
		return domain.Student{}, domain.ErrStudentNotFound
	}
	return student, nil
}

func (s *StudentStore) ByEmail(_ context.Context, email string) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, student := range s.students {
		if student.Email == email {
			return student, nil
		}
	}
	return domain.Student{}, domain.ErrStudentNotFound
}

func (s *StudentStore) Insert(_ context.Context, student domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[student.UniversityNumber]; ok {
		return domain.ErrDuplicateStudent
	}
	s.students[student.UniversityNumber] = student
	return nil
}
