package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"proctor-quiz-service/internal/domain"
)

// StudentRepository is the slice of student storage the auth flows need.
type StudentRepository interface {
	ByUniversityNumber(ctx context.Context, universityNumber string) (domain.Student, error)
	ByEmail(ctx context.Context, email string) (domain.Student, error)
	Insert(ctx context.Context, student domain.Student) error
}

// TeacherRepository is the slice of teacher storage the auth flows need.
type TeacherRepository interface {
	ByEmail(ctx context.Context, email string) (domain.Teacher, error)
	Insert(ctx context.Context, teacher domain.Teacher) error
}

// Service handles registration, login and token issuance for both roles.
type Service struct {
	students StudentRepository
	teachers TeacherRepository
	tokens   *TokenManager
	now      func() time.Time
}

func NewService(students StudentRepository, teachers TeacherRepository, tokens *TokenManager) *Service {
	return &Service{students: students, teachers: teachers, tokens: tokens, now: time.Now}
}

// Tokens exposes the token manager for the HTTP middleware.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Session is the login response for either role.
type Session struct {
	Token            string `json:"access_token"`
	Role             string `json:"role"`
	Name             string `json:"name"`
	UniversityNumber string `json:"university_number,omitempty"`
}

// RegisterStudent creates a student account after checking that neither the
// university number nor the email is taken.
func (s *Service) RegisterStudent(ctx context.Context, universityNumber, name, email, password string) error {
	if _, err := s.students.ByUniversityNumber(ctx, universityNumber); err == nil {
		return domain.ErrDuplicateStudent
	}
	if _, err := s.students.ByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateStudent
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.students.Insert(ctx, domain.Student{
		ID:               uuid.NewString(),
		UniversityNumber: universityNumber,
		Name:             name,
		Email:            email,
		PasswordHash:     string(hash),
		CreatedAt:        s.now().UTC().Format(time.RFC3339),
	})
}

// LoginStudent verifies credentials and issues a student token.
func (s *Service) LoginStudent(ctx context.Context, universityNumber, password string) (Session, error) {
	student, err := s.students.ByUniversityNumber(ctx, universityNumber)
	if err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)) != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(student.UniversityNumber, RoleStudent, student.Name)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Role: RoleStudent, Name: student.Name, UniversityNumber: student.UniversityNumber}, nil
}

// LoginTeacher verifies credentials and issues a teacher token.
func (s *Service) LoginTeacher(ctx context.Context, email, password string) (Session, error) {
	teacher, err := s.teachers.ByEmail(ctx, email)
	if err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(password)) != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(teacher.ID, RoleTeacher, teacher.Name)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Role: RoleTeacher, Name: teacher.Name}, nil
}

// EnsureDefaultTeacher seeds the bootstrap teacher account once.
func (s *Service) EnsureDefaultTeacher(ctx context.Context, name, email, password string) error {
	if _, err := s.teachers.ByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrTeacherNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.teachers.Insert(ctx, domain.Teacher{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}); err != nil {
		return err
	}
	log.Printf("seeded default teacher %s", email)
	return nil
}
