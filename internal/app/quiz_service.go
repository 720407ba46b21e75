package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"proctor-quiz-service/internal/domain"
)

// QuizService covers the authoring and catalog use cases: creating quizzes
// with a unique access code, adding questions and listing content for
// teachers and students.
type QuizService struct {
	quizzes     QuizRepository
	questions   QuestionRepository
	students    StudentRepository
	attempts    AttemptRepository
	codes       *CodeGenerator
	invalidator AnswerKeyInvalidator
	now         func() time.Time
}

// AnswerKeyInvalidator drops a quiz's cached answer key after its question
// set changes.
type AnswerKeyInvalidator interface {
	Invalidate(ctx context.Context, quizID string)
}

func NewQuizService(quizzes QuizRepository, questions QuestionRepository, students StudentRepository, attempts AttemptRepository) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		questions: questions,
		students:  students,
		attempts:  attempts,
		codes:     NewCodeGenerator(quizzes),
		now:       time.Now,
	}
}

// WithAnswerKeyInvalidator wires cache invalidation into AddQuestion.
func (s *QuizService) WithAnswerKeyInvalidator(inv AnswerKeyInvalidator) *QuizService {
	s.invalidator = inv
	return s
}

// QuizTitle is the public listing entry; access codes stay hidden.
type QuizTitle struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// AttemptReview is a teacher's view of one attempt with the student joined in.
type AttemptReview struct {
	domain.Attempt
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
}

// Create authors a quiz under a fresh collision-checked access code.
func (s *QuizService) Create(ctx context.Context, createdBy, title string, durationMinutes int) (domain.Quiz, error) {
	code, err := s.codes.Generate(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := domain.Quiz{
		ID:              uuid.NewString(),
		Title:           title,
		DurationMinutes: durationMinutes,
		CreatedBy:       createdBy,
		CreatedAt:       s.now().UTC().Format(time.RFC3339),
		AccessCode:      code,
	}
	if err := s.quizzes.Insert(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// List returns every quiz including access codes (teacher view).
func (s *QuizService) List(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.List(ctx)
}

// Titles lists quiz ids and titles only, for the leaderboard dropdown.
func (s *QuizService) Titles(ctx context.Context) ([]QuizTitle, error) {
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]QuizTitle, 0, len(quizzes))
	for _, q := range quizzes {
		titles = append(titles, QuizTitle{ID: q.ID, Title: q.Title})
	}
	return titles, nil
}

// ByCode resolves a student's access code to its quiz. Input is trimmed and
// upper-cased before lookup.
func (s *QuizService) ByCode(ctx context.Context, code string) (domain.Quiz, error) {
	return s.quizzes.ByCode(ctx, domain.NormalizeAccessCode(code))
}

// AddQuestion appends a question to an existing quiz. The correct label is
// stored upper-cased.
func (s *QuizService) AddQuestion(ctx context.Context, quizID string, question domain.Question) (domain.Question, error) {
	if _, err := s.quizzes.ByID(ctx, quizID); err != nil {
		return domain.Question{}, err
	}
	question.ID = uuid.NewString()
	question.QuizID = quizID
	question.CorrectLabel = strings.ToUpper(question.CorrectLabel)
	if err := s.questions.Insert(ctx, question); err != nil {
		return domain.Question{}, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, quizID)
	}
	return question, nil
}

// Questions returns a quiz with its full question set. Redaction of the
// correct labels for students happens at the transport layer.
func (s *QuizService) Questions(ctx context.Context, quizID string) (domain.Quiz, []domain.Question, error) {
	quiz, err := s.quizzes.ByID(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	questions, err := s.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	return quiz, questions, nil
}

// Attempts lists every attempt of a quiz with student details joined in,
// for teacher review. Unknown students degrade to placeholder fields.
func (s *QuizService) Attempts(ctx context.Context, quizID string) ([]AttemptReview, error) {
	attempts, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	reviews := make([]AttemptReview, 0, len(attempts))
	for _, a := range attempts {
		review := AttemptReview{Attempt: a, StudentName: "Unknown", StudentEmail: "unknown"}
		if student, err := s.students.ByUniversityNumber(ctx, a.UniversityNumber); err == nil {
			review.StudentName = student.Name
			review.StudentEmail = student.Email
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}
