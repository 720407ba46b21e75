package http

import "proctor-quiz-service/internal/domain"

type studentRegisterRequest struct {
	UniversityNumber string `json:"university_number" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6"`
}

type studentLoginRequest struct {
	UniversityNumber string `json:"university_number" validate:"required"`
	Password         string `json:"password" validate:"required"`
}

type teacherLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createQuizRequest struct {
	Title           string `json:"title" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
}

type createQuizResponse struct {
	QuizID     string `json:"quiz_id"`
	AccessCode string `json:"access_code"`
	Message    string `json:"message"`
}

type addQuestionRequest struct {
	QuestionText  string `json:"question_text" validate:"required"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=A B C D a b c d"`
}

type violationRequest struct {
	ViolationType string `json:"violation_type" validate:"required"`
}

type submitRequest struct {
	Answers   map[string]string `json:"answers"`
	StartedAt string            `json:"started_at" validate:"required"`
	ForceFail bool              `json:"force_fail"`
}

type quizByCodeResponse struct {
	QuizID          string `json:"quiz_id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
}

// questionView redacts the correct label unless the caller is a teacher.
type questionView struct {
	ID            string            `json:"_id"`
	QuizID        string            `json:"quiz_id"`
	QuestionText  string            `json:"question_text"`
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correct_option,omitempty"`
}

type questionsResponse struct {
	QuizID          string         `json:"quiz_id"`
	Title           string         `json:"title"`
	DurationMinutes int            `json:"duration_minutes"`
	Questions       []questionView `json:"questions"`
}

type quizDetailResponse struct {
	domain.Quiz
	Questions []questionView `json:"questions"`
}

func toQuestionViews(questions []domain.Question, includeCorrect bool) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		view := questionView{
			ID:           q.ID,
			QuizID:       q.QuizID,
			QuestionText: q.Text,
			Options:      q.Options,
		}
		if includeCorrect {
			view.CorrectOption = q.CorrectLabel
		}
		views = append(views, view)
	}
	return views
}
