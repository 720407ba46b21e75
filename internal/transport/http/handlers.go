package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/auth"
	"proctor-quiz-service/internal/domain"
)

// initSentinel is the wire-compatible violation type meaning "create the
// attempt if absent"; it dispatches to Initialize instead of being recorded
// as a real violation.
const initSentinel = "__init__"

// API bundles the HTTP handlers over the application services.
type API struct {
	auth     *auth.Service
	quizzes  *app.QuizService
	attempts *app.AttemptService
}

func NewAPI(authService *auth.Service, quizzes *app.QuizService, attempts *app.AttemptService) *API {
	return &API{auth: authService, quizzes: quizzes, attempts: attempts}
}

func (a *API) HandleStudentRegister(w http.ResponseWriter, r *http.Request) {
	var req studentRegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.auth.RegisterStudent(r.Context(), req.UniversityNumber, req.Name, req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Student registered successfully"})
}

func (a *API) HandleStudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := a.auth.LoginStudent(r.Context(), req.UniversityNumber, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) HandleTeacherLogin(w http.ResponseWriter, r *http.Request) {
	var req teacherLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := a.auth.LoginTeacher(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) HandleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireRole(w, r, auth.RoleTeacher)
	if !ok {
		return
	}
	var req createQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}
	quiz, err := a.quizzes.Create(r.Context(), identity.Subject, req.Title, req.DurationMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createQuizResponse{
		QuizID:     quiz.ID,
		AccessCode: quiz.AccessCode,
		Message:    "Quiz created",
	})
}

func (a *API) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(r)
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	if identity.Role != auth.RoleTeacher {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Students must use a quiz access code to join a quiz."})
		return
	}
	quizzes, err := a.quizzes.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Quiz{"quizzes": quizzes})
}

func (a *API) HandleQuizTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := a.quizzes.Titles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]app.QuizTitle{"quizzes": titles})
}

func (a *API) HandleQuizByCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleStudent); !ok {
		return
	}
	quiz, err := a.quizzes.ByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizByCodeResponse{
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		DurationMinutes: quiz.DurationMinutes,
	})
}

func (a *API) HandleAddQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleTeacher); !ok {
		return
	}
	var req addQuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	question, err := a.quizzes.AddQuestion(r.Context(), mux.Vars(r)["quizId"], domain.Question{
		Text: req.QuestionText,
		Options: map[string]string{
			"A": req.OptionA,
			"B": req.OptionB,
			"C": req.OptionC,
			"D": req.OptionD,
		},
		CorrectLabel: req.CorrectOption,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"question_id": question.ID,
		"message":     "Question added",
	})
}

func (a *API) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(r)
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	quiz, questions, err := a.quizzes.Questions(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		DurationMinutes: quiz.DurationMinutes,
		Questions:       toQuestionViews(questions, identity.Role == auth.RoleTeacher),
	})
}

func (a *API) HandleQuizDetail(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleTeacher); !ok {
		return
	}
	quiz, questions, err := a.quizzes.Questions(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizDetailResponse{
		Quiz:      quiz,
		Questions: toQuestionViews(questions, true),
	})
}

func (a *API) HandleQuizAttempts(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleTeacher); !ok {
		return
	}
	attempts, err := a.quizzes.Attempts(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]app.AttemptReview{"attempts": attempts})
}

func (a *API) HandleViolation(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireRole(w, r, auth.RoleStudent)
	if !ok {
		return
	}
	var req violationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	quizID := mux.Vars(r)["quizId"]

	var (
		state app.AttemptState
		err   error
	)
	if req.ViolationType == initSentinel {
		state, err = a.attempts.Initialize(r.Context(), quizID, identity.Subject)
	} else {
		state, err = a.attempts.ReportViolation(r.Context(), quizID, identity.Subject, req.ViolationType)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireRole(w, r, auth.RoleStudent)
	if !ok {
		return
	}
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := a.attempts.Submit(r.Context(), mux.Vars(r)["quizId"], identity.Subject,
		req.Answers, req.StartedAt, req.ForceFail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerIdentity(r); !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	lb, err := a.attempts.Leaderboard(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.LeaderboardRow{"leaderboard": lb.Rows})
}
