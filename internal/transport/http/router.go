package http

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/auth"
)

// NewRouter wires the REST surface and the live leaderboard websocket.
func NewRouter(authService *auth.Service, quizzes *app.QuizService, attempts *app.AttemptService, feed *app.LeaderboardFeed) http.Handler {
	api := NewAPI(authService, quizzes, attempts)
	ws := NewWSHandler(attempts, feed)

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s %s", r.Method, r.RequestURI, r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/health", HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/student/register", api.HandleStudentRegister).Methods(http.MethodPost)
	router.HandleFunc("/student/login", api.HandleStudentLogin).Methods(http.MethodPost)
	router.HandleFunc("/teacher/login", api.HandleTeacherLogin).Methods(http.MethodPost)
	router.HandleFunc("/ws/leaderboard", ws.ServeWS).Methods(http.MethodGet)

	authed := router.PathPrefix("").Subrouter()
	authed.Use(AuthMiddleware(authService.Tokens()))
	authed.HandleFunc("/quiz/create", api.HandleCreateQuiz).Methods(http.MethodPost)
	authed.HandleFunc("/quiz/list", api.HandleListQuizzes).Methods(http.MethodGet)
	authed.HandleFunc("/quiz/titles", api.HandleQuizTitles).Methods(http.MethodGet)
	authed.HandleFunc("/quiz/by-code/{code}", api.HandleQuizByCode).Methods(http.MethodGet)
	authed.HandleFunc("/quiz/{quizId}/add-question", api.HandleAddQuestion).Methods(http.MethodPost)
	authed.HandleFunc("/quiz/{quizId}/questions", api.HandleQuestions).Methods(http.MethodGet)
	authed.HandleFunc("/quiz/{quizId}/detail", api.HandleQuizDetail).Methods(http.MethodGet)
	authed.HandleFunc("/quiz/{quizId}/violation", api.HandleViolation).Methods(http.MethodPost)
	authed.HandleFunc("/quiz/{quizId}/submit", api.HandleSubmit).Methods(http.MethodPost)
	authed.HandleFunc("/quiz/{quizId}/leaderboard", api.HandleLeaderboard).Methods(http.MethodGet)
	authed.HandleFunc("/quiz/{quizId}/attempts", api.HandleQuizAttempts).Methods(http.MethodGet)

	return router
}
