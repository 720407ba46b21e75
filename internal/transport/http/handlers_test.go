package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/auth"
	"proctor-quiz-service/internal/infra/memory"
	"proctor-quiz-service/internal/notify"
)

type apiHarness struct {
	t      *testing.T
	server *httptest.Server
	feed   *app.LeaderboardFeed
}

func newHarness(t *testing.T) *apiHarness {
	t.Helper()
	students := memory.NewStudentStore()
	teachers := memory.NewTeacherStore()
	quizzes := memory.NewQuizStore()
	questions := memory.NewQuestionStore()
	attempts := memory.NewAttemptStore()

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authService := auth.NewService(students, teachers, tokens)
	if err := authService.EnsureDefaultTeacher(context.Background(), "Admin Teacher", "admin@quiz.com", "admin123"); err != nil {
		t.Fatalf("seed teacher: %v", err)
	}

	keys := memory.NewAnswerKeyCache(memory.NewQuestionAnswerKeyLoader(questions), time.Minute)
	quizService := app.NewQuizService(quizzes, questions, students, attempts).WithAnswerKeyInvalidator(keys)
	feed := app.NewLeaderboardFeed()
	attemptService := app.NewAttemptService(attempts, quizzes, students, keys, notify.Noop{}, feed)

	server := httptest.NewServer(NewRouter(authService, quizService, attemptService, feed))
	t.Cleanup(server.Close)
	return &apiHarness{t: t, server: server, feed: feed}
}

func (h *apiHarness) do(method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		h.t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	payload := map[string]json.RawMessage{}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.t.Fatalf("decode %s %s body %q: %v", method, path, raw, err)
		}
	}
	return resp, payload
}

func (h *apiHarness) field(payload map[string]json.RawMessage, name string) string {
	h.t.Helper()
	var value string
	if err := json.Unmarshal(payload[name], &value); err != nil {
		h.t.Fatalf("field %q missing in %v: %v", name, payload, err)
	}
	return value
}

func (h *apiHarness) teacherToken() string {
	h.t.Helper()
	resp, payload := h.do(http.MethodPost, "/teacher/login", "", map[string]string{
		"email": "admin@quiz.com", "password": "admin123",
	})
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("teacher login status %d", resp.StatusCode)
	}
	return h.field(payload, "access_token")
}

func (h *apiHarness) studentToken(universityNumber string) string {
	h.t.Helper()
	resp, _ := h.do(http.MethodPost, "/student/register", "", map[string]string{
		"university_number": universityNumber,
		"name":              "Student " + universityNumber,
		"email":             universityNumber + "@example.com",
		"password":          "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("register status %d", resp.StatusCode)
	}
	resp, payload := h.do(http.MethodPost, "/student/login", "", map[string]string{
		"university_number": universityNumber, "password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("student login status %d", resp.StatusCode)
	}
	return h.field(payload, "access_token")
}

// createQuiz authors a quiz with n questions whose correct answer is always A.
func (h *apiHarness) createQuiz(token string, n int) (quizID, accessCode string) {
	h.t.Helper()
	resp, payload := h.do(http.MethodPost, "/quiz/create", token, map[string]any{
		"title": "Networks 101", "duration_minutes": 30,
	})
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("create quiz status %d", resp.StatusCode)
	}
	quizID = h.field(payload, "quiz_id")
	accessCode = h.field(payload, "access_code")
	for i := 0; i < n; i++ {
		resp, _ := h.do(http.MethodPost, "/quiz/"+quizID+"/add-question", token, map[string]string{
			"question_text":  fmt.Sprintf("Question %d", i+1),
			"option_a":       "right",
			"option_b":       "wrong",
			"option_c":       "wrong",
			"option_d":       "wrong",
			"correct_option": "A",
		})
		if resp.StatusCode != http.StatusOK {
			h.t.Fatalf("add question status %d", resp.StatusCode)
		}
	}
	return quizID, accessCode
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, payload := h.do(http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK || h.field(payload, "status") != "ok" {
		t.Fatalf("unexpected health response %d %v", resp.StatusCode, payload)
	}
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(http.MethodGet, "/quiz/list", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp, _ = h.do(http.MethodGet, "/quiz/list", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestQuizListForbiddenForStudents(t *testing.T) {
	h := newHarness(t)
	token := h.studentToken("U100")
	resp, payload := h.do(http.MethodGet, "/quiz/list", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", resp.StatusCode)
	}
	if h.field(payload, "error") != "Students must use a quiz access code to join a quiz." {
		t.Fatalf("unexpected error message %v", payload)
	}
}

func TestCreateQuizRequiresTeacher(t *testing.T) {
	h := newHarness(t)
	token := h.studentToken("U100")
	resp, _ := h.do(http.MethodPost, "/quiz/create", token, map[string]any{
		"title": "Nope", "duration_minutes": 10,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestQuizByCode(t *testing.T) {
	h := newHarness(t)
	teacher := h.teacherToken()
	quizID, code := h.createQuiz(teacher, 1)

	student := h.studentToken("U100")
	resp, payload := h.do(http.MethodGet, "/quiz/by-code/"+code, student, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("by-code status %d", resp.StatusCode)
	}
	if h.field(payload, "quiz_id") != quizID {
		t.Fatalf("unexpected quiz id %v", payload)
	}

	resp, _ = h.do(http.MethodGet, "/quiz/by-code/QZ-ZZZZZZ", student, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", resp.StatusCode)
	}
}

func TestQuestionRedaction(t *testing.T) {
	h := newHarness(t)
	teacher := h.teacherToken()
	quizID, _ := h.createQuiz(teacher, 2)
	student := h.studentToken("U100")

	type questionPayload struct {
		Questions []map[string]json.RawMessage `json:"questions"`
	}
	fetch := func(token string) questionPayload {
		req, err := http.NewRequest(http.MethodGet, h.server.URL+"/quiz/"+quizID+"/questions", nil)
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("fetch questions: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("questions status %d", resp.StatusCode)
		}
		var out questionPayload
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode questions: %v", err)
		}
		return out
	}

	forStudent := fetch(student)
	if len(forStudent.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(forStudent.Questions))
	}
	for _, q := range forStudent.Questions {
		if _, leaked := q["correct_option"]; leaked {
			t.Fatalf("correct option leaked to student: %v", q)
		}
	}

	forTeacher := fetch(teacher)
	for _, q := range forTeacher.Questions {
		if _, ok := q["correct_option"]; !ok {
			t.Fatalf("correct option missing for teacher: %v", q)
		}
	}
}

func TestViolationFlow(t *testing.T) {
	h := newHarness(t)
	teacher := h.teacherToken()
	quizID, _ := h.createQuiz(teacher, 2)
	student := h.studentToken("U100")

	// reporting against a quiz never joined is a 404
	resp, _ := h.do(http.MethodPost, "/quiz/"+quizID+"/violation", student, map[string]string{
		"violation_type": "noise",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without attempt, got %d", resp.StatusCode)
	}

	resp, payload := h.do(http.MethodPost, "/quiz/"+quizID+"/violation", student, map[string]string{
		"violation_type": "__init__",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("init status %d", resp.StatusCode)
	}
	var state struct {
		ViolationCount int    `json:"violation_count"`
		Status         string `json:"status"`
	}
	decodeState := func(payload map[string]json.RawMessage) {
		if err := json.Unmarshal(payload["violation_count"], &state.ViolationCount); err != nil {
			t.Fatalf("violation_count: %v", err)
		}
		if err := json.Unmarshal(payload["status"], &state.Status); err != nil {
			t.Fatalf("status: %v", err)
		}
	}
	decodeState(payload)
	if state.ViolationCount != 0 || state.Status != "IN_PROGRESS" {
		t.Fatalf("unexpected init state %+v", state)
	}

	resp, payload = h.do(http.MethodPost, "/quiz/"+quizID+"/violation", student, map[string]string{
		"violation_type": "tab_switch",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("violation status %d", resp.StatusCode)
	}
	decodeState(payload)
	if state.ViolationCount != 1 || state.Status != "FAILED" {
		t.Fatalf("expected tab switch to fail the attempt, got %+v", state)
	}
}

func TestSubmitAndLeaderboard(t *testing.T) {
	h := newHarness(t)
	teacher := h.teacherToken()
	quizID, _ := h.createQuiz(teacher, 2)
	student := h.studentToken("U100")

	started := time.Now().UTC().Format(time.RFC3339)
	questions := h.questionIDs(teacher, quizID)
	answers := map[string]string{questions[0]: "A", questions[1]: "B"}
	resp, payload := h.do(http.MethodPost, "/quiz/"+quizID+"/submit", student, map[string]any{
		"answers":    answers,
		"started_at": started,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d %v", resp.StatusCode, payload)
	}
	var score int
	if err := json.Unmarshal(payload["score"], &score); err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 1 || h.field(payload, "status") != "PASSED" {
		t.Fatalf("expected 1/2 to pass, got %v", payload)
	}

	resp, _ = h.do(http.MethodPost, "/quiz/"+quizID+"/submit", student, map[string]any{
		"answers":    answers,
		"started_at": started,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on resubmit, got %d", resp.StatusCode)
	}

	resp, payload = h.do(http.MethodGet, "/quiz/"+quizID+"/leaderboard", student, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard status %d", resp.StatusCode)
	}
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(payload["leaderboard"], &rows); err != nil {
		t.Fatalf("leaderboard rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one leaderboard row, got %d", len(rows))
	}
}

func TestQuizAttemptsTeacherOnly(t *testing.T) {
	h := newHarness(t)
	teacher := h.teacherToken()
	quizID, _ := h.createQuiz(teacher, 1)
	student := h.studentToken("U100")

	resp, _ := h.do(http.MethodGet, "/quiz/"+quizID+"/attempts", student, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", resp.StatusCode)
	}

	started := time.Now().UTC().Format(time.RFC3339)
	if resp, _ := h.do(http.MethodPost, "/quiz/"+quizID+"/submit", student, map[string]any{
		"answers":    map[string]string{"x": "A"},
		"started_at": started,
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d", resp.StatusCode)
	}

	resp, payload := h.do(http.MethodGet, "/quiz/"+quizID+"/attempts", teacher, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attempts status %d", resp.StatusCode)
	}
	var attempts []map[string]json.RawMessage
	if err := json.Unmarshal(payload["attempts"], &attempts); err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(attempts))
	}
	var name string
	if err := json.Unmarshal(attempts[0]["student_name"], &name); err != nil {
		t.Fatalf("student_name: %v", err)
	}
	if name != "Student U100" {
		t.Fatalf("unexpected student name %q", name)
	}
}

func TestValidationRejectsBadPayloads(t *testing.T) {
	h := newHarness(t)
	teacher := h.teacherToken()
	quizID, _ := h.createQuiz(teacher, 0)

	resp, _ := h.do(http.MethodPost, "/quiz/create", teacher, map[string]any{
		"title": "", "duration_minutes": 30,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty title, got %d", resp.StatusCode)
	}

	resp, _ = h.do(http.MethodPost, "/quiz/"+quizID+"/add-question", teacher, map[string]string{
		"question_text":  "Q",
		"option_a":       "a",
		"option_b":       "b",
		"option_c":       "c",
		"option_d":       "d",
		"correct_option": "E",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for correct option E, got %d", resp.StatusCode)
	}
}

func (h *apiHarness) questionIDs(token, quizID string) []string {
	h.t.Helper()
	resp, payload := h.do(http.MethodGet, "/quiz/"+quizID+"/questions", token, nil)
	if resp.StatusCode != http.StatusOK {
		h.t.Fatalf("questions status %d", resp.StatusCode)
	}
	var questions []struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(payload["questions"], &questions); err != nil {
		h.t.Fatalf("questions: %v", err)
	}
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return ids
}
