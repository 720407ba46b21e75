package domain

import "strings"

// AttemptStatus is the lifecycle state of a student's attempt.
// IN_PROGRESS is the only non-terminal state; PASSED and FAILED are
// terminal and immutable once set.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "IN_PROGRESS"
	StatusPassed     AttemptStatus = "PASSED"
	StatusFailed     AttemptStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s AttemptStatus) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// ViolationTabSwitch fails an attempt immediately; any other type only
// fails on the second occurrence.
const ViolationTabSwitch = "tab_switch"

// ViolationFails decides whether recording a violation of the given type,
// bringing the total to newCount, terminates the attempt.
func ViolationFails(violationType string, newCount int) bool {
	return violationType == ViolationTabSwitch || newCount > 1
}

// Student is a registered quiz taker, identified by university number.
type Student struct {
	ID               string `json:"id"`
	UniversityNumber string `json:"university_number"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	PasswordHash     string `json:"-"`
	CreatedAt        string `json:"created_at"`
}

// Teacher authors quizzes and reviews attempts.
type Teacher struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Quiz is an authored quiz joinable via its access code.
type Quiz struct {
	ID              string `json:"quiz_id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	CreatedBy       string `json:"created_by"`
	CreatedAt       string `json:"created_at"`
	AccessCode      string `json:"access_code"`
}

// Question is a four-option single-answer question belonging to one quiz.
type Question struct {
	ID           string            `json:"question_id"`
	QuizID       string            `json:"quiz_id"`
	Text         string            `json:"question_text"`
	Options      map[string]string `json:"options"` // keyed "A".."D"
	CorrectLabel string            `json:"correct_option"`
}

// Attempt is the per-(student, quiz) record mutated by the state machine.
// At most one exists per pair. StartedAt and SubmittedAt keep the raw
// timestamp strings clients send; leaderboard math tolerates garbage.
type Attempt struct {
	UniversityNumber string            `json:"student_university_number"`
	QuizID           string            `json:"quiz_id"`
	Answers          map[string]string `json:"answers"`
	Score            int               `json:"score"`
	ViolationCount   int               `json:"violation_count"`
	Violations       []string          `json:"violations"`
	Status           AttemptStatus     `json:"status"`
	StartedAt        string            `json:"started_at"`
	SubmittedAt      string            `json:"submitted_at,omitempty"`
}

// Live reports whether the attempt can still accept violations.
// A zero-value status is treated as IN_PROGRESS.
func (a Attempt) Live() bool {
	return a.Status == StatusInProgress || a.Status == ""
}

// LeaderboardRow is one ranked terminal attempt.
type LeaderboardRow struct {
	Name             string        `json:"name"`
	UniversityNumber string        `json:"university_number"`
	Score            int           `json:"score"`
	Status           AttemptStatus `json:"status"`
	ViolationCount   int           `json:"violation_count"`
	TimeTakenSeconds int           `json:"time_taken_seconds"`
	Rank             int           `json:"rank"`
}

// Leaderboard is the full ordered board for one quiz.
type Leaderboard struct {
	QuizID string           `json:"quiz_id"`
	Rows   []LeaderboardRow `json:"leaderboard"`
}

// ResultNotification is the payload handed to the notifier after submission.
type ResultNotification struct {
	To               string `json:"to"`
	Name             string `json:"name"`
	UniversityNumber string `json:"university_number"`
	Score            int    `json:"score"`
	Status           string `json:"status"`
	ViolationCount   int    `json:"violation_count"`
	Rank             int    `json:"rank"`
	QuizTitle        string `json:"quiz_title"`
}

// NormalizeAccessCode upper-cases and trims a client-supplied access code.
func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
