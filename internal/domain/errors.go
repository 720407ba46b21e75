package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id or access code matched nothing.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id matched nothing.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned when a violation is reported with no live attempt.
	ErrAttemptNotFound = errors.New("no active attempt found")
	// ErrAlreadySubmitted rejects any submission after the attempt went terminal.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrStudentNotFound indicates the university number or email matched nothing.
	ErrStudentNotFound = errors.New("student not found")
	// ErrTeacherNotFound indicates the teacher email matched nothing.
	ErrTeacherNotFound = errors.New("teacher not found")
	// ErrDuplicateStudent is returned on registration when the university
	// number or email is already taken.
	ErrDuplicateStudent = errors.New("student already registered")
	// ErrInvalidCredentials covers both unknown accounts and bad passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned on a role mismatch (e.g. a student calling a
	// teacher-only operation).
	ErrForbidden = errors.New("operation not allowed for this role")
	// ErrUnauthenticated is returned when the caller identity is missing or invalid.
	ErrUnauthenticated = errors.New("missing or invalid token")
)
