package app

import (
	"context"
	"errors"
	"time"

	"proctor-quiz-service/internal/domain"
)

// AttemptService owns the per-(student, quiz) attempt lifecycle: violation
// escalation, scoring on submit and the post-submit rank and notification
// fan-out.
//
// Concurrent calls for the same pair race on the store's single-document
// primitives only. AddViolation is one conditional update; a violation and
// a submit may still interleave.
type AttemptService struct {
	attempts   AttemptRepository
	quizzes    QuizRepository
	students   StudentRepository
	answerKeys AnswerKeyProvider
	notifier   Notifier
	feed       *LeaderboardFeed
	now        func() time.Time
}

func NewAttemptService(attempts AttemptRepository, quizzes QuizRepository, students StudentRepository, answerKeys AnswerKeyProvider, notifier Notifier, feed *LeaderboardFeed) *AttemptService {
	return &AttemptService{
		attempts:   attempts,
		quizzes:    quizzes,
		students:   students,
		answerKeys: answerKeys,
		notifier:   notifier,
		feed:       feed,
		now:        time.Now,
	}
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(attempts AttemptRepository, quizzes QuizRepository, students StudentRepository, answerKeys AnswerKeyProvider, notifier Notifier, feed *LeaderboardFeed, now func() time.Time) *AttemptService {
	s := NewAttemptService(attempts, quizzes, students, answerKeys, notifier, feed)
	s.now = now
	return s
}

// AttemptState is the client-visible slice of an attempt.
type AttemptState struct {
	ViolationCount int                  `json:"violation_count"`
	Status         domain.AttemptStatus `json:"status"`
}

// SubmitResult is the response of a finalized submission.
type SubmitResult struct {
	Score          int                  `json:"score"`
	Status         domain.AttemptStatus `json:"status"`
	ViolationCount int                  `json:"violation_count"`
	Rank           int                  `json:"rank"`
	SubmittedAt    string               `json:"submitted_at"`
}

// Initialize creates the attempt for the pair if none exists and is a no-op
// otherwise. It returns the attempt's current violation count and status.
func (s *AttemptService) Initialize(ctx context.Context, quizID, universityNumber string) (AttemptState, error) {
	if _, err := s.quizzes.ByID(ctx, quizID); err != nil {
		return AttemptState{}, err
	}
	existing, err := s.attempts.Get(ctx, quizID, universityNumber)
	if err == nil {
		return stateOf(existing), nil
	}
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		return AttemptState{}, err
	}

	attempt := domain.Attempt{
		UniversityNumber: universityNumber,
		QuizID:           quizID,
		Answers:          map[string]string{},
		Violations:       []string{},
		Status:           domain.StatusInProgress,
		StartedAt:        s.timestamp(),
	}
	// Create is idempotent on the pair key; a concurrent Initialize wins
	// harmlessly.
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return AttemptState{}, err
	}
	return stateOf(attempt), nil
}

// ReportViolation records one violation on a live attempt and applies the
// escalation rule: a tab switch, or any second violation, fails the attempt
// immediately and stamps the submission timestamp.
func (s *AttemptService) ReportViolation(ctx context.Context, quizID, universityNumber, violationType string) (AttemptState, error) {
	updated, err := s.attempts.AddViolation(ctx, quizID, universityNumber, violationType, s.timestamp())
	if err != nil {
		return AttemptState{}, err
	}
	if updated.Status.Terminal() {
		s.publishLeaderboard(ctx, quizID)
	}
	return stateOf(updated), nil
}

// Submit finalizes the attempt: scores the answers against the full
// question set (or zeroes them on forceFail), applies the pass policy,
// upserts the attempt on the pair key, computes the student's rank and
// fires the result notification without waiting for it.
func (s *AttemptService) Submit(ctx context.Context, quizID, universityNumber string, answers map[string]string, startedAt string, forceFail bool) (SubmitResult, error) {
	if _, err := s.quizzes.ByID(ctx, quizID); err != nil {
		return SubmitResult{}, err
	}

	violationCount := 0
	existing, err := s.attempts.Get(ctx, quizID, universityNumber)
	switch {
	case err == nil:
		if existing.Status.Terminal() {
			return SubmitResult{}, domain.ErrAlreadySubmitted
		}
		violationCount = existing.ViolationCount
	case errors.Is(err, domain.ErrAttemptNotFound):
		// first contact; submission creates the attempt
	default:
		return SubmitResult{}, err
	}

	score := 0
	status := domain.StatusFailed
	if !forceFail {
		key, err := s.answerKeys.AnswerKey(ctx, quizID)
		if err != nil {
			return SubmitResult{}, err
		}
		score = Score(answers, key)
		if Passes(score, len(key), violationCount) {
			status = domain.StatusPassed
		}
	}

	if answers == nil {
		answers = map[string]string{}
	}
	if existing.Violations == nil {
		existing.Violations = []string{}
	}
	submittedAt := s.timestamp()
	attempt := domain.Attempt{
		UniversityNumber: universityNumber,
		QuizID:           quizID,
		Answers:          answers,
		Score:            score,
		ViolationCount:   violationCount,
		Violations:       existing.Violations,
		Status:           status,
		StartedAt:        startedAt,
		SubmittedAt:      submittedAt,
	}
	if err := s.attempts.Upsert(ctx, attempt); err != nil {
		return SubmitResult{}, err
	}

	terminal, err := s.attempts.ListTerminal(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}
	rank := RankAmong(terminal, attempt)

	s.feed.Publish(BuildLeaderboard(quizID, terminal, s.nameLookup(ctx)))
	s.notifyResult(ctx, quizID, universityNumber, attempt, rank)

	return SubmitResult{
		Score:          score,
		Status:         status,
		ViolationCount: violationCount,
		Rank:           rank,
		SubmittedAt:    submittedAt,
	}, nil
}

// Leaderboard ranks every terminal attempt of the quiz.
func (s *AttemptService) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	terminal, err := s.attempts.ListTerminal(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return BuildLeaderboard(quizID, terminal, s.nameLookup(ctx)), nil
}

func (s *AttemptService) publishLeaderboard(ctx context.Context, quizID string) {
	terminal, err := s.attempts.ListTerminal(ctx, quizID)
	if err != nil {
		return
	}
	s.feed.Publish(BuildLeaderboard(quizID, terminal, s.nameLookup(ctx)))
}

func (s *AttemptService) nameLookup(ctx context.Context) func(string) string {
	return func(universityNumber string) string {
		student, err := s.students.ByUniversityNumber(ctx, universityNumber)
		if err != nil {
			return "Unknown"
		}
		return student.Name
	}
}

// notifyResult fires the result email without blocking the submit response.
// The student or quiz being unreadable just skips the notification.
func (s *AttemptService) notifyResult(ctx context.Context, quizID, universityNumber string, attempt domain.Attempt, rank int) {
	student, err := s.students.ByUniversityNumber(ctx, universityNumber)
	if err != nil {
		return
	}
	quiz, err := s.quizzes.ByID(ctx, quizID)
	if err != nil {
		return
	}
	n := domain.ResultNotification{
		To:               student.Email,
		Name:             student.Name,
		UniversityNumber: universityNumber,
		Score:            attempt.Score,
		Status:           string(attempt.Status),
		ViolationCount:   attempt.ViolationCount,
		Rank:             rank,
		QuizTitle:        quiz.Title,
	}
	go s.notifier.Send(context.WithoutCancel(ctx), n)
}

func (s *AttemptService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func stateOf(a domain.Attempt) AttemptState {
	status := a.Status
	if status == "" {
		status = domain.StatusInProgress
	}
	return AttemptState{ViolationCount: a.ViolationCount, Status: status}
}
