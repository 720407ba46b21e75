package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"proctor-quiz-service/internal/domain"
)

func TestCreateKeepsExistingAttempt(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	first := domain.Attempt{QuizID: "q1", UniversityNumber: "U100", Status: domain.StatusInProgress}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.AddViolation(ctx, "q1", "U100", "noise", "2024-03-01T10:00:00Z"); err != nil {
		t.Fatalf("violation: %v", err)
	}

	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("second create: %v", err)
	}
	got, err := store.Get(ctx, "q1", "U100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ViolationCount != 1 {
		t.Fatalf("expected second create to keep existing state, got %+v", got)
	}
}

func TestAddViolationEscalates(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	if err := store.Create(ctx, domain.Attempt{QuizID: "q1", UniversityNumber: "U100", Status: domain.StatusInProgress}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.AddViolation(ctx, "q1", "U100", "noise", "2024-03-01T10:00:00Z")
	if err != nil {
		t.Fatalf("first violation: %v", err)
	}
	if got.ViolationCount != 1 || got.Status != domain.StatusInProgress || got.SubmittedAt != "" {
		t.Fatalf("unexpected state after first violation: %+v", got)
	}

	got, err = store.AddViolation(ctx, "q1", "U100", "fullscreen_exit", "2024-03-01T10:05:00Z")
	if err != nil {
		t.Fatalf("second violation: %v", err)
	}
	if got.ViolationCount != 2 || got.Status != domain.StatusFailed || got.SubmittedAt != "2024-03-01T10:05:00Z" {
		t.Fatalf("expected escalation on second violation, got %+v", got)
	}
	if len(got.Violations) != 2 || got.Violations[1] != "fullscreen_exit" {
		t.Fatalf("expected violation tags recorded, got %v", got.Violations)
	}
}

func TestAddViolationRejectsMissingOrTerminal(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if _, err := store.AddViolation(ctx, "q1", "U100", "noise", ""); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found for missing attempt, got %v", err)
	}

	if err := store.Create(ctx, domain.Attempt{QuizID: "q1", UniversityNumber: "U100", Status: domain.StatusPassed, SubmittedAt: "2024-03-01T10:00:00Z"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.AddViolation(ctx, "q1", "U100", "noise", ""); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected not found for terminal attempt, got %v", err)
	}
}

func TestConcurrentViolationsCountOnce(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	if err := store.Create(ctx, domain.Attempt{QuizID: "q1", UniversityNumber: "U100", Status: domain.StatusInProgress}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	applied := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AddViolation(ctx, "q1", "U100", "noise", "2024-03-01T10:00:00Z"); err == nil {
				applied <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(applied)

	got, err := store.Get(ctx, "q1", "U100")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// once the attempt fails, the remaining reports must be rejected
	if got.Status != domain.StatusFailed || got.ViolationCount != 2 {
		t.Fatalf("expected exactly two counted violations, got %+v", got)
	}
	if n := len(applied); n != 2 {
		t.Fatalf("expected two applied reports, got %d", n)
	}
}

func TestListTerminalFiltersLiveAttempts(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	seed := []domain.Attempt{
		{QuizID: "q1", UniversityNumber: "U100", Status: domain.StatusPassed},
		{QuizID: "q1", UniversityNumber: "U200", Status: domain.StatusInProgress},
		{QuizID: "q2", UniversityNumber: "U300", Status: domain.StatusFailed},
	}
	for _, a := range seed {
		if err := store.Upsert(ctx, a); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	all, err := store.ListByQuiz(ctx, "q1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both q1 attempts, got %d", len(all))
	}

	terminal, err := store.ListTerminal(ctx, "q1")
	if err != nil {
		t.Fatalf("list terminal: %v", err)
	}
	if len(terminal) != 1 || terminal[0].UniversityNumber != "U100" {
		t.Fatalf("expected only the finished q1 attempt, got %+v", terminal)
	}
}
