package app

import (
	"sync"

	"proctor-quiz-service/internal/domain"
)

// LeaderboardFeed fans fresh leaderboards out to websocket subscribers.
// Publishing never blocks: a slow subscriber has its stale snapshot dropped
// in favor of the newest one.
type LeaderboardFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{subs: make(map[string]map[chan domain.Leaderboard]struct{})}
}

// Subscribe registers for updates on one quiz. The caller must invoke the
// returned cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe(quizID string) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	if f.subs[quizID] == nil {
		f.subs[quizID] = make(map[chan domain.Leaderboard]struct{})
	}
	f.subs[quizID][ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if set, ok := f.subs[quizID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(f.subs, quizID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the leaderboard to every subscriber of its quiz.
func (f *LeaderboardFeed) Publish(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[lb.QuizID] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
