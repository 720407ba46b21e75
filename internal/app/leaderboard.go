package app

import (
	"sort"
	"time"

	"proctor-quiz-service/internal/domain"
)

// sentinelTimeTaken sorts attempts with unparsable timestamps last instead
// of failing the whole leaderboard.
const sentinelTimeTaken = 99999

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999", // ISO without zone, as browsers often send
	"2006-01-02T15:04:05",
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timeTaken computes submitted minus started in whole seconds, or the sentinel
// when either timestamp is unparsable.
func timeTaken(a domain.Attempt) int {
	started, ok := parseTimestamp(a.StartedAt)
	if !ok {
		return sentinelTimeTaken
	}
	submitted, ok := parseTimestamp(a.SubmittedAt)
	if !ok {
		return sentinelTimeTaken
	}
	return int(submitted.Sub(started) / time.Second)
}

// betterThan is the single ordering rule shared by the full leaderboard and
// the per-student rank query: score descending, then time ascending, then
// university number as a deterministic final key so the two can never
// disagree.
func betterThan(a, b domain.Attempt, timeA, timeB int) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if timeA != timeB {
		return timeA < timeB
	}
	return a.UniversityNumber < b.UniversityNumber
}

// BuildLeaderboard orders terminal attempts and assigns 1-based sequential
// ranks (no tie gaps). names resolves a university number to a display name.
func BuildLeaderboard(quizID string, attempts []domain.Attempt, names func(universityNumber string) string) domain.Leaderboard {
	times := make(map[string]int, len(attempts))
	for _, a := range attempts {
		times[a.UniversityNumber] = timeTaken(a)
	}

	ordered := make([]domain.Attempt, len(attempts))
	copy(ordered, attempts)
	sort.Slice(ordered, func(i, j int) bool {
		return betterThan(ordered[i], ordered[j], times[ordered[i].UniversityNumber], times[ordered[j].UniversityNumber])
	})

	rows := make([]domain.LeaderboardRow, 0, len(ordered))
	for i, a := range ordered {
		rows = append(rows, domain.LeaderboardRow{
			Name:             names(a.UniversityNumber),
			UniversityNumber: a.UniversityNumber,
			Score:            a.Score,
			Status:           a.Status,
			ViolationCount:   a.ViolationCount,
			TimeTakenSeconds: times[a.UniversityNumber],
			Rank:             i + 1,
		})
	}
	return domain.Leaderboard{QuizID: quizID, Rows: rows}
}

// RankAmong computes the 1-based position of the given attempt among the
// terminal attempts of its quiz, using the same ordering rule as
// BuildLeaderboard. The student's own stored attempt is skipped so the
// caller can pass the list with or without it.
func RankAmong(attempts []domain.Attempt, mine domain.Attempt) int {
	mineTime := timeTaken(mine)
	rank := 1
	for _, other := range attempts {
		if other.UniversityNumber == mine.UniversityNumber {
			continue
		}
		if betterThan(other, mine, timeTaken(other), mineTime) {
			rank++
		}
	}
	return rank
}
