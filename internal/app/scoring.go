package app

import "strings"

// Score counts answers matching the key. The key maps question id to the
// correct option label; comparison is case-insensitive and unanswered
// questions simply do not match. Pure function of its inputs.
func Score(answers, key map[string]string) int {
	correct := 0
	for questionID, correctLabel := range key {
		if strings.EqualFold(answers[questionID], correctLabel) {
			correct++
		}
	}
	return correct
}

// Passes applies the pass policy: at least half of the questions correct
// (the exact .5 boundary passes) and no more than one violation. The
// integer form 2*score >= total is equivalent to score >= total*0.5
// without float drift.
func Passes(score, total, violationCount int) bool {
	return 2*score >= total && violationCount <= 1
}
