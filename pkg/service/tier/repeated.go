package tier

import "strings"

// failurePhrases explicitly signal the user already tried and failed.
var failurePhrases = []string{
	"still fails", "still failing", "still not working", "doesn't work",
	"tried again", "tried multiple times", "3 times", "three times",
	"same error", "persists", "not resolved",
}

const (
	recentWindow     = 3
	overlapThreshold = 0.6
)

// RepeatedFailure reports whether the current message retries an issue from
// earlier in the conversation: either it carries an explicit failure phrase,
// or its word set overlaps one of the last 3 user messages beyond the
// Jaccard threshold.
func RepeatedFailure(current string, recentUserMessages []string) bool {
	if len(recentUserMessages) == 0 {
		return false
	}

	lower := strings.ToLower(current)
	if matchAny(lower, failurePhrases) {
		return true
	}

	recent := recentUserMessages
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	currentWords := wordSet(lower)
	if len(currentWords) == 0 {
		return false
	}

	for _, msg := range recent {
		previousWords := wordSet(strings.ToLower(msg))
		if len(previousWords) == 0 {
			continue
		}
		if jaccard(currentWords, previousWords) > overlapThreshold {
			return true
		}
	}

	return false
}

func wordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
