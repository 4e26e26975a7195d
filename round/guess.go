package round

import "strings"

// IsCorrect is an exact, case-insensitive match after trimming.
func IsCorrect(guess, keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(keyword))
}

// IsClose reports a wrong guess within edit distance 1 of a keyword of at most
// shortLen characters, or within 2 of a longer one. An exact match is never close.
func IsClose(guess, keyword string, shortLen int) bool {
	g := []rune(strings.ToLower(strings.TrimSpace(guess)))
	k := []rune(strings.ToLower(strings.TrimSpace(keyword)))
	if len(g) == 0 || string(g) == string(k) {
		return false
	}

	limit := 2
	if len(k) <= shortLen {
		limit = 1
	}
	if abs(len(g)-len(k)) > limit {
		return false
	}
	return distance(g, k, limit) <= limit
}

// distance is Levenshtein distance that stops early once every cell exceeds limit.
func distance(a, b []rune, limit int) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			rowMin = min(rowMin, cur[j])
		}
		if rowMin > limit {
			return limit + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
