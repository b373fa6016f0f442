package ui

import (
	"sort"
	"strings"
)

// maxSuggestionDistance is the largest edit distance still offered as a suggestion
const maxSuggestionDistance = 3

// Suggest returns up to limit candidates close to target, closest first. Matching is
// case-insensitive; ties keep candidate order.
func Suggest(target string, candidates []string, limit int) []string {
	type match struct {
		value    string
		distance int
	}
	lower := strings.ToLower(target)
	var matches []match
	for _, c := range candidates {
		if d := editDistance(lower, strings.ToLower(c)); d <= maxSuggestionDistance {
			matches = append(matches, match{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].distance < matches[j].distance })

	out := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// editDistance is the Levenshtein distance over runes, using two rows
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
