package ui

import (
	"sort"
	"strings"
)

// SuggestOptions tunes FindSimilar.
type SuggestOptions struct {
	// MaxDistance is the largest edit distance still suggested.
	MaxDistance int
	Limit       int
}

// FindSimilar returns up to opts.Limit candidates within opts.MaxDistance
// edits of target, closest first. Comparison ignores case.
//
//	FindSimilar("./greter", []string{"./greeter", "./clock"}, nil) // ["./greeter"]
func FindSimilar(target string, candidates []string, opts *SuggestOptions) []string {
	maxDistance, limit := 3, 3
	if opts != nil {
		if opts.MaxDistance > 0 {
			maxDistance = opts.MaxDistance
		}
		if opts.Limit > 0 {
			limit = opts.Limit
		}
	}

	type scored struct {
		value    string
		distance int
	}
	var matches []scored
	t := strings.ToLower(target)
	for _, c := range candidates {
		if d := editDistance(t, strings.ToLower(c)); d <= maxDistance {
			matches = append(matches, scored{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].distance < matches[j].distance })

	out := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// editDistance is the Levenshtein distance over runes, two rows at a time.
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
