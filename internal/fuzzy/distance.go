package fuzzy

import (
	"strings"
	"unicode"
)

// Normalize lower-cases s, collapses whitespace runs into a single space and
// trims the ends. Matching always runs on normalized runes.
func Normalize(s string) []rune {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		out = append(out, unicode.ToLower(r))
	}
	return out
}

// SubstringDistance returns the smallest edit distance between pattern and
// any substring of text (Sellers' algorithm). Insertions, deletions and
// substitutions each cost one. An empty pattern has distance zero.
func SubstringDistance(pattern, text []rune) int {
	m := len(pattern)
	if m == 0 {
		return 0
	}

	// col[i] is the distance of pattern[:i] against the best substring
	// ending at the current text position.
	col := make([]int, m+1)
	next := make([]int, m+1)
	for i := range col {
		col[i] = i
	}

	best := m
	for _, c := range text {
		next[0] = 0
		for i := 1; i <= m; i++ {
			cost := 1
			if pattern[i-1] == c {
				cost = 0
			}
			v := col[i-1] + cost
			if d := col[i] + 1; d < v {
				v = d
			}
			if d := next[i-1] + 1; d < v {
				v = d
			}
			next[i] = v
		}
		col, next = next, col
		if col[m] < best {
			best = col[m]
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

// Score returns the normalized distance of pattern against text in [0,1],
// where 0 means pattern occurs verbatim in text.
func Score(pattern, text []rune) float64 {
	if len(pattern) == 0 {
		return 1
	}
	d := SubstringDistance(pattern, text)
	s := float64(d) / float64(len(pattern))
	if s > 1 {
		return 1
	}
	return s
}

// Terms splits s into lower-cased letter/digit tokens, dropping duplicates
// while keeping first-seen order.
func Terms(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}
