package dataset

import (
	"sort"
	"strings"
	"unicode"
)

// ============================================================================
// MATCHING — edit distance and suggestions over the vocabulary
// ============================================================================

// Compact lowercases s and drops everything but letters and digits,
// so "Coca-Cola " and "coca cola" compare equal.
func Compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Levenshtein returns the edit distance between two strings, by rune.
func Levenshtein(a, b string) int {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}

// Suggest returns up to n known values of dim that look like token,
// closest first. Values further than half the token length are not offered.
func (v Vocabulary) Suggest(dim Dimension, token string, n int) []string {
	key := Compact(token)
	if key == "" || n <= 0 {
		return nil
	}
	limit := max(2, len([]rune(key))/2)

	type scored struct {
		value string
		dist  int
	}
	var hits []scored
	for _, val := range v[dim] {
		c := Compact(val)
		d := Levenshtein(key, c)
		if strings.HasPrefix(c, key) || strings.HasPrefix(key, c) {
			d = min(d, 1)
		}
		if d <= limit {
			hits = append(hits, scored{val, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].value < hits[j].value
	})

	out := make([]string, 0, min(n, len(hits)))
	for _, h := range hits {
		if len(out) == n {
			break
		}
		out = append(out, h.value)
	}
	return out
}
