package textutil

import "strings"

// Metric scores the similarity of two normalized strings in [0, 1].
// Implementations must be symmetric and return 1 for identical inputs.
type Metric interface {
	Similarity(a, b string) float64
}

// MetricFunc adapts a plain function to the Metric interface.
type MetricFunc func(a, b string) float64

func (f MetricFunc) Similarity(a, b string) float64 { return f(a, b) }

// LevenshteinRatio scores two strings by normalized edit distance:
// 1 - distance/max(len). Empty-vs-empty scores 1; empty-vs-nonempty scores 0.
func LevenshteinRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// TokenOverlap scores two strings by the Jaccard overlap of their word sets.
func TokenOverlap(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}
	var shared int
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// MetricByName resolves a configured metric name. Unknown names fall back to
// the Levenshtein ratio.
func MetricByName(name string) Metric {
	switch name {
	case "token_overlap":
		return MetricFunc(TokenOverlap)
	default:
		return MetricFunc(LevenshteinRatio)
	}
}

// levenshtein computes edit distance with a two-row rolling buffer.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
