package match

import (
	"math"
	"strings"

	"migscan/internal/model"
)

// nameSimilarity blends token overlap with normalized edit distance so
// that both "patient_wf" vs "patient_pipeline" (shared token after noise
// stripping) and small spelling drifts score well.
func nameSimilarity(a, b string, noise []string) float64 {
	tokensA := nameTokens(a, noise)
	tokensB := nameTokens(b, noise)
	overlap := jaccard(tokensA, tokensB)
	canonA := strings.Join(model.SortedKeys(tokensA), "_")
	canonB := strings.Join(model.SortedKeys(tokensB), "_")
	edit := editSimilarity(canonA, canonB)
	if overlap > edit {
		return overlap
	}
	return edit
}

func nameTokens(name string, noise []string) map[string]bool {
	lower := strings.ToLower(name)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f == "" || isNoiseToken(f, noise) {
			continue
		}
		tokens[f] = true
	}
	return tokens
}

func isNoiseToken(token string, noise []string) bool {
	for _, n := range noise {
		if token == n {
			return true
		}
	}
	return false
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// editSimilarity is 1 minus the Levenshtein distance normalized by the
// longer string.
func editSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/float64(longer)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
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
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// TextDistance is the normalized, case-insensitive edit distance between
// two free-text fragments: 0 identical, 1 fully different.
func TextDistance(a, b string) float64 {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == lb {
		return 0
	}
	return 1 - editSimilarity(la, lb)
}

// componentSimilarity is the cosine similarity of the two processes'
// component-type histograms over the fixed type vocabulary.
func componentSimilarity(a, b model.Process) float64 {
	ha := typeHistogram(a)
	hb := typeHistogram(b)
	var dot, normA, normB float64
	for i := range ha {
		dot += ha[i] * hb[i]
		normA += ha[i] * ha[i]
		normB += hb[i] * hb[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func typeHistogram(p model.Process) []float64 {
	hist := make([]float64, len(model.ComponentTypes))
	for _, comp := range p.Components {
		for i, t := range model.ComponentTypes {
			if comp.Type == t {
				hist[i]++
				break
			}
		}
	}
	return hist
}

func keywordSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, k := range list {
		if trimmed := strings.ToLower(strings.TrimSpace(k)); trimmed != "" {
			set[trimmed] = true
		}
	}
	return set
}
