package experience

import (
	"sort"
	"strings"
)

// Rank orders candidates by text relevance when q.Text is
// set (multi-substring count, length >= 2, case-insensitive; single-char
// text is substring-contains only), falling back to q.OrderBy otherwise.
// maxRelevanceTextLength bounds how much of q.Text and each candidate's
// content is scanned, so neither input can make ranking unbounded.
// Shared by experience/inmem and experience/mongo so both Store
// implementations rank identically.
func Rank(candidates []Experience, q Query, maxRelevanceTextLength int) []Experience {
	text := truncateRunes(q.Text, maxRelevanceTextLength)
	if text == "" {
		out := append([]Experience{}, candidates...)
		sort.SliceStable(out, func(i, j int) bool {
			return orderByLess(out[i], out[j], q.OrderBy)
		})
		return out
	}

	type scored struct {
		exp Experience
		score int
	}
	out := make([]scored, len(candidates))
	for i, exp := range candidates {
		content := truncateRunes(exp.Title+"\n"+exp.Content, maxRelevanceTextLength)
		out[i] = scored{exp: exp, score: relevanceScore(text, content)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return orderByLess(out[i].exp, out[j].exp, q.OrderBy)
	})

	ranked := make([]Experience, len(out))
	for i, s := range out {
		ranked[i] = s.exp
	}
	return ranked
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}

// relevanceScore counts occurrences of every substring of text with
// length >= 2 inside content, case-insensitively. Single-character text
// falls back to substring-contains only.
func relevanceScore(text, content string) int {
	lowerText := strings.ToLower(text)
	lowerContent := strings.ToLower(content)

	runes := []rune(lowerText)
	if len(runes) < 2 {
		if strings.Contains(lowerContent, lowerText) {
			return 1
		}
		return 0
	}

	score := 0
	for length := 2; length <= len(runes); length++ {
		for start := 0; start+length <= len(runes); start++ {
			sub := string(runes[start: start+length])
			score += strings.Count(lowerContent, sub)
		}
	}
	return score
}

func orderByLess(a, b Experience, orderBy OrderBy) bool {
	switch orderBy {
	case OrderUpdatedAt:
		return a.UpdatedAt.After(b.UpdatedAt)
	case OrderScore:
		return a.Metadata.Confidence > b.Metadata.Confidence
	default:
		return a.CreatedAt.After(b.CreatedAt)
	}
}
