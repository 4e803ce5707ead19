package lexical

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"docchat/internal/core/domain"
)

// Reranker is a model-free precision pass used when no cross-encoder endpoint
// is configured. Candidates are rescored by a mix of their normalized vector
// score and lexical overlap with the query.
type Reranker struct{}

func New() Reranker { return Reranker{} }

func (Reranker) Rerank(_ context.Context, query string, candidates []domain.RetrievedChunk, topN int) ([]domain.RetrievedChunk, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}

	scored := make([]domain.RetrievedChunk, len(candidates))
	copy(scored, candidates)
	queryTokens := toTokenSet(query)

	minScore := scored[0].Score
	maxScore := scored[0].Score
	for _, candidate := range scored[1:] {
		if candidate.Score < minScore {
			minScore = candidate.Score
		}
		if candidate.Score > maxScore {
			maxScore = candidate.Score
		}
	}

	scoreRange := maxScore - minScore
	normalize := func(v float64) float64 {
		if scoreRange <= 0 {
			if v > 0 {
				return 1
			}
			return 0
		}
		return (v - minScore) / scoreRange
	}

	for i := range scored {
		overlap := tokenOverlap(queryTokens, toTokenSet(scored[i].Text))
		scored[i].Score = 0.60*normalize(scored[i].Score) + 0.40*overlap
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored[:topN], nil
}

func tokenOverlap(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 || len(chunk) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := chunk[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func toTokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{}, 16)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out[b.String()] = struct{}{}
			b.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}
