package chunking

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"docchat/internal/core/ports"
)

const defaultBreakpointPercentile = 95.0

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// SemanticSplitter cuts text into coherent chunks instead of fixed windows.
// Consecutive sentence units are embedded and a boundary is placed wherever
// the cosine distance between neighbours exceeds a percentile of the observed
// distance distribution, so the threshold adapts to the document itself.
type SemanticSplitter struct {
	embedder   ports.Embedder
	percentile float64
}

func NewSemanticSplitter(embedder ports.Embedder, breakpointPercentile float64) *SemanticSplitter {
	if breakpointPercentile <= 0 || breakpointPercentile >= 100 {
		breakpointPercentile = defaultBreakpointPercentile
	}
	return &SemanticSplitter{
		embedder:   embedder,
		percentile: breakpointPercentile,
	}
}

func (s *SemanticSplitter) Split(ctx context.Context, text string) ([]string, error) {
	units := splitUnits(text)
	if len(units) == 0 {
		return nil, nil
	}
	if len(units) == 1 {
		return units, nil
	}

	vectors, err := s.embedder.Embed(ctx, units)
	if err != nil {
		return nil, fmt.Errorf("embed sentence units: %w", err)
	}
	if len(vectors) != len(units) {
		return nil, fmt.Errorf("unit/vector mismatch: %d/%d", len(vectors), len(units))
	}

	distances := make([]float64, len(units)-1)
	for i := range distances {
		distances[i] = 1 - cosineSimilarity(vectors[i], vectors[i+1])
	}
	threshold := percentileOf(distances, s.percentile)

	chunks := make([]string, 0, 4)
	current := []string{units[0]}
	for i := 1; i < len(units); i++ {
		if distances[i-1] > threshold {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, units[i])
	}
	chunks = append(chunks, strings.Join(current, " "))
	return chunks, nil
}

// splitUnits breaks normalized text into sentence units, line by line. Lines
// without sentence punctuation become units of their own, which keeps tabular
// dumps and OCR output retrievable.
func splitUnits(text string) []string {
	units := make([]string, 0, 16)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sentences := sentencePattern.FindAllString(line, -1)
		if len(sentences) == 0 {
			units = append(units, line)
			continue
		}
		for _, sentence := range sentences {
			if sentence = strings.TrimSpace(sentence); sentence != "" {
				units = append(units, sentence)
			}
		}
		// Keep a trailing fragment without closing punctuation.
		if tail := strings.TrimSpace(trailingFragment(line, sentences)); tail != "" {
			units = append(units, tail)
		}
	}
	return units
}

func trailingFragment(line string, sentences []string) string {
	idx := 0
	for _, sentence := range sentences {
		pos := strings.Index(line[idx:], sentence)
		if pos < 0 {
			return ""
		}
		idx += pos + len(sentence)
	}
	return line[idx:]
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func percentileOf(values []float64, percentile float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 0 {
		return 0
	}
	rank := percentile / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
