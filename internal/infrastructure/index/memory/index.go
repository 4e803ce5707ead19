package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

// Factory assembles brute-force cosine indexes. Brute force is fine here:
// every index is scoped to a single uploaded document.
type Factory struct{}

func NewFactory() Factory { return Factory{} }

func (Factory) New(chunks []string, vectors [][]float32) (ports.VectorIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks/vectors length mismatch: %d/%d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil, errors.New("cannot build an empty index")
	}

	out := &Index{chunks: make([]domain.Chunk, 0, len(chunks))}
	for i, text := range chunks {
		if len(vectors[i]) == 0 {
			return nil, fmt.Errorf("chunk %d has an empty embedding", i)
		}
		out.chunks = append(out.chunks, domain.Chunk{
			ID:     i,
			Text:   text,
			Vector: l2Normalize(vectors[i]),
		})
	}
	return out, nil
}

// Index is an immutable per-session similarity index. Search is read-only and
// safe for concurrent use.
type Index struct {
	chunks []domain.Chunk
}

func (ix *Index) Size() int { return len(ix.chunks) }

func (ix *Index) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(ix.chunks))
	copy(out, ix.chunks)
	return out
}

func (ix *Index) Search(_ context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error) {
	if len(ix.chunks) == 0 {
		return nil, nil
	}
	if len(queryVector) == 0 {
		return nil, errors.New("empty query vector")
	}
	if k <= 0 {
		k = 10
	}

	query := l2Normalize(queryVector)
	scored := make([]domain.RetrievedChunk, 0, len(ix.chunks))
	for _, chunk := range ix.chunks {
		scored = append(scored, domain.RetrievedChunk{
			ChunkID: chunk.ID,
			Text:    chunk.Text,
			Score:   dot(chunk.Vector, query),
		})
	}

	// Stable sort keeps document order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
