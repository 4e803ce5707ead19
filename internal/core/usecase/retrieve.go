package usecase

import (
	"context"
	"fmt"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

const (
	defaultRetrievalTopK = 10
	defaultRerankTopN    = 3
)

// Retriever runs the two-stage retrieval pipeline: recall-oriented KNN search
// over the session index, then a precision rerank of the candidate set.
type Retriever struct {
	embedder ports.Embedder
	reranker ports.Reranker
	topK     int
	topN     int
}

func NewRetriever(embedder ports.Embedder, reranker ports.Reranker, topK, topN int) *Retriever {
	if topK <= 0 {
		topK = defaultRetrievalTopK
	}
	if topN <= 0 {
		topN = defaultRerankTopN
	}
	return &Retriever{
		embedder: embedder,
		reranker: reranker,
		topK:     topK,
		topN:     topN,
	}
}

// Retrieve returns the top-N chunks most relevant to the standalone query. An
// empty index yields an empty result, not an error; downstream generation has
// to cope with missing context.
func (r *Retriever) Retrieve(ctx context.Context, query string, index ports.VectorIndex) ([]domain.RetrievedChunk, error) {
	if index == nil || index.Size() == 0 {
		return nil, nil
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := index.Search(ctx, queryVector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	reranked, err := r.reranker.Rerank(ctx, query, candidates, r.topN)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}
	return reranked, nil
}
