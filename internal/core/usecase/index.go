package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

// IndexBuilder turns normalized document text into a queryable vector index.
// An index is built exactly once per session and never updated afterwards.
type IndexBuilder struct {
	chunker  ports.Chunker
	embedder ports.Embedder
	factory  ports.IndexFactory
}

func NewIndexBuilder(chunker ports.Chunker, embedder ports.Embedder, factory ports.IndexFactory) *IndexBuilder {
	return &IndexBuilder{
		chunker:  chunker,
		embedder: embedder,
		factory:  factory,
	}
}

func (b *IndexBuilder) Build(ctx context.Context, text string) (ports.VectorIndex, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrIndexBuild, "build index", errors.New("document has no indexable content"))
	}

	chunks, err := b.chunker.Split(ctx, text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexBuild, "split document", err)
	}
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrIndexBuild, "split document", errors.New("chunking produced zero chunks"))
	}

	vectors, err := b.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexBuild, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrIndexBuild,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	index, err := b.factory.New(chunks, vectors)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexBuild, "assemble index", err)
	}
	return index, nil
}
