package ports

import (
	"context"
	"io"

	"docchat/internal/core/domain"
)

// TextExtractor produces raw text from a stored file, dispatching by extension.
type TextExtractor interface {
	Extract(ctx context.Context, filePath string) (string, error)
}

// ImageOCR extracts readable text from raw image bytes.
type ImageOCR interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Embedder builds dense vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits normalized text into semantically coherent chunks. It may
// call out to an embedding backend, hence the context.
type Chunker interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// VectorIndex is a session-scoped similarity index. Immutable once built;
// Search is safe for concurrent use.
type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error)
	Size() int
	Chunks() []domain.Chunk
}

// IndexFactory assembles a VectorIndex from parallel chunk/vector slices.
type IndexFactory interface {
	New(chunks []string, vectors [][]float32) (VectorIndex, error)
}

// Reranker re-orders coarse retrieval candidates by query-specific relevance
// and keeps the top N.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.RetrievedChunk, topN int) ([]domain.RetrievedChunk, error)
}

// ChatGenerator is the answer-generation capability: a conversational model
// given system instructions, prior history, retrieved context passages and the
// current user query.
type ChatGenerator interface {
	Generate(ctx context.Context, system string, history []domain.Turn, contextPassages []domain.RetrievedChunk, userQuery string) (string, error)
}

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// SnapshotStore persists a write-only dump of a freshly built index. Best
// effort: failures are logged, never surfaced to the caller.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, sessionID string, chunks []domain.Chunk) error
}

// EventPublisher emits best-effort session lifecycle events.
type EventPublisher interface {
	PublishSessionCreated(ctx context.Context, sessionID string) error
	PublishSessionEvicted(ctx context.Context, sessionID string) error
}

// TurnArchive persists completed turns out-of-process. Write-only and best
// effort; the in-memory history remains the source of truth.
type TurnArchive interface {
	ArchiveTurns(ctx context.Context, sessionID string, turns []domain.Turn) error
}
