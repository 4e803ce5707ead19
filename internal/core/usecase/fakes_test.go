package usecase

import (
	"context"
	"strings"
	"sync"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

type chunkerFake struct {
	chunks []string
	err    error
}

func (f *chunkerFake) Split(_ context.Context, text string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.chunks != nil {
		return f.chunks, nil
	}
	return strings.Split(text, "\n"), nil
}

type embedderFake struct {
	embedErr error
	queryErr error
	queryVec []float32
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i + 1), 1}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryVec != nil {
		return f.queryVec, nil
	}
	return []float32{1, 1}, nil
}

type mismatchEmbedderFake struct{ embedderFake }

func (f *mismatchEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)+1), nil
}

type indexFake struct {
	chunks    []domain.Chunk
	results   []domain.RetrievedChunk
	searchErr error
	lastK     int
}

func (f *indexFake) Search(_ context.Context, _ []float32, k int) ([]domain.RetrievedChunk, error) {
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k > len(f.results) {
		k = len(f.results)
	}
	return f.results[:k], nil
}

func (f *indexFake) Size() int              { return len(f.chunks) }
func (f *indexFake) Chunks() []domain.Chunk { return f.chunks }

type factoryFake struct {
	err error
}

func (f *factoryFake) New(chunks []string, vectors [][]float32) (ports.VectorIndex, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &indexFake{}
	for i, text := range chunks {
		out.chunks = append(out.chunks, domain.Chunk{ID: i, Text: text, Vector: vectors[i]})
		out.results = append(out.results, domain.RetrievedChunk{ChunkID: i, Text: text, Score: 1})
	}
	return out, nil
}

type rerankerFake struct {
	err  error
	keep int
}

func (f *rerankerFake) Rerank(_ context.Context, _ string, candidates []domain.RetrievedChunk, topN int) ([]domain.RetrievedChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := topN
	if f.keep > 0 && f.keep < n {
		n = f.keep
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n], nil
}

type generatorFake struct {
	answer string
	err    error
	calls  int

	lastSystem  string
	lastHistory []domain.Turn
	lastContext []domain.RetrievedChunk
	lastQuery   string
}

func (f *generatorFake) Generate(_ context.Context, system string, history []domain.Turn, contextPassages []domain.RetrievedChunk, userQuery string) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastHistory = history
	f.lastContext = contextPassages
	f.lastQuery = userQuery
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// publisherFake records lifecycle events. When evicting is set, each eviction
// publish signals on it and then blocks until release is closed.
type publisherFake struct {
	created []string
	evicted []string

	evicting chan struct{}
	release  chan struct{}
}

func (f *publisherFake) PublishSessionCreated(_ context.Context, sessionID string) error {
	f.created = append(f.created, sessionID)
	return nil
}

func (f *publisherFake) PublishSessionEvicted(_ context.Context, sessionID string) error {
	if f.evicting != nil {
		f.evicting <- struct{}{}
		<-f.release
	}
	f.evicted = append(f.evicted, sessionID)
	return nil
}

// stallingGeneratorFake blocks its first Generate call until release is
// closed; later calls answer immediately.
type stallingGeneratorFake struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *stallingGeneratorFake) Generate(context.Context, string, []domain.Turn, []domain.RetrievedChunk, string) (string, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		close(f.started)
		<-f.release
	}
	return "late answer", nil
}

type ocrFake struct {
	text string
	err  error
}

func (f *ocrFake) ExtractText(context.Context, []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newTestIndexBuilder() *IndexBuilder {
	return NewIndexBuilder(&chunkerFake{}, &embedderFake{}, &factoryFake{})
}

func newTestManager(generator ports.ChatGenerator, reranker ports.Reranker) *SessionManager {
	return NewSessionManager(
		newTestIndexBuilder(),
		NewFuser(&ocrFake{}),
		NewReformulator(generator),
		NewRetriever(&embedderFake{}, reranker, 10, 3),
		generator,
		SessionLimits{},
	)
}
