package crossencoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"docchat/internal/core/domain"
	"docchat/internal/infrastructure/resilience"
)

// Client calls a text-embeddings-inference style /rerank endpoint. The model
// jointly encodes (query, passage) pairs, which captures query-specific
// relevance the independent chunk embeddings cannot.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (c *Client) Rerank(ctx context.Context, query string, candidates []domain.RetrievedChunk, topN int) ([]domain.RetrievedChunk, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}

	texts := make([]string, len(candidates))
	for i, candidate := range candidates {
		texts[i] = candidate.Text
	}

	var scores []rerankScore
	call := func(callCtx context.Context) error {
		return c.postRerank(callCtx, query, texts, &scores)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "crossencoder.rerank", call, nil)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	scored := make([]domain.RetrievedChunk, len(candidates))
	copy(scored, candidates)
	for _, s := range scores {
		if s.Index >= 0 && s.Index < len(scored) {
			scored[s.Index].Score = s.Score
		}
	}

	// Stable sort: ties keep the coarse retrieval order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored[:topN], nil
}

func (c *Client) postRerank(ctx context.Context, query string, texts []string, out *[]rerankScore) error {
	body, err := json.Marshal(map[string]any{
		"query": query,
		"texts": texts,
	})
	if err != nil {
		return fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("rerank status: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rerank response: %w", err)
	}
	return nil
}
