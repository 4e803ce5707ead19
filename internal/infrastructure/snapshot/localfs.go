package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docchat/internal/core/domain"
)

// Store writes one JSON snapshot per session so an operator can inspect what
// a session's index was built from. Write-only: nothing in the service reads
// these files back.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/snapshots"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

type snapshotFile struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Chunks    []chunk   `json:"chunks"`
}

type chunk struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func (s *Store) SaveSnapshot(_ context.Context, sessionID string, chunks []domain.Chunk) error {
	file := snapshotFile{
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		Chunks:    make([]chunk, 0, len(chunks)),
	}
	for _, c := range chunks {
		file.Chunks = append(file.Chunks, chunk{ID: c.ID, Text: c.Text})
	}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	path := filepath.Join(s.basePath, filepath.Base(sessionID)+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
