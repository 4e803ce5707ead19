package domain

// Chunk is a coherent span of document text plus its embedding, the unit of
// retrieval. Chunk ids are stable within one session's index only.
type Chunk struct {
	ID     int       `json:"id"`
	Text   string    `json:"text"`
	Vector []float32 `json:"-"`
}

// RetrievedChunk is a chunk returned by index search or reranking.
type RetrievedChunk struct {
	ChunkID int     `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}
