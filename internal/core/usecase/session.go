package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

const answerSystemPrompt = `You are an assistant for question-answering tasks. ` +
	`Use the retrieved context passages to answer the question. ` +
	`If you don't know the answer, just say that you don't know. ` +
	`Keep the answer concise and use language relevant to the context.`

const defaultGreeting = "Hi! I've processed your document. How can I help you?"

// SessionLimits bounds the session registry. Sessions that sit idle past the
// TTL are evicted, and the oldest session is dropped when the cap is hit.
type SessionLimits struct {
	IdleTTL     time.Duration
	MaxSessions int
	Greeting    string
}

func (l SessionLimits) normalize() SessionLimits {
	out := l
	if out.IdleTTL <= 0 {
		out.IdleTTL = time.Hour
	}
	if out.MaxSessions <= 0 {
		out.MaxSessions = 1024
	}
	if strings.TrimSpace(out.Greeting) == "" {
		out.Greeting = defaultGreeting
	}
	return out
}

// sessionEntry pairs a session with its index behind a per-session mutex.
// Eviction detaches an entry from the registry without taking this mutex: a
// turn already in flight finishes against the detached entry and returns its
// result, but the appended turns are gone once the entry is unreachable.
type sessionEntry struct {
	mu      sync.Mutex
	session domain.Session
	index   ports.VectorIndex
}

// SessionManager owns the process-wide session registry. It is the sole
// mutator of chat history and the sole owner of each session's index.
type SessionManager struct {
	indexer      *IndexBuilder
	fuser        *Fuser
	reformulator *Reformulator
	retriever    *Retriever
	generator    ports.ChatGenerator

	// Optional best-effort collaborators; any of them may be nil.
	snapshots ports.SnapshotStore
	events    ports.EventPublisher
	archive   ports.TurnArchive

	limits SessionLimits

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewSessionManager(
	indexer *IndexBuilder,
	fuser *Fuser,
	reformulator *Reformulator,
	retriever *Retriever,
	generator ports.ChatGenerator,
	limits SessionLimits,
) *SessionManager {
	return &SessionManager{
		indexer:      indexer,
		fuser:        fuser,
		reformulator: reformulator,
		retriever:    retriever,
		generator:    generator,
		limits:       limits.normalize(),
		sessions:     make(map[string]*sessionEntry),
	}
}

// WithSnapshots attaches a write-only index snapshot sink.
func (m *SessionManager) WithSnapshots(snapshots ports.SnapshotStore) *SessionManager {
	m.snapshots = snapshots
	return m
}

// WithEvents attaches a lifecycle event publisher.
func (m *SessionManager) WithEvents(events ports.EventPublisher) *SessionManager {
	m.events = events
	return m
}

// WithArchive attaches a write-only turn archive.
func (m *SessionManager) WithArchive(archive ports.TurnArchive) *SessionManager {
	m.archive = archive
	return m
}

// CreateSession normalizes and indexes one document's raw text and registers a
// new session seeded with an assistant greeting. Nothing is stored when
// indexing fails.
func (m *SessionManager) CreateSession(ctx context.Context, rawText string) (*domain.Session, error) {
	text := NormalizeText(rawText)

	index, err := m.indexer.Build(ctx, text)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID: uuid.NewString(),
		History: []domain.Turn{
			{Role: domain.RoleAssistant, Content: m.limits.Greeting, CreatedAt: now},
		},
		CreatedAt:  now,
		LastActive: now,
	}

	m.mu.Lock()
	evictedID := ""
	if len(m.sessions) >= m.limits.MaxSessions {
		evictedID = m.evictOldestLocked()
	}
	m.sessions[session.ID] = &sessionEntry{session: session, index: index}
	m.mu.Unlock()

	if evictedID != "" {
		slog.Info("session_evicted", "session_id", evictedID, "reason", "capacity")
		m.publishEvicted(ctx, evictedID)
	}

	if m.snapshots != nil {
		if err := m.snapshots.SaveSnapshot(ctx, session.ID, index.Chunks()); err != nil {
			slog.Warn("index_snapshot_failed", "session_id", session.ID, "error", err)
		}
	}
	if m.events != nil {
		if err := m.events.PublishSessionCreated(ctx, session.ID); err != nil {
			slog.Warn("session_event_publish_failed", "session_id", session.ID, "error", err)
		}
	}

	out := cloneSession(session)
	return &out, nil
}

// GetSession returns a copy of the session's state.
func (m *SessionManager) GetSession(sessionID string) (*domain.Session, error) {
	entry, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	out := cloneSession(entry.session)
	entry.mu.Unlock()
	return &out, nil
}

// Converse runs one conversational turn: fuse input, reformulate against the
// current history, retrieve and rerank context, generate the answer. The
// user+assistant pair is appended atomically; on any failure the history is
// left untouched. Concurrent calls on the same session are serialized.
func (m *SessionManager) Converse(ctx context.Context, sessionID string, query domain.Query) (*domain.ChatResult, error) {
	entry, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	fused, err := m.fuser.Fuse(ctx, query.Text, query.Image)
	if err != nil {
		return nil, err
	}

	history := entry.session.History

	standalone, err := m.reformulator.Reformulate(ctx, fused, history)
	if err != nil {
		return nil, err
	}

	chunks, err := m.retriever.Retrieve(ctx, standalone, entry.index)
	if err != nil {
		return nil, err
	}

	answer, err := m.generator.Generate(ctx, answerSystemPrompt, history, chunks, standalone)
	if err != nil {
		return nil, domain.WrapError(domain.ErrGeneration, "generate answer", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, domain.WrapError(domain.ErrGeneration, "generate answer", errors.New("no response generated"))
	}

	// History records the original user text, not the fused retrieval query.
	userContent := strings.TrimSpace(query.Text)
	if userContent == "" {
		userContent = "Uploaded an image"
	}

	now := time.Now().UTC()
	userTurn := domain.Turn{Role: domain.RoleUser, Content: userContent, CreatedAt: now}
	assistantTurn := domain.Turn{Role: domain.RoleAssistant, Content: answer, CreatedAt: now}
	entry.session.History = append(entry.session.History, userTurn, assistantTurn)
	entry.session.LastActive = now

	if m.archive != nil {
		if err := m.archive.ArchiveTurns(ctx, sessionID, []domain.Turn{userTurn, assistantTurn}); err != nil {
			slog.Warn("turn_archive_failed", "session_id", sessionID, "error", err)
		}
	}

	return &domain.ChatResult{
		Answer:        answer,
		History:       cloneHistory(entry.session.History),
		ContextChunks: len(chunks),
	}, nil
}

// Count reports the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor evicts idle sessions until ctx is cancelled.
func (m *SessionManager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.evictExpired(ctx)
			}
		}
	}()
}

func (m *SessionManager) evictExpired(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.limits.IdleTTL)

	m.mu.Lock()
	expired := make([]string, 0)
	for id, entry := range m.sessions {
		if entry.session.LastActive.Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		slog.Info("session_evicted", "session_id", id, "reason", "idle_ttl")
		m.publishEvicted(ctx, id)
	}
}

// evictOldestLocked drops the least recently active session and returns its
// id. The caller holds m.mu and must publish the eviction event only after
// releasing it, so the registry never blocks on the event transport.
func (m *SessionManager) evictOldestLocked() string {
	oldestID := ""
	var oldest time.Time
	for id, entry := range m.sessions {
		if oldestID == "" || entry.session.LastActive.Before(oldest) {
			oldestID = id
			oldest = entry.session.LastActive
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
	}
	return oldestID
}

func (m *SessionManager) publishEvicted(ctx context.Context, sessionID string) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishSessionEvicted(ctx, sessionID); err != nil {
		slog.Warn("session_event_publish_failed", "session_id", sessionID, "error", err)
	}
}

func (m *SessionManager) lookup(sessionID string) (*sessionEntry, error) {
	m.mu.RLock()
	entry, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "lookup session", errors.New(sessionID))
	}
	return entry, nil
}

func cloneSession(s domain.Session) domain.Session {
	out := s
	out.History = cloneHistory(s.History)
	return out
}

func cloneHistory(history []domain.Turn) []domain.Turn {
	out := make([]domain.Turn, len(history))
	copy(out, history)
	return out
}
