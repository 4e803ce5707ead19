package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single role-tagged message in a session's chat history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds one conversation and is the unit of isolation: exactly one
// document's index and one chat history belong to it.
type Session struct {
	ID         string    `json:"session_id"`
	History    []Turn    `json:"chat_history"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Query is a single conversational request against a session. Image carries
// raw bytes of an optional attached image; it is never persisted.
type Query struct {
	Text  string
	Image []byte
}

// ChatResult is the outcome of one successful conversational turn.
type ChatResult struct {
	Answer        string `json:"response"`
	History       []Turn `json:"chat_history"`
	ContextChunks int    `json:"-"`
}
