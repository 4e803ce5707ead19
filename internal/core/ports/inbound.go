package ports

import (
	"context"

	"docchat/internal/core/domain"
)

// ConversationService is the inbound contract for session lifecycle and chat.
type ConversationService interface {
	CreateSession(ctx context.Context, rawText string) (*domain.Session, error)
	GetSession(sessionID string) (*domain.Session, error)
	Converse(ctx context.Context, sessionID string, query domain.Query) (*domain.ChatResult, error)
}
