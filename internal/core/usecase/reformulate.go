package usecase

import (
	"context"
	"strings"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

const reformulateSystemPrompt = `Given a chat history and the latest user question, ` +
	`reformulate the question so it is standalone and fully understandable without the history. ` +
	`Do NOT answer it. Return only the rewritten question.`

// Reformulator rewrites a context-dependent follow-up question into a
// standalone query before retrieval. It uses the generation capability as a
// pure function: history is read, never mutated.
type Reformulator struct {
	generator ports.ChatGenerator
}

func NewReformulator(generator ports.ChatGenerator) *Reformulator {
	return &Reformulator{generator: generator}
}

func (r *Reformulator) Reformulate(ctx context.Context, question string, history []domain.Turn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	rewritten, err := r.generator.Generate(ctx, reformulateSystemPrompt, history, nil, question)
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "reformulate query", err)
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, nil
	}
	return rewritten, nil
}
