package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"docchat/internal/core/domain"
)

func historyOf(contents ...string) []domain.Turn {
	out := make([]domain.Turn, 0, len(contents))
	role := domain.RoleAssistant
	for _, content := range contents {
		out = append(out, domain.Turn{Role: role, Content: content, CreatedAt: time.Now().UTC()})
		if role == domain.RoleAssistant {
			role = domain.RoleUser
		} else {
			role = domain.RoleAssistant
		}
	}
	return out
}

func TestReformulateReturnsQuestionUnchangedWithoutHistory(t *testing.T) {
	gen := &generatorFake{answer: "should not be used"}
	r := NewReformulator(gen)

	got, err := r.Reformulate(context.Background(), "what is this?", nil)
	if err != nil {
		t.Fatalf("Reformulate() error = %v", err)
	}
	if got != "what is this?" {
		t.Fatalf("expected pass-through, got %q", got)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called without history")
	}
}

func TestReformulateUsesHistory(t *testing.T) {
	gen := &generatorFake{answer: "what does page 3 of the uploaded document say?"}
	r := NewReformulator(gen)
	history := historyOf("greeting", "tell me about the invoice", "it is invoice 4471")

	got, err := r.Reformulate(context.Background(), "what about page 3?", history)
	if err != nil {
		t.Fatalf("Reformulate() error = %v", err)
	}
	if got != "what does page 3 of the uploaded document say?" {
		t.Fatalf("unexpected reformulation: %q", got)
	}
	if len(gen.lastHistory) != 3 {
		t.Fatalf("expected full history passed to generator, got %d turns", len(gen.lastHistory))
	}
	if len(gen.lastContext) != 0 {
		t.Fatalf("reformulation must not receive context passages")
	}
}

func TestReformulateWrapsGenerationError(t *testing.T) {
	r := NewReformulator(&generatorFake{err: errors.New("backend down")})

	_, err := r.Reformulate(context.Background(), "follow-up?", historyOf("a", "b"))
	if err == nil || !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestReformulateFallsBackOnEmptyRewrite(t *testing.T) {
	r := NewReformulator(&generatorFake{answer: "   "})

	got, err := r.Reformulate(context.Background(), "original question", historyOf("a"))
	if err != nil {
		t.Fatalf("Reformulate() error = %v", err)
	}
	if got != "original question" {
		t.Fatalf("expected fallback to original question, got %q", got)
	}
}
