package usecase

import (
	"context"
	"errors"
	"testing"

	"docchat/internal/core/domain"
)

func TestFuseTextOnly(t *testing.T) {
	f := NewFuser(&ocrFake{})

	got, err := f.Fuse(context.Background(), "  what is this?  ", nil)
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if got != "what is this?" {
		t.Fatalf("unexpected fused query: %q", got)
	}
}

func TestFuseAppendsImageContent(t *testing.T) {
	f := NewFuser(&ocrFake{text: " invoice total 4471 "})

	got, err := f.Fuse(context.Background(), "what does this say?", []byte{0x1})
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	want := "what does this say?\n\nImage content: invoice total 4471"
	if got != want {
		t.Fatalf("fused query = %q, want %q", got, want)
	}
}

func TestFuseImageOnlyUsesImageText(t *testing.T) {
	f := NewFuser(&ocrFake{text: "invoice total 4471"})

	got, err := f.Fuse(context.Background(), "", []byte{0x1})
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if got != "invoice total 4471" {
		t.Fatalf("unexpected fused query: %q", got)
	}
}

func TestFuseDegradesGracefullyOnOCRFailure(t *testing.T) {
	f := NewFuser(&ocrFake{err: errors.New("ocr down")})

	got, err := f.Fuse(context.Background(), "question", []byte{0x1})
	if err != nil {
		t.Fatalf("Fuse() error = %v", err)
	}
	if got != "question" {
		t.Fatalf("expected text-only fallback, got %q", got)
	}
}

func TestFuseEmptyEverythingFails(t *testing.T) {
	f := NewFuser(&ocrFake{text: "   "})

	_, err := f.Fuse(context.Background(), "  ", []byte{0x1})
	if err == nil || !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	_, err = f.Fuse(context.Background(), "", nil)
	if err == nil || !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}
