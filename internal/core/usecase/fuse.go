package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

// Fuser merges user text with OCR-extracted image text into one retrieval
// query. The fused string feeds retrieval only; chat history records the
// original user text.
type Fuser struct {
	ocr ports.ImageOCR
}

func NewFuser(ocr ports.ImageOCR) *Fuser {
	return &Fuser{ocr: ocr}
}

func (f *Fuser) Fuse(ctx context.Context, text string, image []byte) (string, error) {
	combined := strings.TrimSpace(text)

	if len(image) > 0 && f.ocr != nil {
		imageText, err := f.ocr.ExtractText(ctx, image)
		if err != nil {
			// OCR failure degrades the turn to text-only, never fails it.
			slog.Warn("image_ocr_failed", "error", err)
		} else if trimmed := strings.TrimSpace(imageText); trimmed != "" {
			if combined == "" {
				combined = trimmed
			} else {
				combined = combined + "\n\nImage content: " + trimmed
			}
		}
	}

	if combined == "" {
		return "", domain.WrapError(domain.ErrEmptyInput, "fuse input", errors.New("no query or image content provided"))
	}
	return combined, nil
}
