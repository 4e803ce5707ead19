package multiformat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/core/domain"
	"docchat/internal/core/ports"
)

// Extractor turns a stored file into raw text, dispatching on the file
// extension. Unsupported extensions are a hard error, never an empty result.
type Extractor struct {
	ocr ports.ImageOCR
}

func New(ocr ports.ImageOCR) *Extractor {
	return &Extractor{ocr: ocr}
}

func (e *Extractor) Extract(ctx context.Context, filePath string) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "stat file", err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".txt":
		return e.extractTXT(filePath)
	case ".pdf":
		return e.extractPDF(filePath)
	case ".docx":
		return e.extractDOCX(filePath)
	case ".xlsx":
		return e.extractXLSX(filePath)
	case ".db", ".sqlite":
		return e.extractSQLite(ctx, filePath)
	case ".jpg", ".jpeg", ".png":
		return e.extractImage(ctx, filePath)
	default:
		return "", domain.WrapError(
			domain.ErrUnsupportedFormat,
			"extract",
			fmt.Errorf("extension %q", filepath.Ext(filePath)),
		)
	}
}

func (e *Extractor) extractTXT(filePath string) (string, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read txt", err)
	}
	return string(raw), nil
}

func (e *Extractor) extractImage(ctx context.Context, filePath string) (string, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read image", err)
	}
	text, err := e.ocr.ExtractText(ctx, raw)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "ocr image", err)
	}
	return text, nil
}
