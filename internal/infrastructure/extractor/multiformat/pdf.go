package multiformat

import (
	"bytes"

	"github.com/ledongthuc/pdf"

	"docchat/internal/core/domain"
)

func (e *Extractor) extractPDF(filePath string) (string, error) {
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open pdf", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read pdf text", err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read pdf text", err)
	}
	return buf.String(), nil
}
