package ollama

import (
	"fmt"
	"strings"

	"docchat/internal/core/domain"
)

const ocrPrompt = `Extract all readable text from this image. ` +
	`Return only the text content, without commentary. ` +
	`If the image contains no readable text, return an empty response.`

func withContextBlock(system string, passages []domain.RetrievedChunk) string {
	if len(passages) == 0 {
		return system
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nContext:\n")
	for idx, passage := range passages {
		b.WriteString(fmt.Sprintf("[%d] score=%.3f\n%s\n\n", idx+1, passage.Score, passage.Text))
	}
	return strings.TrimRight(b.String(), "\n")
}
