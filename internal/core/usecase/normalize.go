package usecase

import "strings"

// NormalizeText cleans raw extracted text into indexable form: whitespace runs
// collapse to single spaces, every line is trimmed, empty lines are dropped
// and line order is preserved. Total and deterministic; empty in, empty out.
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}

	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cleaned = append(cleaned, strings.Join(fields, " "))
	}
	return strings.Join(cleaned, "\n")
}
