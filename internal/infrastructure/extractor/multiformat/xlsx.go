package multiformat

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"docchat/internal/core/domain"
)

// extractXLSX dumps every sheet row by row, cells joined with " | " so the
// tabular structure survives normalization.
func (e *Extractor) extractXLSX(filePath string) (string, error) {
	workbook, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open xlsx", err)
	}
	defer workbook.Close()

	var out strings.Builder
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "read xlsx rows", err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " | "))
			if line != "" {
				out.WriteString(line)
				out.WriteString("\n")
			}
		}
	}
	return out.String(), nil
}
