package multiformat

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"docchat/internal/core/domain"
)

// extractDOCX reads word/document.xml from the docx archive and collects the
// run text, one line per paragraph.
func (e *Extractor) extractDOCX(filePath string) (string, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx", err)
	}
	defer archive.Close()

	var document io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return "", domain.WrapError(domain.ErrExtraction, "open docx document part", err)
			}
			break
		}
	}
	if document == nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx", errors.New("word/document.xml not found"))
	}
	defer document.Close()

	text, err := collectDocxText(document)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "parse docx xml", err)
	}
	return text, nil
}

func collectDocxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		out       strings.Builder
		paragraph strings.Builder
		inText    bool
	)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(paragraph.String()); line != "" {
					out.WriteString(line)
					out.WriteString("\n")
				}
				paragraph.Reset()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}
	return out.String(), nil
}
