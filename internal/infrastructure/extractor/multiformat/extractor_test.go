package multiformat

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docchat/internal/core/domain"
)

type ocrStub struct {
	text string
	err  error
	got  []byte
}

func (o *ocrStub) ExtractText(_ context.Context, image []byte) (string, error) {
	o.got = image
	return o.text, o.err
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractTXT(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", []byte("hello world\nsecond line"))

	got, err := New(&ocrStub{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello world\nsecond line" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video.mp4", []byte("binary"))

	_, err := New(&ocrStub{}).Extract(context.Background(), path)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New(&ocrStub{}).Extract(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractImageDelegatesToOCR(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.png", []byte{0x89, 'P', 'N', 'G'})

	ocr := &ocrStub{text: "recognized text"}
	got, err := New(ocr).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "recognized text" {
		t.Fatalf("unexpected text %q", got)
	}
	if len(ocr.got) != 4 {
		t.Fatalf("ocr received %d bytes, want 4", len(ocr.got))
	}
}

func TestExtractImageOCRFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.jpg", []byte{0xff, 0xd8})

	_, err := New(&ocrStub{err: errors.New("model offline")}).Extract(context.Background(), path)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	writeDocx(t, path, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`)

	got, err := New(&ocrStub{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %q", len(lines), got)
	}
	if lines[0] != "First paragraph." || lines[1] != "Second paragraph." {
		t.Fatalf("unexpected paragraphs %q", lines)
	}
}

func TestExtractDOCXMissingDocumentPart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/other.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte("<x/>")); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = New(&ocrStub{}).Extract(context.Background(), path)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
