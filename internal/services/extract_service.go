package services

import (
	"bytes"
	"fmt"
	"strings"

	"doc-compliance-checker/internal/models"
	"doc-compliance-checker/internal/utils"

	pdfx "github.com/ledongthuc/pdf"
)

// Supported upload extensions
const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
)

// IsSupportedExt reports whether documents with this extension can be checked
func IsSupportedExt(ext string) bool {
	switch utils.CanonicalExt(ext) {
	case ExtPDF, ExtDOCX:
		return true
	}
	return false
}

// ExtractText converts an uploaded document into plain text.
// ext is the declared extension ("pdf", ".DOCX", ...).
func ExtractText(data []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)

	switch utils.CanonicalExt(ext) {
	case ExtPDF:
		text, err = extractPDF(data)
	case ExtDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrExtractionFailed, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", models.ErrEmptyDocument
	}
	return text, nil
}

// extractPDF concatenates the plain text of every page in document order
func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdfx.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var out strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		out.WriteString(txt)
	}
	return out.String(), nil
}

// extractDOCX joins paragraph texts with newlines
func extractDOCX(data []byte) (string, error) {
	paragraphs, err := readDocxParagraphs(data)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}
