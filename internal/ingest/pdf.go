package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	maxPDFPages       = 100
	maxExtractedBytes = 1024 * 1024
)

// PDFDocument is the cleaned text extracted from an uploaded PDF
type PDFDocument struct {
	PageCount int
	WordCount int
	Text      string
}

// ExtractPDF parses a PDF and returns its cleaned plain text. Pages that
// fail individual extraction are skipped rather than failing the document.
func ExtractPDF(data []byte) (*PDFDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	totalPages := reader.NumPage()
	if totalPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	if totalPages > maxPDFPages {
		return nil, fmt.Errorf("PDF has too many pages (%d), max allowed is %d", totalPages, maxPDFPages)
	}

	var builder strings.Builder
	wordCount := 0

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		cleaned := cleanText(text)
		if cleaned == "" {
			continue
		}
		builder.WriteString(cleaned)
		builder.WriteString("\n\n")
		wordCount += len(strings.Fields(cleaned))

		if builder.Len() > maxExtractedBytes {
			break
		}
	}

	extracted := strings.TrimSpace(builder.String())
	if len(extracted) > maxExtractedBytes {
		extracted = extracted[:maxExtractedBytes]
	}
	if extracted == "" {
		return nil, fmt.Errorf("no text extracted from PDF")
	}

	return &PDFDocument{
		PageCount: totalPages,
		WordCount: wordCount,
		Text:      extracted,
	}, nil
}

// cleanText strips null bytes and collapses runs of whitespace, preserving
// newlines as paragraph hints.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	var result strings.Builder
	lastWasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if r == '\n' {
				result.WriteRune('\n')
				lastWasSpace = false
			} else if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(result.String())
}
