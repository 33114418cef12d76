// Package pdftext recovers plain text from PDF statements.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrNoText means the PDF yielded no readable text, typically a scanned or
// image-only statement.
var ErrNoText = errors.New("pdftext: no readable text in PDF")

// Extract pulls text out of PDF bytes, page by page, rows joined with
// newlines. Row-based extraction preserves statement line layout; when it
// produces garbage the plain-text reader is tried before giving up.
func Extract(data []byte) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdftext: reader crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdftext: open: %w", err)
	}
	if r.NumPage() == 0 {
		return "", ErrNoText
	}

	if text := extractByRow(r); readable(text) {
		return text, nil
	}
	if text := extractPlain(r); readable(text) {
		return text, nil
	}
	return "", ErrNoText
}

func extractByRow(r *pdf.Reader) string {
	var lines []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func extractPlain(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readable rejects output that is too short or mostly non-ASCII garbage,
// which identity-encoded fonts produce instead of an error.
func readable(text string) bool {
	if len(strings.TrimSpace(text)) <= 50 {
		return false
	}
	total, ok := 0, 0
	for _, r := range text {
		total++
		// Strict ASCII letters, not unicode.IsLetter: identity-encoded
		// fonts decode to accented garbage that IsLetter accepts.
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			unicode.IsSpace(r) || strings.ContainsRune(`.,-/:;()'"£$€%&@#!?+=*`, r) {
			ok++
		}
	}
	return float64(ok)/float64(total) > 0.6
}
