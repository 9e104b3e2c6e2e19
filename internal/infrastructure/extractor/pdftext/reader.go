// Package pdftext extracts plain text from bank statement PDFs.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadText concatenates the text of every page. Malformed input that makes the parser panic
// is reported as an error.
func (r *Reader) ReadText(_ context.Context, data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
