// Package plaintext reads UTF-8 text documents such as pre-transcribed ID cards.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) ReadText(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("plain text document is not valid utf-8")
	}
	return strings.TrimSpace(string(data)), nil
}
