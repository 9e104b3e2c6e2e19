// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadText returns body paragraphs joined by newlines.
func (r *Reader) ReadText(_ context.Context, data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	for _, file := range archive.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", documentPart, err)
		}
		defer rc.Close()
		paragraphs, err := paragraphs(rc)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
	}
	return "", fmt.Errorf("docx has no %s", documentPart)
}

func paragraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var (
		out     []string
		current strings.Builder
		inPara  bool
		inText  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				out = append(out, current.String())
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inPara && inText {
				current.Write(el)
			}
		}
	}
}
