// Package spreadsheet reads the assets and liabilities workbook into records keyed by header.
package spreadsheet

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// ReadAssets uses the first sheet; the first row names the columns. Numeric cells become
// int64 or float64, everything else stays a string.
func (r *Reader) ReadAssets(_ context.Context, data []byte) ([]domain.AssetRecord, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []domain.AssetRecord{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}

	records := make([]domain.AssetRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := domain.AssetRecord{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			record[header[i]] = cellValue(cell)
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}
	return records, nil
}

func cellValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
