package spreadsheet

import (
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := book.SetCellValue("Sheet1", cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadAssetsKeysByHeader(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Asset", domain.AssetValueColumn},
		{"House", 250000},
		{"Car Loan", -50000},
		{"Savings", "1,200"},
		{"Gold", 10.5},
	})

	records, err := NewReader().ReadAssets(context.Background(), data)
	if err != nil {
		t.Fatalf("ReadAssets() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if records[0]["Asset"] != "House" || records[0][domain.AssetValueColumn] != int64(250000) {
		t.Fatalf("unexpected first record %#v", records[0])
	}
	if records[1][domain.AssetValueColumn] != int64(-50000) {
		t.Fatalf("expected negative liability, got %#v", records[1])
	}
	if records[2][domain.AssetValueColumn] != "1,200" {
		t.Fatalf("expected string cell preserved, got %#v", records[2])
	}
	if records[3][domain.AssetValueColumn] != 10.5 {
		t.Fatalf("expected float cell, got %#v", records[3])
	}
}

func TestReadAssetsSkipsEmptyRows(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Asset", domain.AssetValueColumn},
		{"House", 1000},
		{},
		{"Car", 500},
	})
	records, err := NewReader().ReadAssets(context.Background(), data)
	if err != nil {
		t.Fatalf("ReadAssets() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestReadAssetsRejectsNonWorkbook(t *testing.T) {
	if _, err := NewReader().ReadAssets(context.Background(), []byte("not a workbook")); err == nil {
		t.Fatal("expected error for invalid workbook")
	}
}
