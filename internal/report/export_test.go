package report_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stock-ledger/internal/report"
)

func TestStockValuationXLSX(t *testing.T) {
	rows := []report.ValuationRow{
		{
			StockUnitID: 7,
			CatalogItem: "Resistor 10k",
			Location:    "Shelf A1",
			Quantity:    decimal.NewFromInt(40),
			UnitCost:    decimal.RequireFromString("0.0210"),
			TotalValue:  decimal.RequireFromString("0.84"),
		},
		{
			StockUnitID: 9,
			CatalogItem: "Enclosure",
			Location:    "Rack B",
			Quantity:    decimal.NewFromInt(3),
			UnitCost:    decimal.RequireFromString("12.5000"),
			TotalValue:  decimal.RequireFromString("37.50"),
		},
	}

	data, err := report.StockValuationXLSX(rows)
	if err != nil {
		t.Fatalf("StockValuationXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("generated workbook does not open: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	got, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected header + 2 rows, got %d rows", len(got))
	}
	if got[0][0] != "stock_unit_id" || got[0][5] != "total_value" {
		t.Errorf("unexpected header row: %v", got[0])
	}
	if got[1][1] != "Resistor 10k" || got[1][4] != "0.0210" {
		t.Errorf("unexpected first data row: %v", got[1])
	}
	if got[2][5] != "37.50" {
		t.Errorf("unexpected total value cell: %v", got[2])
	}
}

func TestStockValuationXLSX_Empty(t *testing.T) {
	data, err := report.StockValuationXLSX(nil)
	if err != nil {
		t.Fatalf("StockValuationXLSX failed on empty input: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("generated workbook does not open: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	got, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected header row only, got %d rows", len(got))
	}
}
