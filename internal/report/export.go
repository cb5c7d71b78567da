package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ValuationRow is one stock unit in the valuation export.
type ValuationRow struct {
	StockUnitID int
	CatalogItem string
	Location    string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	TotalValue  decimal.Decimal
}

// StockValuationXLSX renders the per-unit valuation report as an xlsx
// workbook. Quantities and costs are written as fixed-point strings so
// spreadsheet float formatting cannot distort them.
func StockValuationXLSX(rows []ValuationRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"stock_unit_id",
		"catalog_item",
		"location",
		"quantity",
		"unit_cost",
		"total_value",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	row := 2
	for _, r := range rows {
		cells := []interface{}{
			r.StockUnitID,
			r.CatalogItem,
			r.Location,
			r.Quantity.String(),
			r.UnitCost.StringFixed(4),
			r.TotalValue.StringFixed(2),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
