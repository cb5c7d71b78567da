package app

import "github.com/shopspring/decimal"

// StockUnitState is the cached valuation triple of one stock unit.
type StockUnitState struct {
	StockUnitID   int
	CatalogItemID int
	LocationID    int
	Quantity      decimal.Decimal
	TotalValue    decimal.Decimal
	UnitCost      decimal.Decimal
}

// Availability is the derived quantity view of a catalog item.
type Availability struct {
	CatalogItemID  int
	Available      decimal.Decimal // total − active reservations; may be negative
	WarehouseTotal decimal.Decimal // gross on-hand across all units
}

// StockOverviewRow is one stock unit with names resolved, as shown in the
// overview and the valuation export.
type StockOverviewRow struct {
	StockUnitID int
	CatalogItem string
	Location    string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	TotalValue  decimal.Decimal
}
