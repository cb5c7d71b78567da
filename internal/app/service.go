package app

import (
	"context"

	"stock-ledger/internal/core"
)

// ApplicationService is the single contract the surrounding application
// (CLI, web, integrations) calls. It decouples presentation from the stock
// ledger; implementations contain no display logic of any kind.
type ApplicationService interface {
	// CreateLocation adds a node to the warehouse location tree.
	CreateLocation(ctx context.Context, req CreateLocationRequest) (*core.Location, error)

	// ListLocations returns the full location directory.
	ListLocations(ctx context.Context) ([]core.Location, error)

	// CreateCatalogItem registers a new catalog item.
	CreateCatalogItem(ctx context.Context, name, description string) (*core.CatalogItem, error)

	// CreateStockUnit places a new, empty stock unit of a catalog item at a
	// storable location.
	CreateStockUnit(ctx context.Context, req CreateStockUnitRequest) (*core.StockUnit, error)

	// GetStockUnitState returns the cached valuation triple of one unit.
	GetStockUnitState(ctx context.Context, stockUnitID int) (*StockUnitState, error)

	// ListLedgerEntries returns a unit's full ledger, oldest first.
	ListLedgerEntries(ctx context.Context, stockUnitID int) ([]core.StockEntry, error)

	// AppendLedgerEntry records one stock movement and synchronously
	// recomputes the owning unit's valuation.
	AppendLedgerEntry(ctx context.Context, req AppendEntryRequest) (*core.StockEntry, error)

	// EditLedgerEntry corrects an existing entry; the owning unit is
	// recomputed under the same contract as append.
	EditLedgerEntry(ctx context.Context, entryID int, req EditEntryRequest) error

	// RemoveLedgerEntry deletes an entry and recomputes the owning unit.
	RemoveLedgerEntry(ctx context.Context, entryID int) error

	// GetCatalogItemAvailability returns available (net of active
	// reservations) and total warehouse quantity for an item.
	GetCatalogItemAvailability(ctx context.Context, catalogItemID int) (*Availability, error)

	// GetPurchasePriceStats returns min/max/avg/last purchase price over
	// all of the item's stock units.
	GetPurchasePriceStats(ctx context.Context, catalogItemID int) (*core.PriceStats, error)

	// CreateReservation places a soft hold against a catalog item.
	CreateReservation(ctx context.Context, req CreateReservationRequest) (*core.Reservation, error)

	// CancelReservation removes a reservation by its id.
	CancelReservation(ctx context.Context, reservationID string) error

	// ListReservations returns the item's currently active reservations.
	ListReservations(ctx context.Context, catalogItemID int) ([]core.Reservation, error)

	// GetStockOverview returns one valuation row per stock unit with item
	// and location names resolved.
	GetStockOverview(ctx context.Context) ([]StockOverviewRow, error)

	// ExportValuation renders the stock overview as an xlsx workbook.
	ExportValuation(ctx context.Context) ([]byte, error)
}
