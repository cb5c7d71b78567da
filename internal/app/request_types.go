package app

import "time"

// CreateLocationRequest describes a new warehouse location node.
type CreateLocationRequest struct {
	Name          string
	ParentID      *int
	CanStoreItems bool
	Description   string
}

// CreateStockUnitRequest describes a new stock unit placement.
type CreateStockUnitRequest struct {
	CatalogItemID int
	LocationID    int
	Description   string
}

// AppendEntryRequest carries one stock movement as it arrives from the
// boundary. Quantity and UnitPrice are decimal strings; parsing failures
// surface as ErrInvalidQuantity.
type AppendEntryRequest struct {
	StockUnitID int
	Kind        string
	Quantity    string
	// UnitPrice is optional; empty means the movement carries no price.
	UnitPrice string
	// Timestamp defaults to now when nil.
	Timestamp *time.Time
	// GroupingRef is an optional UUID correlating entries produced by one
	// external event.
	GroupingRef string
	Description string
}

// EditEntryRequest is a partial correction of an existing entry. Nil fields
// stay untouched; a non-nil empty UnitPrice clears the price.
type EditEntryRequest struct {
	Kind        *string
	Quantity    *string
	UnitPrice   *string
	Timestamp   *time.Time
	Description *string
}

// CreateReservationRequest describes a new soft hold.
type CreateReservationRequest struct {
	CatalogItemID int
	Quantity      string
	ReservedBy    string
	// Priority 1..5; zero means default (3).
	Priority    int
	Description string
	ExpiresAt   *time.Time
}
