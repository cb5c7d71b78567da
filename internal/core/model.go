package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationKind is the closed set of stock movement types. The wire values
// match the ledger rows; unknown values are rejected at the append boundary.
type OperationKind string

const (
	KindAdd               OperationKind = "add"
	KindRemove            OperationKind = "remove"
	KindAdjust            OperationKind = "adjust"
	KindTransferIn        OperationKind = "trans_in"
	KindTransferOut       OperationKind = "trans_out"
	KindInventory         OperationKind = "inventory"
	KindServiceWithdrawal OperationKind = "service"
	KindBuy               OperationKind = "buy"
	KindSell              OperationKind = "sell"
)

// Valid reports whether k is one of the declared operation kinds.
func (k OperationKind) Valid() bool {
	switch k {
	case KindAdd, KindRemove, KindAdjust, KindTransferIn, KindTransferOut,
		KindInventory, KindServiceWithdrawal, KindBuy, KindSell:
		return true
	}
	return false
}

// IsCostedInflow reports whether an entry of this kind forms a FIFO layer
// when it carries a positive unit price.
func (k OperationKind) IsCostedInflow() bool {
	switch k {
	case KindAdd, KindTransferIn, KindBuy:
		return true
	}
	return false
}

// IsOutflow reports whether an entry of this kind consumes FIFO layers.
func (k OperationKind) IsOutflow() bool {
	switch k {
	case KindRemove, KindTransferOut, KindServiceWithdrawal, KindSell:
		return true
	}
	return false
}

// IsPurchase classifies kinds that count toward purchase price analytics
// (min/max/avg/last purchase price on a catalog item). Kept as a named
// predicate so the analytics queries and the costing engine cannot drift
// apart on what "a purchase" means.
func (k OperationKind) IsPurchase() bool {
	return k == KindBuy
}

// PurchaseKinds returns the wire values of all purchase-classified kinds,
// for use in SQL ANY() filters.
func PurchaseKinds() []string {
	all := []OperationKind{
		KindAdd, KindRemove, KindAdjust, KindTransferIn, KindTransferOut,
		KindInventory, KindServiceWithdrawal, KindBuy, KindSell,
	}
	var out []string
	for _, k := range all {
		if k.IsPurchase() {
			out = append(out, string(k))
		}
	}
	return out
}

// StockEntry is one stock movement in a unit's ledger. Entries are
// immutable in intent; edits and removals exist for corrections and always
// trigger a full recompute of the owning unit.
//
// Quantity is a signed delta: positive for inflows, negative for outflows,
// by caller convention. RelativeQuantity is stored for audit parity with
// older data but only delta semantics are accepted on append.
type StockEntry struct {
	ID          int
	StockUnitID int
	Kind        OperationKind
	Quantity    decimal.Decimal
	UnitPrice   decimal.NullDecimal
	Timestamp   time.Time

	RelativeQuantity bool

	// GroupingRef correlates entries produced by one external event,
	// e.g. a stocktaking pass.
	GroupingRef *uuid.UUID

	// PriorEntryID is an advisory back-link to the previous entry of the
	// same unit at insert time. Ordering authority is (Timestamp, ID);
	// the costing engine never reads this field.
	PriorEntryID *int

	Description string
}

// StockUnit is a physical grouping of one catalog item's stock at one
// location (a "packet"). Quantity, TotalValue and UnitCost are a cache of
// the last recompute over the unit's ledger; every mutator rewrites them
// before returning, so reads never recompute.
type StockUnit struct {
	ID            int
	CatalogItemID int
	LocationID    int
	Description   string

	Quantity   decimal.Decimal
	TotalValue decimal.Decimal // rounded to 2 places
	UnitCost   decimal.Decimal // rounded to 4 places

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CatalogItem is an item of the catalog ("component"). It owns stock units
// and reservations but caches no quantities of its own; availability is
// derived on read.
type CatalogItem struct {
	ID          int
	Name        string
	Description string
	CreatedAt   time.Time
}

// Location is a node of the warehouse tree. Only nodes with CanStoreItems
// may hold stock units.
type Location struct {
	ID            int
	Name          string
	ParentID      *int
	CanStoreItems bool
	Description   string
}

// Reservation is a soft hold against a catalog item's availability. It is
// independent of the stock ledger: it never consumes or mutates entries,
// it is only subtracted from availability while active.
type Reservation struct {
	ID            uuid.UUID
	CatalogItemID int
	Quantity      decimal.Decimal
	ReservedBy    string
	Priority      int // 1 (highest) .. 5
	Description   string
	CreatedAt     time.Time
	ExpiresAt     *time.Time
}

// ActiveAt reports whether the reservation still counts against
// availability at the given instant.
func (r Reservation) ActiveAt(at time.Time) bool {
	return r.ExpiresAt == nil || !r.ExpiresAt.Before(at)
}

// PriceStats summarizes purchase prices over all of a catalog item's
// ledger entries. All fields are invalid when the item has no purchases.
type PriceStats struct {
	Min  decimal.NullDecimal
	Max  decimal.NullDecimal
	Avg  decimal.NullDecimal
	Last decimal.NullDecimal
}
