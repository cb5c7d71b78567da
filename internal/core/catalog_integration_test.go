package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stock-ledger/internal/core"
)

func TestCatalog_AvailabilityNetsActiveReservations(t *testing.T) {
	pool, ctx := setupStockTestDB(t)
	units := core.NewStockUnitService(pool)
	catalog := core.NewCatalogService(pool)
	reservations := core.NewReservationService(pool)

	unit, err := units.CreateStockUnit(ctx, 1, 1, "")
	if err != nil {
		t.Fatalf("CreateStockUnit failed: %v", err)
	}
	mustAppend(t, ctx, units, unit.ID, core.KindBuy, "20", "1.50", 0)

	now := time.Now().UTC()
	if _, err := reservations.Create(ctx, core.CreateReservationInput{
		CatalogItemID: 1,
		Quantity:      decimal.NewFromInt(5),
		ReservedBy:    "alice",
	}); err != nil {
		t.Fatalf("Create reservation failed: %v", err)
	}

	available, err := catalog.AvailableQuantity(ctx, 1, now)
	if err != nil {
		t.Fatalf("AvailableQuantity failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(15)) {
		t.Errorf("available: expected 15, got %s", available)
	}

	gross, err := catalog.WarehouseQuantity(ctx, 1, true, now)
	if err != nil {
		t.Fatalf("WarehouseQuantity failed: %v", err)
	}
	if !gross.Equal(decimal.NewFromInt(20)) {
		t.Errorf("warehouse total: expected 20, got %s", gross)
	}
}

func TestCatalog_ExpiredReservationsDoNotCount(t *testing.T) {
	pool, ctx := setupStockTestDB(t)
	units := core.NewStockUnitService(pool)
	catalog := core.NewCatalogService(pool)
	reservations := core.NewReservationService(pool)

	unit, err := units.CreateStockUnit(ctx, 1, 1, "")
	if err != nil {
		t.Fatalf("CreateStockUnit failed: %v", err)
	}
	mustAppend(t, ctx, units, unit.ID, core.KindAdd, "10", "2", 0)

	now := time.Now().UTC()
	expired := now.Add(-time.Hour)
	if _, err := reservations.Create(ctx, core.CreateReservationInput{
		CatalogItemID: 1,
		Quantity:      decimal.NewFromInt(4),
		ReservedBy:    "bob",
		ExpiresAt:     &expired,
	}); err != nil {
		t.Fatalf("Create reservation failed: %v", err)
	}

	available, err := catalog.AvailableQuantity(ctx, 1, now)
	if err != nil {
		t.Fatalf("AvailableQuantity failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(10)) {
		t.Errorf("available: expected 10 with expired reservation, got %s", available)
	}
}

func TestCatalog_AvailabilitySpansUnits(t *testing.T) {
	pool, ctx := setupStockTestDB(t)
	units := core.NewStockUnitService(pool)
	catalog := core.NewCatalogService(pool)

	for i, qty := range []string{"3", "7"} {
		unit, err := units.CreateStockUnit(ctx, 1, 1, "")
		if err != nil {
			t.Fatalf("CreateStockUnit failed: %v", err)
		}
		mustAppend(t, ctx, units, unit.ID, core.KindBuy, qty, "1", i)
	}
	// A second item's stock must not leak in.
	other, err := units.CreateStockUnit(ctx, 2, 1, "")
	if err != nil {
		t.Fatalf("CreateStockUnit failed: %v", err)
	}
	mustAppend(t, ctx, units, other.ID, core.KindBuy, "100", "1", 0)

	available, err := catalog.AvailableQuantity(ctx, 1, time.Now().UTC())
	if err != nil {
		t.Fatalf("AvailableQuantity failed: %v", err)
	}
	if !available.Equal(decimal.NewFromInt(10)) {
		t.Errorf("available: expected 10, got %s", available)
	}

	list, err := catalog.ListStockUnits(ctx, 1)
	if err != nil {
		t.Fatalf("ListStockUnits failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 stock units for item 1, got %d", len(list))
	}
}

func TestCatalog_PurchasePriceStats(t *testing.T) {
	pool, ctx := setupStockTestDB(t)
	units := core.NewStockUnitService(pool)
	catalog := core.NewCatalogService(pool)

	unit, err := units.CreateStockUnit(ctx, 1, 1, "")
	if err != nil {
		t.Fatalf("CreateStockUnit failed: %v", err)
	}
	mustAppend(t, ctx, units, unit.ID, core.KindBuy, "10", "2", 0)
	mustAppend(t, ctx, units, unit.ID, core.KindBuy, "5", "4", 1)
	// Priced but not a purchase; must stay out of the stats.
	mustAppend(t, ctx, units, unit.ID, core.KindAdd, "3", "9", 2)

	stats, err := catalog.PurchasePriceStats(ctx, 1)
	if err != nil {
		t.Fatalf("PurchasePriceStats failed: %v", err)
	}
	check := func(name string, got decimal.NullDecimal, want string) {
		t.Helper()
		if !got.Valid {
			t.Errorf("%s: expected %s, got NULL", name, want)
			return
		}
		if !got.Decimal.Equal(decimal.RequireFromString(want)) {
			t.Errorf("%s: expected %s, got %s", name, want, got.Decimal)
		}
	}
	check("min", stats.Min, "2")
	check("max", stats.Max, "4")
	check("avg", stats.Avg, "3")
	check("last", stats.Last, "4")
}

func TestCatalog_PurchasePriceStatsEmpty(t *testing.T) {
	pool, ctx := setupStockTestDB(t)
	units := core.NewStockUnitService(pool)
	catalog := core.NewCatalogService(pool)

	unit, err := units.CreateStockUnit(ctx, 1, 1, "")
	if err != nil {
		t.Fatalf("CreateStockUnit failed: %v", err)
	}
	mustAppend(t, ctx, units, unit.ID, core.KindAdd, "10", "2", 0)

	stats, err := catalog.PurchasePriceStats(ctx, 1)
	if err != nil {
		t.Fatalf("PurchasePriceStats failed: %v", err)
	}
	if stats.Min.Valid || stats.Max.Valid || stats.Avg.Valid || stats.Last.Valid {
		t.Errorf("expected all-NULL stats without purchases, got %+v", stats)
	}
}

func TestCatalog_UnknownItem(t *testing.T) {
	pool, ctx := setupStockTestDB(t)
	catalog := core.NewCatalogService(pool)

	if _, err := catalog.GetCatalogItem(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetCatalogItem: expected ErrNotFound, got %v", err)
	}
	if _, err := catalog.AvailableQuantity(ctx, 999, time.Now().UTC()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AvailableQuantity: expected ErrNotFound, got %v", err)
	}
	if _, err := catalog.PurchasePriceStats(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("PurchasePriceStats: expected ErrNotFound, got %v", err)
	}
}
