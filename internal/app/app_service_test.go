package app_test

import (
	"context"
	"errors"
	"testing"

	"stock-ledger/internal/app"
	"stock-ledger/internal/core"
)

// Boundary parsing is rejected before any store access, so these run
// without a database.

func TestAppendLedgerEntry_RejectsNonNumericQuantity(t *testing.T) {
	svc := app.NewAppService(nil, nil, nil, nil, nil)
	for _, bad := range []string{"", "abc", "NaN", "1.2.3"} {
		_, err := svc.AppendLedgerEntry(context.Background(), app.AppendEntryRequest{
			StockUnitID: 1,
			Kind:        string(core.KindBuy),
			Quantity:    bad,
		})
		if !errors.Is(err, core.ErrInvalidQuantity) {
			t.Errorf("quantity %q: expected ErrInvalidQuantity, got %v", bad, err)
		}
	}
}

func TestAppendLedgerEntry_RejectsNonNumericPrice(t *testing.T) {
	svc := app.NewAppService(nil, nil, nil, nil, nil)
	_, err := svc.AppendLedgerEntry(context.Background(), app.AppendEntryRequest{
		StockUnitID: 1,
		Kind:        string(core.KindBuy),
		Quantity:    "5",
		UnitPrice:   "two",
	})
	if !errors.Is(err, core.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAppendLedgerEntry_RejectsMalformedGroupingRef(t *testing.T) {
	svc := app.NewAppService(nil, nil, nil, nil, nil)
	_, err := svc.AppendLedgerEntry(context.Background(), app.AppendEntryRequest{
		StockUnitID: 1,
		Kind:        string(core.KindBuy),
		Quantity:    "5",
		GroupingRef: "not-a-uuid",
	})
	if err == nil {
		t.Error("expected error for malformed grouping reference")
	}
}

func TestCancelReservation_MalformedID(t *testing.T) {
	svc := app.NewAppService(nil, nil, nil, nil, nil)
	err := svc.CancelReservation(context.Background(), "definitely-not-a-uuid")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
