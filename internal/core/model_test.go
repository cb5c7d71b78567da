package core_test

import (
	"testing"
	"time"

	"stock-ledger/internal/core"
)

func TestOperationKind_Classification(t *testing.T) {
	tests := []struct {
		kind         core.OperationKind
		costedInflow bool
		outflow      bool
		purchase     bool
	}{
		{core.KindAdd, true, false, false},
		{core.KindRemove, false, true, false},
		{core.KindAdjust, false, false, false},
		{core.KindTransferIn, true, false, false},
		{core.KindTransferOut, false, true, false},
		{core.KindInventory, false, false, false},
		{core.KindServiceWithdrawal, false, true, false},
		{core.KindBuy, true, false, true},
		{core.KindSell, false, true, false},
	}
	for _, tt := range tests {
		if !tt.kind.Valid() {
			t.Errorf("%s: expected Valid", tt.kind)
		}
		if got := tt.kind.IsCostedInflow(); got != tt.costedInflow {
			t.Errorf("%s: IsCostedInflow = %v, want %v", tt.kind, got, tt.costedInflow)
		}
		if got := tt.kind.IsOutflow(); got != tt.outflow {
			t.Errorf("%s: IsOutflow = %v, want %v", tt.kind, got, tt.outflow)
		}
		if got := tt.kind.IsPurchase(); got != tt.purchase {
			t.Errorf("%s: IsPurchase = %v, want %v", tt.kind, got, tt.purchase)
		}
	}
}

func TestOperationKind_UnknownIsInvalid(t *testing.T) {
	// "purchase" is the dangling kind the legacy analytics filtered on; it
	// must stay outside the enum so misuse is caught at the boundary.
	for _, k := range []core.OperationKind{"", "purchase", "ADD", "buy "} {
		if k.Valid() {
			t.Errorf("%q: expected invalid", k)
		}
	}
}

func TestPurchaseKinds_MatchesPredicate(t *testing.T) {
	kinds := core.PurchaseKinds()
	if len(kinds) != 1 || kinds[0] != string(core.KindBuy) {
		t.Errorf("expected purchase kinds [buy], got %v", kinds)
	}
}

func TestReservation_ActiveAt(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := core.Reservation{}
	if !open.ActiveAt(now) {
		t.Error("reservation without expiry should always be active")
	}
	expired := core.Reservation{ExpiresAt: &past}
	if expired.ActiveAt(now) {
		t.Error("expired reservation should be inactive")
	}
	pending := core.Reservation{ExpiresAt: &future}
	if !pending.ActiveAt(now) {
		t.Error("unexpired reservation should be active")
	}
	boundary := core.Reservation{ExpiresAt: &now}
	if !boundary.ActiveAt(now) {
		t.Error("reservation expiring exactly now should still count")
	}
}
