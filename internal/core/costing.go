package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Valuation is the result of one recompute over a stock unit's ledger.
type Valuation struct {
	Quantity   decimal.Decimal // signed sum of all entry quantities
	TotalValue decimal.Decimal // rounded to 2 places
	UnitCost   decimal.Decimal // rounded to 4 places
}

// RecomputeValuation derives on-hand quantity and FIFO cost valuation from
// a stock unit's complete ledger. It is a pure function: no I/O, no hidden
// state, identical output for identical input.
//
// Entries are ordered by (Timestamp, ID) internally, so caller insertion
// order never affects the result.
//
// Valuation rules:
//   - Quantity is the signed sum of all entries. Non-positive quantity
//     values out at zero.
//   - Costed inflows (add, trans_in, buy) with a positive unit price form
//     FIFO layers; outflows (remove, trans_out, service, sell) consume the
//     oldest layers first, clamped so a layer never goes below zero.
//   - On-hand quantity not covered by surviving layers (e.g. produced by
//     adjust/inventory entries or unpriced inflows) is valued at the
//     weighted average price of all priced inflow entries. With no priced
//     inflows at all, the unaccounted quantity carries no value.
func RecomputeValuation(entries []StockEntry) Valuation {
	sorted := make([]StockEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	quantity := decimal.Zero
	for _, e := range sorted {
		quantity = quantity.Add(e.Quantity)
	}
	if quantity.Sign() <= 0 {
		return Valuation{Quantity: quantity}
	}

	type layer struct {
		remaining decimal.Decimal
		price     decimal.Decimal
	}
	var layers []layer
	for _, e := range sorted {
		if e.Kind.IsCostedInflow() && e.UnitPrice.Valid && e.UnitPrice.Decimal.Sign() > 0 {
			layers = append(layers, layer{remaining: e.Quantity, price: e.UnitPrice.Decimal})
		}
	}

	for _, e := range sorted {
		if !e.Kind.IsOutflow() {
			continue
		}
		toConsume := e.Quantity.Abs()
		for i := range layers {
			if toConsume.Sign() <= 0 {
				break
			}
			if layers[i].remaining.Sign() <= 0 {
				continue
			}
			consumed := decimal.Min(toConsume, layers[i].remaining)
			layers[i].remaining = layers[i].remaining.Sub(consumed)
			toConsume = toConsume.Sub(consumed)
		}
	}

	fifoValue := decimal.Zero
	fifoQuantity := decimal.Zero
	for _, l := range layers {
		if l.remaining.Sign() > 0 {
			fifoValue = fifoValue.Add(l.remaining.Mul(l.price))
			fifoQuantity = fifoQuantity.Add(l.remaining)
		}
	}

	totalValue := fifoValue
	finalQuantity := fifoQuantity
	if quantity.GreaterThan(fifoQuantity) {
		// Weighted average over all priced inflow entries, not just the
		// surviving layers.
		inflowValue := decimal.Zero
		inflowQuantity := decimal.Zero
		for _, e := range sorted {
			if e.Kind.IsCostedInflow() && e.UnitPrice.Valid && e.UnitPrice.Decimal.Sign() > 0 {
				inflowValue = inflowValue.Add(e.Quantity.Mul(e.UnitPrice.Decimal))
				inflowQuantity = inflowQuantity.Add(e.Quantity)
			}
		}
		if inflowQuantity.Sign() > 0 {
			avgPrice := inflowValue.Div(inflowQuantity)
			unaccounted := quantity.Sub(fifoQuantity)
			totalValue = fifoValue.Add(unaccounted.Mul(avgPrice))
			finalQuantity = quantity
		}
	}

	v := Valuation{Quantity: quantity}
	if finalQuantity.Sign() > 0 {
		v.TotalValue = totalValue.Round(2)
		v.UnitCost = totalValue.Div(finalQuantity).Round(4)
	}
	return v
}
