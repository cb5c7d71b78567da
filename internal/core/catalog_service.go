package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService is the read side over catalog items: availability derived
// from stock unit caches net of reservations, and purchase price analytics
// over the item's full ledger.
//
// Availability reads only committed per-unit caches and takes no cross-unit
// locks, so it is eventually consistent across units within one request.
type CatalogService interface {
	CreateCatalogItem(ctx context.Context, name, description string) (*CatalogItem, error)
	GetCatalogItem(ctx context.Context, id int) (*CatalogItem, error)
	ListStockUnits(ctx context.Context, catalogItemID int) ([]StockUnit, error)

	// AvailableQuantity is Σ stock_unit.quantity − Σ active reservation
	// quantity at the given instant. May be negative: over-reservation is a
	// display concern, not rejected here.
	AvailableQuantity(ctx context.Context, catalogItemID int, at time.Time) (decimal.Decimal, error)

	// WarehouseQuantity is the total on hand. includeReservations=true
	// counts reserved stock as present; false nets active reservations out.
	WarehouseQuantity(ctx context.Context, catalogItemID int, includeReservations bool, at time.Time) (decimal.Decimal, error)

	// PurchasePriceStats aggregates unit prices of purchase-classified
	// entries (OperationKind.IsPurchase) across all the item's units.
	PurchasePriceStats(ctx context.Context, catalogItemID int) (*PriceStats, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) CreateCatalogItem(ctx context.Context, name, description string) (*CatalogItem, error) {
	if name == "" {
		return nil, fmt.Errorf("catalog item name must not be empty")
	}
	var item CatalogItem
	err := s.pool.QueryRow(ctx, `
		INSERT INTO catalog_items (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`, name, description).Scan(&item.ID, &item.Name, &item.Description, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return &item, nil
}

func (s *catalogService) GetCatalogItem(ctx context.Context, id int) (*CatalogItem, error) {
	var item CatalogItem
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM catalog_items WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Description, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("catalog item %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch catalog item %d: %w", id, err)
	}
	return &item, nil
}

func (s *catalogService) ListStockUnits(ctx context.Context, catalogItemID int) ([]StockUnit, error) {
	if _, err := s.GetCatalogItem(ctx, catalogItemID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, catalog_item_id, location_id, description, quantity, total_value, unit_cost, created_at, updated_at
		FROM stock_units
		WHERE catalog_item_id = $1
		ORDER BY id
	`, catalogItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock units of item %d: %w", catalogItemID, err)
	}
	defer rows.Close()

	var units []StockUnit
	for rows.Next() {
		var u StockUnit
		if err := rows.Scan(
			&u.ID, &u.CatalogItemID, &u.LocationID, &u.Description,
			&u.Quantity, &u.TotalValue, &u.UnitCost, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock units: %w", err)
	}
	return units, nil
}

func (s *catalogService) AvailableQuantity(ctx context.Context, catalogItemID int, at time.Time) (decimal.Decimal, error) {
	return s.WarehouseQuantity(ctx, catalogItemID, false, at)
}

func (s *catalogService) WarehouseQuantity(ctx context.Context, catalogItemID int, includeReservations bool, at time.Time) (decimal.Decimal, error) {
	if _, err := s.GetCatalogItem(ctx, catalogItemID); err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_units WHERE catalog_item_id = $1
	`, catalogItemID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum stock of item %d: %w", catalogItemID, err)
	}
	if includeReservations {
		return total, nil
	}

	var reserved decimal.Decimal
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reservations
		WHERE catalog_item_id = $1
		  AND (expires_at IS NULL OR expires_at >= $2)
	`, catalogItemID, at).Scan(&reserved)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum reservations of item %d: %w", catalogItemID, err)
	}
	return total.Sub(reserved), nil
}

func (s *catalogService) PurchasePriceStats(ctx context.Context, catalogItemID int) (*PriceStats, error) {
	if _, err := s.GetCatalogItem(ctx, catalogItemID); err != nil {
		return nil, err
	}

	var stats PriceStats
	err := s.pool.QueryRow(ctx, `
		SELECT MIN(e.unit_price), MAX(e.unit_price), AVG(e.unit_price)
		FROM stock_entries e
		JOIN stock_units su ON su.id = e.stock_unit_id
		WHERE su.catalog_item_id = $1
		  AND e.kind = ANY($2)
		  AND e.unit_price IS NOT NULL
	`, catalogItemID, PurchaseKinds()).Scan(&stats.Min, &stats.Max, &stats.Avg)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate purchase prices of item %d: %w", catalogItemID, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT e.unit_price
		FROM stock_entries e
		JOIN stock_units su ON su.id = e.stock_unit_id
		WHERE su.catalog_item_id = $1
		  AND e.kind = ANY($2)
		  AND e.unit_price IS NOT NULL
		ORDER BY e.timestamp DESC, e.id DESC
		LIMIT 1
	`, catalogItemID, PurchaseKinds()).Scan(&stats.Last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch last purchase price of item %d: %w", catalogItemID, err)
	}
	return &stats, nil
}
