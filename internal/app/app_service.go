package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stock-ledger/internal/core"
	"stock-ledger/internal/report"
)

type appService struct {
	pool         *pgxpool.Pool
	units        core.StockUnitService
	catalog      core.CatalogService
	reservations core.ReservationService
	locations    core.LocationService
}

// NewAppService wires the domain services behind the ApplicationService
// contract.
func NewAppService(
	pool *pgxpool.Pool,
	units core.StockUnitService,
	catalog core.CatalogService,
	reservations core.ReservationService,
	locations core.LocationService,
) ApplicationService {
	return &appService{
		pool:         pool,
		units:        units,
		catalog:      catalog,
		reservations: reservations,
		locations:    locations,
	}
}

func (s *appService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*core.Location, error) {
	return s.locations.CreateLocation(ctx, req.Name, req.ParentID, req.CanStoreItems, req.Description)
}

func (s *appService) ListLocations(ctx context.Context) ([]core.Location, error) {
	return s.locations.ListLocations(ctx)
}

func (s *appService) CreateCatalogItem(ctx context.Context, name, description string) (*core.CatalogItem, error) {
	return s.catalog.CreateCatalogItem(ctx, name, description)
}

func (s *appService) CreateStockUnit(ctx context.Context, req CreateStockUnitRequest) (*core.StockUnit, error) {
	return s.units.CreateStockUnit(ctx, req.CatalogItemID, req.LocationID, req.Description)
}

func (s *appService) GetStockUnitState(ctx context.Context, stockUnitID int) (*StockUnitState, error) {
	u, err := s.units.GetStockUnitState(ctx, stockUnitID)
	if err != nil {
		return nil, err
	}
	return &StockUnitState{
		StockUnitID:   u.ID,
		CatalogItemID: u.CatalogItemID,
		LocationID:    u.LocationID,
		Quantity:      u.Quantity,
		TotalValue:    u.TotalValue,
		UnitCost:      u.UnitCost,
	}, nil
}

func (s *appService) ListLedgerEntries(ctx context.Context, stockUnitID int) ([]core.StockEntry, error) {
	return s.units.ListEntries(ctx, stockUnitID)
}

func (s *appService) AppendLedgerEntry(ctx context.Context, req AppendEntryRequest) (*core.StockEntry, error) {
	qty, err := parseQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}
	in := core.AppendEntryInput{
		StockUnitID: req.StockUnitID,
		Kind:        core.OperationKind(req.Kind),
		Quantity:    qty,
		Timestamp:   req.Timestamp,
		Description: req.Description,
	}
	if req.UnitPrice != "" {
		price, err := parseQuantity(req.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("unit price: %w", err)
		}
		in.UnitPrice = decimal.NullDecimal{Decimal: price, Valid: true}
	}
	if req.GroupingRef != "" {
		ref, err := uuid.Parse(req.GroupingRef)
		if err != nil {
			return nil, fmt.Errorf("invalid grouping reference %q: %w", req.GroupingRef, err)
		}
		in.GroupingRef = &ref
	}
	return s.units.AppendEntry(ctx, in)
}

func (s *appService) EditLedgerEntry(ctx context.Context, entryID int, req EditEntryRequest) error {
	var changes core.EntryChanges
	if req.Kind != nil {
		kind := core.OperationKind(*req.Kind)
		changes.Kind = &kind
	}
	if req.Quantity != nil {
		qty, err := parseQuantity(*req.Quantity)
		if err != nil {
			return err
		}
		changes.Quantity = &qty
	}
	if req.UnitPrice != nil {
		var price decimal.NullDecimal
		if *req.UnitPrice != "" {
			parsed, err := parseQuantity(*req.UnitPrice)
			if err != nil {
				return fmt.Errorf("unit price: %w", err)
			}
			price = decimal.NullDecimal{Decimal: parsed, Valid: true}
		}
		changes.UnitPrice = &price
	}
	changes.Timestamp = req.Timestamp
	changes.Description = req.Description
	return s.units.EditEntry(ctx, entryID, changes)
}

func (s *appService) RemoveLedgerEntry(ctx context.Context, entryID int) error {
	return s.units.RemoveEntry(ctx, entryID)
}

func (s *appService) GetCatalogItemAvailability(ctx context.Context, catalogItemID int) (*Availability, error) {
	now := time.Now().UTC()
	available, err := s.catalog.AvailableQuantity(ctx, catalogItemID, now)
	if err != nil {
		return nil, err
	}
	total, err := s.catalog.WarehouseQuantity(ctx, catalogItemID, true, now)
	if err != nil {
		return nil, err
	}
	return &Availability{
		CatalogItemID:  catalogItemID,
		Available:      available,
		WarehouseTotal: total,
	}, nil
}

func (s *appService) GetPurchasePriceStats(ctx context.Context, catalogItemID int) (*core.PriceStats, error) {
	return s.catalog.PurchasePriceStats(ctx, catalogItemID)
}

func (s *appService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*core.Reservation, error) {
	qty, err := parseQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}
	return s.reservations.Create(ctx, core.CreateReservationInput{
		CatalogItemID: req.CatalogItemID,
		Quantity:      qty,
		ReservedBy:    req.ReservedBy,
		Priority:      req.Priority,
		Description:   req.Description,
		ExpiresAt:     req.ExpiresAt,
	})
}

func (s *appService) CancelReservation(ctx context.Context, reservationID string) error {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return fmt.Errorf("invalid reservation id %q: %w", reservationID, core.ErrNotFound)
	}
	return s.reservations.Cancel(ctx, id)
}

func (s *appService) ListReservations(ctx context.Context, catalogItemID int) ([]core.Reservation, error) {
	return s.reservations.ListActive(ctx, catalogItemID, time.Now().UTC())
}

func (s *appService) GetStockOverview(ctx context.Context) ([]StockOverviewRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT su.id, ci.name, l.name, su.quantity, su.unit_cost, su.total_value
		FROM stock_units su
		JOIN catalog_items ci ON ci.id = su.catalog_item_id
		JOIN locations l     ON l.id = su.location_id
		ORDER BY ci.name, l.name, su.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock overview: %w", err)
	}
	defer rows.Close()

	var overview []StockOverviewRow
	for rows.Next() {
		var r StockOverviewRow
		if err := rows.Scan(&r.StockUnitID, &r.CatalogItem, &r.Location,
			&r.Quantity, &r.UnitCost, &r.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan overview row: %w", err)
		}
		overview = append(overview, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overview rows: %w", err)
	}
	return overview, nil
}

func (s *appService) ExportValuation(ctx context.Context) ([]byte, error) {
	overview, err := s.GetStockOverview(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]report.ValuationRow, 0, len(overview))
	for _, r := range overview {
		rows = append(rows, report.ValuationRow{
			StockUnitID: r.StockUnitID,
			CatalogItem: r.CatalogItem,
			Location:    r.Location,
			Quantity:    r.Quantity,
			UnitCost:    r.UnitCost,
			TotalValue:  r.TotalValue,
		})
	}
	return report.StockValuationXLSX(rows)
}

// parseQuantity converts boundary decimal strings. Anything shopspring
// cannot parse (including NaN/Inf spellings) maps to ErrInvalidQuantity.
func parseQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, core.ErrInvalidQuantity)
	}
	return d, nil
}
