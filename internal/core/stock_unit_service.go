package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stock-ledger/internal/infra/metrics"
)

// maxMutationAttempts bounds retries of a unit mutation on lock contention
// before ErrConcurrentModification surfaces.
const maxMutationAttempts = 3

// AppendEntryInput describes one ledger entry to append to a stock unit.
type AppendEntryInput struct {
	StockUnitID int
	Kind        OperationKind
	Quantity    decimal.Decimal
	UnitPrice   decimal.NullDecimal
	// Timestamp defaults to now when nil. FIFO ordering follows this field,
	// not insertion order.
	Timestamp   *time.Time
	GroupingRef *uuid.UUID
	Description string
	// Absolute marks the quantity as a post-operation absolute value.
	// Only delta semantics are implemented; absolute entries are rejected
	// with ErrInvalidQuantity.
	Absolute bool
}

// EntryChanges is a partial update of an existing entry. Nil fields are
// left untouched.
type EntryChanges struct {
	Kind        *OperationKind
	Quantity    *decimal.Decimal
	UnitPrice   *decimal.NullDecimal
	Timestamp   *time.Time
	Description *string
}

// StockUnitService is the write side of the stock ledger. Every mutation
// re-derives the owning unit's cached valuation from its full entry set
// inside one transaction, serialized per unit by a row lock. The recompute
// is O(n) in the unit's entry count on purpose: correctness by
// construction over throughput. An incremental variant can replace the
// implementation without changing this interface.
type StockUnitService interface {
	CreateStockUnit(ctx context.Context, catalogItemID, locationID int, description string) (*StockUnit, error)

	// GetStockUnitState returns the cached valuation triple without
	// recomputation. Stale-safe: every mutator recomputes before returning.
	GetStockUnitState(ctx context.Context, id int) (*StockUnit, error)

	// ListEntries returns the unit's full ledger ordered by (timestamp, id).
	ListEntries(ctx context.Context, stockUnitID int) ([]StockEntry, error)

	AppendEntry(ctx context.Context, in AppendEntryInput) (*StockEntry, error)
	EditEntry(ctx context.Context, entryID int, changes EntryChanges) error
	RemoveEntry(ctx context.Context, entryID int) error
}

type stockUnitService struct {
	pool *pgxpool.Pool
}

func NewStockUnitService(pool *pgxpool.Pool) StockUnitService {
	return &stockUnitService{pool: pool}
}

func (s *stockUnitService) CreateStockUnit(ctx context.Context, catalogItemID, locationID int, description string) (*StockUnit, error) {
	var canStore bool
	err := s.pool.QueryRow(ctx,
		"SELECT can_store_items FROM locations WHERE id = $1", locationID,
	).Scan(&canStore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("location %d: %w", locationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve location %d: %w", locationID, err)
	}
	if !canStore {
		return nil, fmt.Errorf("location %d: %w", locationID, ErrInvalidLocation)
	}

	var u StockUnit
	err = s.pool.QueryRow(ctx, `
		INSERT INTO stock_units (catalog_item_id, location_id, description, quantity, total_value, unit_cost)
		VALUES ($1, $2, $3, 0, 0, 0)
		RETURNING id, catalog_item_id, location_id, description, quantity, total_value, unit_cost, created_at, updated_at
	`, catalogItemID, locationID, description).Scan(
		&u.ID, &u.CatalogItemID, &u.LocationID, &u.Description,
		&u.Quantity, &u.TotalValue, &u.UnitCost, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("catalog item %d: %w", catalogItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create stock unit: %w", err)
	}
	return &u, nil
}

func (s *stockUnitService) GetStockUnitState(ctx context.Context, id int) (*StockUnit, error) {
	var u StockUnit
	err := s.pool.QueryRow(ctx, `
		SELECT id, catalog_item_id, location_id, description, quantity, total_value, unit_cost, created_at, updated_at
		FROM stock_units
		WHERE id = $1
	`, id).Scan(
		&u.ID, &u.CatalogItemID, &u.LocationID, &u.Description,
		&u.Quantity, &u.TotalValue, &u.UnitCost, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stock unit %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch stock unit %d: %w", id, err)
	}
	return &u, nil
}

func (s *stockUnitService) ListEntries(ctx context.Context, stockUnitID int) ([]StockEntry, error) {
	if _, err := s.GetStockUnitState(ctx, stockUnitID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, entrySelect+`
		WHERE stock_unit_id = $1
		ORDER BY timestamp, id
	`, stockUnitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for unit %d: %w", stockUnitID, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *stockUnitService) AppendEntry(ctx context.Context, in AppendEntryInput) (*StockEntry, error) {
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("unknown operation kind %q", in.Kind)
	}
	if in.Absolute {
		return nil, fmt.Errorf("absolute quantities are not supported, supply a delta: %w", ErrInvalidQuantity)
	}

	var entry *StockEntry
	err := s.mutate(ctx, "append", in.StockUnitID, func(ctx context.Context, tx pgx.Tx) error {
		// The location flag can be toggled after the unit was created;
		// re-check on every append.
		var canStore bool
		err := tx.QueryRow(ctx, `
			SELECT l.can_store_items
			FROM stock_units su
			JOIN locations l ON l.id = su.location_id
			WHERE su.id = $1
		`, in.StockUnitID).Scan(&canStore)
		if err != nil {
			return fmt.Errorf("failed to resolve location for unit %d: %w", in.StockUnitID, err)
		}
		if !canStore {
			return fmt.Errorf("stock unit %d: %w", in.StockUnitID, ErrInvalidLocation)
		}

		ts := time.Now().UTC()
		if in.Timestamp != nil {
			ts = *in.Timestamp
		}

		// Advisory back-link to the chronologically latest entry. Audit
		// trail only; ordering authority stays (timestamp, id).
		var priorID *int
		err = tx.QueryRow(ctx, `
			SELECT id FROM stock_entries
			WHERE stock_unit_id = $1
			ORDER BY timestamp DESC, id DESC
			LIMIT 1
		`, in.StockUnitID).Scan(&priorID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to resolve prior entry: %w", err)
		}

		e := StockEntry{
			StockUnitID:      in.StockUnitID,
			Kind:             in.Kind,
			Quantity:         in.Quantity,
			UnitPrice:        in.UnitPrice,
			Timestamp:        ts,
			RelativeQuantity: true,
			GroupingRef:      in.GroupingRef,
			PriorEntryID:     priorID,
			Description:      in.Description,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO stock_entries (stock_unit_id, kind, quantity, unit_price, timestamp, relative_quantity, grouping_ref, prior_entry_id, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, e.StockUnitID, string(e.Kind), e.Quantity, e.UnitPrice, e.Timestamp,
			e.RelativeQuantity, e.GroupingRef, e.PriorEntryID, e.Description,
		).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("failed to insert stock entry: %w", err)
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *stockUnitService) EditEntry(ctx context.Context, entryID int, changes EntryChanges) error {
	if changes.Kind != nil && !changes.Kind.Valid() {
		return fmt.Errorf("unknown operation kind %q", *changes.Kind)
	}
	unitID, err := s.entryOwner(ctx, entryID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "edit", unitID, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE stock_entries SET
				kind        = COALESCE($2, kind),
				quantity    = COALESCE($3, quantity),
				unit_price  = CASE WHEN $4 THEN $5 ELSE unit_price END,
				timestamp   = COALESCE($6, timestamp),
				description = COALESCE($7, description)
			WHERE id = $1
		`, entryID,
			(*string)(changes.Kind), changes.Quantity,
			changes.UnitPrice != nil, changes.UnitPrice,
			changes.Timestamp, changes.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to update entry %d: %w", entryID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("entry %d: %w", entryID, ErrNotFound)
		}
		return nil
	})
}

func (s *stockUnitService) RemoveEntry(ctx context.Context, entryID int) error {
	unitID, err := s.entryOwner(ctx, entryID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "remove", unitID, func(ctx context.Context, tx pgx.Tx) error {
		// Detach back-links first; prior_entry_id is advisory and must not
		// block corrections.
		if _, err := tx.Exec(ctx,
			"UPDATE stock_entries SET prior_entry_id = NULL WHERE prior_entry_id = $1", entryID,
		); err != nil {
			return fmt.Errorf("failed to detach back-links of entry %d: %w", entryID, err)
		}
		tag, err := tx.Exec(ctx, "DELETE FROM stock_entries WHERE id = $1", entryID)
		if err != nil {
			return fmt.Errorf("failed to delete entry %d: %w", entryID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("entry %d: %w", entryID, ErrNotFound)
		}
		return nil
	})
}

// entryOwner resolves the stock unit an entry belongs to.
func (s *stockUnitService) entryOwner(ctx context.Context, entryID int) (int, error) {
	var unitID int
	err := s.pool.QueryRow(ctx,
		"SELECT stock_unit_id FROM stock_entries WHERE id = $1", entryID,
	).Scan(&unitID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("entry %d: %w", entryID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to resolve entry %d: %w", entryID, err)
	}
	return unitID, nil
}

// mutate runs fn and a full recompute of the unit inside one transaction,
// serialized per unit by locking the stock_units row. Lock contention is
// retried a bounded number of times.
func (s *stockUnitService) mutate(ctx context.Context, op string, stockUnitID int, fn func(context.Context, pgx.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		err := s.mutateOnce(ctx, op, stockUnitID, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
		metrics.MutationRetries.Inc()
	}
	return fmt.Errorf("stock unit %d after %d attempts: %w (%v)",
		stockUnitID, maxMutationAttempts, ErrConcurrentModification, lastErr)
}

func (s *stockUnitService) mutateOnce(ctx context.Context, op string, stockUnitID int, fn func(context.Context, pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Single writer per unit.
	var lockedID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM stock_units WHERE id = $1 FOR UPDATE", stockUnitID,
	).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("stock unit %d: %w", stockUnitID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock stock unit %d: %w", stockUnitID, err)
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := s.recomputeTx(ctx, tx, op, stockUnitID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit mutation of unit %d: %w", stockUnitID, err)
	}
	return nil
}

// recomputeTx reloads the unit's full ledger, runs the costing engine and
// overwrites the cached triple, all within the caller's transaction.
func (s *stockUnitService) recomputeTx(ctx context.Context, tx pgx.Tx, op string, stockUnitID int) error {
	started := time.Now()

	rows, err := tx.Query(ctx, entrySelect+`
		WHERE stock_unit_id = $1
		ORDER BY timestamp, id
	`, stockUnitID)
	if err != nil {
		return fmt.Errorf("failed to load entries of unit %d: %w", stockUnitID, err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return err
	}

	v := RecomputeValuation(entries)

	_, err = tx.Exec(ctx, `
		UPDATE stock_units
		SET quantity = $1, total_value = $2, unit_cost = $3, updated_at = NOW()
		WHERE id = $4
	`, v.Quantity, v.TotalValue, v.UnitCost, stockUnitID)
	if err != nil {
		return fmt.Errorf("failed to write valuation of unit %d: %w", stockUnitID, err)
	}

	metrics.RecomputeTotal.WithLabelValues(op).Inc()
	metrics.RecomputeDuration.Observe(time.Since(started).Seconds())
	return nil
}

const entrySelect = `
	SELECT id, stock_unit_id, kind, quantity, unit_price, timestamp,
	       relative_quantity, grouping_ref, prior_entry_id, description
	FROM stock_entries`

func scanEntries(rows pgx.Rows) ([]StockEntry, error) {
	defer rows.Close()
	var entries []StockEntry
	for rows.Next() {
		var e StockEntry
		var kind string
		if err := rows.Scan(
			&e.ID, &e.StockUnitID, &kind, &e.Quantity, &e.UnitPrice, &e.Timestamp,
			&e.RelativeQuantity, &e.GroupingRef, &e.PriorEntryID, &e.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock entry: %w", err)
		}
		e.Kind = OperationKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock entries: %w", err)
	}
	return entries, nil
}

// isSerializationFailure matches Postgres lock-level conflicts that are
// safe to retry: serialization_failure (40001) and deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
