package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	MinReservationPriority = 1
	MaxReservationPriority = 5

	defaultReservationPriority = 3
)

// CreateReservationInput describes a new soft hold on a catalog item.
type CreateReservationInput struct {
	CatalogItemID int
	Quantity      decimal.Decimal
	ReservedBy    string
	// Priority defaults to 3 when zero; valid range 1..5.
	Priority    int
	Description string
	ExpiresAt   *time.Time
}

// ReservationService manages soft holds against catalog items. Reservations
// never touch the stock ledger; they are only subtracted from availability
// while active.
type ReservationService interface {
	Create(ctx context.Context, in CreateReservationInput) (*Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID) error

	// ListActive returns the item's reservations still counting against
	// availability at the given instant, highest priority first.
	ListActive(ctx context.Context, catalogItemID int, at time.Time) ([]Reservation, error)
}

type reservationService struct {
	pool *pgxpool.Pool
}

func NewReservationService(pool *pgxpool.Pool) ReservationService {
	return &reservationService{pool: pool}
}

func (s *reservationService) Create(ctx context.Context, in CreateReservationInput) (*Reservation, error) {
	if in.Quantity.Sign() <= 0 {
		return nil, fmt.Errorf("reservation quantity must be positive, got %s: %w", in.Quantity, ErrInvalidQuantity)
	}
	if in.ReservedBy == "" {
		return nil, fmt.Errorf("reserved_by must not be empty")
	}
	priority := in.Priority
	if priority == 0 {
		priority = defaultReservationPriority
	}
	if priority < MinReservationPriority || priority > MaxReservationPriority {
		return nil, fmt.Errorf("reservation priority %d out of range %d..%d",
			priority, MinReservationPriority, MaxReservationPriority)
	}

	r := Reservation{
		ID:            uuid.New(),
		CatalogItemID: in.CatalogItemID,
		Quantity:      in.Quantity,
		ReservedBy:    in.ReservedBy,
		Priority:      priority,
		Description:   in.Description,
		ExpiresAt:     in.ExpiresAt,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO reservations (id, catalog_item_id, quantity, reserved_by, priority, description, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, r.ID, r.CatalogItemID, r.Quantity, r.ReservedBy, r.Priority, r.Description, r.ExpiresAt,
	).Scan(&r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("catalog item %d: %w", in.CatalogItemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}
	return &r, nil
}

func (s *reservationService) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM reservations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *reservationService) ListActive(ctx context.Context, catalogItemID int, at time.Time) ([]Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, catalog_item_id, quantity, reserved_by, priority, description, created_at, expires_at
		FROM reservations
		WHERE catalog_item_id = $1
		  AND (expires_at IS NULL OR expires_at >= $2)
		ORDER BY priority, created_at
	`, catalogItemID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations of item %d: %w", catalogItemID, err)
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(
			&r.ID, &r.CatalogItemID, &r.Quantity, &r.ReservedBy,
			&r.Priority, &r.Description, &r.CreatedAt, &r.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}
	return reservations, nil
}
