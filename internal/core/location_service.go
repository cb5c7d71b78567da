package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LocationService manages the warehouse location directory. Locations form
// a tree via ParentID; only nodes flagged can_store_items may hold stock
// units.
type LocationService interface {
	CreateLocation(ctx context.Context, name string, parentID *int, canStoreItems bool, description string) (*Location, error)
	GetLocation(ctx context.Context, id int) (*Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
}

type locationService struct {
	pool *pgxpool.Pool
}

func NewLocationService(pool *pgxpool.Pool) LocationService {
	return &locationService{pool: pool}
}

func (s *locationService) CreateLocation(ctx context.Context, name string, parentID *int, canStoreItems bool, description string) (*Location, error) {
	if name == "" {
		return nil, fmt.Errorf("location name must not be empty")
	}
	if parentID != nil {
		if _, err := s.GetLocation(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("parent location: %w", err)
		}
	}
	var loc Location
	err := s.pool.QueryRow(ctx, `
		INSERT INTO locations (name, parent_id, can_store_items, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, parent_id, can_store_items, description
	`, name, parentID, canStoreItems, description).Scan(
		&loc.ID, &loc.Name, &loc.ParentID, &loc.CanStoreItems, &loc.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return &loc, nil
}

func (s *locationService) GetLocation(ctx context.Context, id int) (*Location, error) {
	var loc Location
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, parent_id, can_store_items, description FROM locations WHERE id = $1
	`, id).Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.CanStoreItems, &loc.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("location %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch location %d: %w", id, err)
	}
	return &loc, nil
}

func (s *locationService) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, parent_id, can_store_items, description
		FROM locations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.CanStoreItems, &loc.Description); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}
	return locations, nil
}
