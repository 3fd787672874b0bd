package repository

import (
	"context"

	"dispatch/internal/domain"
)

// PositionRepository defines the append-only position log. There is no
// update or delete contract.
type PositionRepository interface {
	// Append persists a new position record.
	Append(ctx context.Context, pos *domain.Position) error

	// ListByRide retrieves all positions logged for a ride, oldest first.
	ListByRide(ctx context.Context, rideID string) ([]*domain.Position, error)
}
