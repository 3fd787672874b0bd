package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// AcceptUpdate carries the fields the winning acceptance writes.
type AcceptUpdate struct {
	DriverID       string
	ConfirmedAt    time.Time
	AcceptDeadline time.Time
}

// EarningsWindow is the time scope of an earnings aggregation.
type EarningsWindow string

const (
	EarningsToday     EarningsWindow = "TODAY"
	EarningsThisWeek  EarningsWindow = "THIS_WEEK"
	EarningsThisMonth EarningsWindow = "THIS_MONTH"
	EarningsAllTime   EarningsWindow = "ALL_TIME"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// Accept assigns a driver to a ride with a conditional update: the write
	// only applies while the ride is still REQUESTED with no driver set.
	// Returns ErrNotFound when the condition does not hold, which is how
	// concurrent acceptance attempts are arbitrated.
	Accept(ctx context.Context, id string, upd AcceptUpdate) error

	// Update updates an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error

	// ListByRider retrieves a rider's non-terminal rides, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error)

	// ListByDriver retrieves a driver's non-terminal rides, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// ListDispatchable retrieves REQUESTED+PENDING rides created after the
	// cutoff, oldest first. Rides older than the cutoff have gone stale and
	// are no longer offered to drivers.
	ListDispatchable(ctx context.Context, createdAfter time.Time) ([]*domain.Ride, error)

	// ListCreatedSince retrieves all rides created after the cutoff, newest
	// first. Operator monitoring view.
	ListCreatedSince(ctx context.Context, createdAfter time.Time) ([]*domain.Ride, error)

	// SumDriverPayout sums driver payouts over PAID rides closed at or after
	// the given instant. A zero time means all time.
	SumDriverPayout(ctx context.Context, driverID string, closedSince time.Time) (float64, error)
}
