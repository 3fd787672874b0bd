package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `id, rider_id, driver_id, phase, status,
	origin_lat, origin_lng, dest_lat, dest_lng, origin_addr, dest_addr,
	fare, distance_km, duration_sec, platform_fee, driver_payout, insurance_fee,
	payment_method, payment_ref,
	created_at, confirmed_at, boarded_at, disembarked_at, closed_at, accept_deadline,
	cancelled_by, cancel_reason, rating`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		nullString(ride.DriverID),
		ride.Phase,
		ride.Status,
		ride.OriginLat,
		ride.OriginLng,
		ride.DestLat,
		ride.DestLng,
		ride.OriginAddr,
		ride.DestAddr,
		ride.Fare,
		ride.DistanceKM,
		ride.DurationSec,
		ride.PlatformFee,
		ride.DriverPayout,
		ride.InsuranceFee,
		ride.PaymentMethod,
		nullString(ride.PaymentRef),
		ride.CreatedAt,
		nullTime(ride.ConfirmedAt),
		nullTime(ride.BoardedAt),
		nullTime(ride.DisembarkedAt),
		nullTime(ride.ClosedAt),
		nullTime(ride.AcceptDeadline),
		nullString(ride.CancelledBy),
		nullString(ride.CancelReason),
		ride.Rating,
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// Accept assigns a driver with a compare-and-swap over driver_id guarded by
// phase. The WHERE clause is the arbitration point: of N concurrent attempts
// exactly one matches a row, the rest see zero rows affected.
func (r *RideRepository) Accept(ctx context.Context, id string, upd repository.AcceptUpdate) error {
	query := `
		UPDATE rides
		SET driver_id = $1, phase = $2, confirmed_at = $3, accept_deadline = $4
		WHERE id = $5 AND phase = $6 AND driver_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query,
		upd.DriverID,
		domain.RidePhaseInService,
		upd.ConfirmedAt,
		upd.AcceptDeadline,
		id,
		domain.RidePhaseRequested,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Update updates an existing ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET phase = $1, status = $2, payment_ref = $3,
			boarded_at = $4, disembarked_at = $5, closed_at = $6,
			cancelled_by = $7, cancel_reason = $8, rating = $9
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		ride.Phase,
		ride.Status,
		nullString(ride.PaymentRef),
		nullTime(ride.BoardedAt),
		nullTime(ride.DisembarkedAt),
		nullTime(ride.ClosedAt),
		nullString(ride.CancelledBy),
		nullString(ride.CancelReason),
		ride.Rating,
		ride.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByRider retrieves a rider's non-terminal rides, newest first.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE rider_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 100
	`
	return r.list(ctx, query, riderID, domain.RideStatusPending)
}

// ListByDriver retrieves a driver's non-terminal rides, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE driver_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 100
	`
	return r.list(ctx, query, driverID, domain.RideStatusPending)
}

// ListDispatchable retrieves rides still eligible for the dispatch pool.
func (r *RideRepository) ListDispatchable(ctx context.Context, createdAfter time.Time) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE phase = $1 AND status = $2 AND created_at >= $3
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, domain.RidePhaseRequested, domain.RideStatusPending, createdAfter)
}

// ListCreatedSince retrieves all rides created after the cutoff, newest first.
func (r *RideRepository) ListCreatedSince(ctx context.Context, createdAfter time.Time) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, createdAfter)
}

// SumDriverPayout sums payouts over PAID rides closed at or after the cutoff.
func (r *RideRepository) SumDriverPayout(ctx context.Context, driverID string, closedSince time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(driver_payout), 0) FROM rides
		WHERE driver_id = $1 AND status = $2 AND ($3::timestamptz IS NULL OR closed_at >= $3)
	`

	var total float64
	err := r.q.QueryRowContext(ctx, query, driverID, domain.RideStatusPaid, nullTime(closedSince)).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, paymentRef, cancelledBy, cancelReason sql.NullString
	var confirmedAt, boardedAt, disembarkedAt, closedAt, acceptDeadline sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.RiderID,
		&driverID,
		&ride.Phase,
		&ride.Status,
		&ride.OriginLat,
		&ride.OriginLng,
		&ride.DestLat,
		&ride.DestLng,
		&ride.OriginAddr,
		&ride.DestAddr,
		&ride.Fare,
		&ride.DistanceKM,
		&ride.DurationSec,
		&ride.PlatformFee,
		&ride.DriverPayout,
		&ride.InsuranceFee,
		&ride.PaymentMethod,
		&paymentRef,
		&ride.CreatedAt,
		&confirmedAt,
		&boardedAt,
		&disembarkedAt,
		&closedAt,
		&acceptDeadline,
		&cancelledBy,
		&cancelReason,
		&ride.Rating,
	)
	if err != nil {
		return nil, err
	}

	ride.DriverID = driverID.String
	ride.PaymentRef = paymentRef.String
	ride.CancelledBy = cancelledBy.String
	ride.CancelReason = cancelReason.String
	ride.ConfirmedAt = confirmedAt.Time
	ride.BoardedAt = boardedAt.Time
	ride.DisembarkedAt = disembarkedAt.Time
	ride.ClosedAt = closedAt.Time
	ride.AcceptDeadline = acceptDeadline.Time

	return &ride, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
