package domain

import "time"

// RidePhase tracks a ride's progress through the trip.
type RidePhase string

const (
	RidePhaseRequested RidePhase = "REQUESTED"
	RidePhaseInService RidePhase = "IN_SERVICE"
	RidePhaseBoarded   RidePhase = "BOARDED"
	RidePhaseCompleted RidePhase = "COMPLETED"
)

// RideStatus is the administrative outcome of a ride, orthogonal to phase.
type RideStatus string

const (
	RideStatusPending   RideStatus = "PENDING"
	RideStatusCancelled RideStatus = "CANCELLED"
	RideStatusPaid      RideStatus = "PAID"
)

// RatingUnset marks a ride the rider has not scored yet.
const RatingUnset = -1

// Ride is the central entity: one request-to-completion transport trip.
// DriverID is empty until a driver wins acceptance and is never reassigned.
// Financial fields are captured once from the fare estimator at creation
// and never recomputed.
type Ride struct {
	ID       string
	RiderID  string
	DriverID string

	Phase  RidePhase
	Status RideStatus

	OriginLat  float64
	OriginLng  float64
	DestLat    float64
	DestLng    float64
	OriginAddr string
	DestAddr   string

	Fare         float64
	DistanceKM   float64
	DurationSec  int
	PlatformFee  float64
	DriverPayout float64
	InsuranceFee float64

	PaymentMethod PaymentMethod
	PaymentRef    string

	CreatedAt      time.Time
	ConfirmedAt    time.Time
	BoardedAt      time.Time
	DisembarkedAt  time.Time
	ClosedAt       time.Time
	AcceptDeadline time.Time // cancellation grace limit while IN_SERVICE

	CancelledBy  string
	CancelReason string

	Rating int
}

// Accepted reports whether a driver has been assigned.
func (r *Ride) Accepted() bool {
	return r.DriverID != ""
}

// Terminal reports whether the ride can no longer change phase.
func (r *Ride) Terminal() bool {
	return r.Status == RideStatusCancelled
}
