package service

import "errors"

var (
	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidOrigin is returned when origin coordinates are invalid.
	ErrInvalidOrigin = errors.New("invalid origin location")

	// ErrInvalidDestination is returned when destination coordinates are invalid.
	ErrInvalidDestination = errors.New("invalid destination location")

	// ErrMissingAddress is returned when an address string is empty.
	ErrMissingAddress = errors.New("address is required")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidRating is returned when a rating is outside 0-5.
	ErrInvalidRating = errors.New("rating must be between 0 and 5")

	// ErrEstimateFailed is returned when the fare estimator cannot produce a quote.
	ErrEstimateFailed = errors.New("fare estimation failed")

	// ErrRideAlreadyAccepted is returned when a driver loses the acceptance race
	// or the ride has otherwise moved past REQUESTED.
	ErrRideAlreadyAccepted = errors.New("ride already accepted by another driver")

	// ErrRideCancelled is returned when acting on a cancelled ride.
	ErrRideCancelled = errors.New("ride already cancelled")

	// ErrInvalidTransition is returned when the action is illegal for the
	// ride's current phase.
	ErrInvalidTransition = errors.New("action not allowed in current ride phase")

	// ErrCancellationExpired is returned when the grace deadline has elapsed.
	ErrCancellationExpired = errors.New("cancellation window has expired")

	// ErrNotRideRider is returned when the caller is not the ride's rider.
	ErrNotRideRider = errors.New("ride does not belong to this rider")

	// ErrNotRideDriver is returned when the caller is not the ride's driver.
	ErrNotRideDriver = errors.New("ride does not belong to this driver")

	// ErrDriverIneligible is returned when the driver has an outstanding
	// pendency with the platform.
	ErrDriverIneligible = errors.New("driver is not eligible to accept rides")

	// ErrDriverUnavailable is returned when the driver is not marked available.
	ErrDriverUnavailable = errors.New("driver is not available")

	// ErrPaymentRequired is returned when boarding needs a payment reference
	// that was never supplied.
	ErrPaymentRequired = errors.New("payment reference required for this payment method")

	// ErrPaymentFailed is returned when the gateway refuses the capture.
	ErrPaymentFailed = errors.New("payment capture failed")
)
