package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dispatch/internal/config"
	"dispatch/internal/domain"
	internalredis "dispatch/internal/redis"
	"dispatch/internal/repository"
	"dispatch/internal/repository/postgres"
)

const acceptLockTTL = 10 * time.Second

// LifecycleService owns the ride state machine. Every mutation of a ride,
// of the position log, and of driver availability goes through here, inside
// a single transaction per actor action. Notifications and dispatch pool
// signals happen only after commit.
type LifecycleService struct {
	db           *sql.DB
	rideRepo     repository.RideRepository
	positionRepo repository.PositionRepository
	driverRepo   repository.DriverRepository
	estimator    FareEstimator
	gateway      PaymentGateway
	eligibility  EligibilityChecker
	notifier     *NotificationService
	lockStore    internalredis.LockStoreInterface
	poolStore    internalredis.PoolStoreInterface
	settings     *config.DispatchSettings
	log          *zap.Logger

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	db *sql.DB,
	rideRepo repository.RideRepository,
	positionRepo repository.PositionRepository,
	driverRepo repository.DriverRepository,
	estimator FareEstimator,
	gateway PaymentGateway,
	eligibility EligibilityChecker,
	notifier *NotificationService,
	lockStore internalredis.LockStoreInterface,
	poolStore internalredis.PoolStoreInterface,
	settings *config.DispatchSettings,
	log *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		db:           db,
		rideRepo:     rideRepo,
		positionRepo: positionRepo,
		driverRepo:   driverRepo,
		estimator:    estimator,
		gateway:      gateway,
		eligibility:  eligibility,
		notifier:     notifier,
		lockStore:    lockStore,
		poolStore:    poolStore,
		settings:     settings,
		log:          log,
		now:          time.Now,
	}
}

// RequestRideInput contains the parameters for requesting a ride.
type RequestRideInput struct {
	RiderID       string
	Origin        LatLng
	Destination   LatLng
	OriginAddr    string
	DestAddr      string
	PaymentMethod domain.PaymentMethod
	PaymentRef    string
}

// RequestRide creates a ride in REQUESTED/PENDING with the fare snapshot and
// the rider's origin and destination positions, all in one transaction.
func (s *LifecycleService) RequestRide(ctx context.Context, in RequestRideInput) (*domain.Ride, error) {
	if in.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if !in.Origin.Valid() {
		return nil, ErrInvalidOrigin
	}
	if !in.Destination.Valid() {
		return nil, ErrInvalidDestination
	}
	if in.OriginAddr == "" || in.DestAddr == "" {
		return nil, ErrMissingAddress
	}
	if !in.PaymentMethod.Known() {
		return nil, ErrInvalidPaymentMethod
	}

	quote, err := s.estimator.Estimate(ctx, in.Origin, in.Destination)
	if err != nil {
		s.log.Warn("fare estimation failed", zap.String("rider_id", in.RiderID), zap.Error(err))
		return nil, ErrEstimateFailed
	}

	now := s.now()
	ride := &domain.Ride{
		ID:            uuid.New().String(),
		RiderID:       in.RiderID,
		Phase:         domain.RidePhaseRequested,
		Status:        domain.RideStatusPending,
		OriginLat:     in.Origin.Lat,
		OriginLng:     in.Origin.Lng,
		DestLat:       in.Destination.Lat,
		DestLng:       in.Destination.Lng,
		OriginAddr:    in.OriginAddr,
		DestAddr:      in.DestAddr,
		Fare:          quote.Fare,
		DistanceKM:    quote.DistanceKM,
		DurationSec:   quote.DurationSec,
		PlatformFee:   quote.PlatformFee,
		DriverPayout:  quote.DriverPayout,
		InsuranceFee:  quote.InsuranceFee,
		PaymentMethod: in.PaymentMethod,
		PaymentRef:    in.PaymentRef,
		CreatedAt:     now,
		Rating:        domain.RatingUnset,
	}

	err = s.inTx(ctx, func(rides repository.RideRepository, positions repository.PositionRepository, _ repository.DriverRepository) error {
		if err := rides.Create(ctx, ride); err != nil {
			return err
		}
		if err := positions.Append(ctx, s.ridePosition(ride.ID, in.RiderID, in.OriginAddr, in.Origin, now)); err != nil {
			return err
		}
		return positions.Append(ctx, s.ridePosition(ride.ID, in.RiderID, in.DestAddr, in.Destination, now))
	})
	if err != nil {
		return nil, err
	}

	if s.poolStore != nil {
		if err := s.poolStore.Add(ctx, ride.ID); err != nil {
			s.log.Warn("dispatch pool add failed", zap.String("ride_id", ride.ID), zap.Error(err))
		}
	}
	s.notifier.SearchStarted(ctx, ride)

	return ride, nil
}

// AcceptRideInput contains the parameters for a driver accepting a ride.
type AcceptRideInput struct {
	DriverID   string
	RideID     string
	Origin     LatLng
	OriginAddr string
}

// AcceptRide arbitrates concurrent acceptance attempts. The database-level
// conditional update is the authority: of N simultaneous calls exactly one
// commits, the rest return ErrRideAlreadyAccepted with no state change.
func (s *LifecycleService) AcceptRide(ctx context.Context, in AcceptRideInput) (*domain.Ride, error) {
	if in.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if in.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if !in.Origin.Valid() {
		return nil, ErrInvalidOrigin
	}
	if in.OriginAddr == "" {
		return nil, ErrMissingAddress
	}

	// Advisory fast path: sheds most losers before they hit the database.
	// Correctness does not depend on it.
	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireRideLock(ctx, in.RideID, acceptLockTTL)
		if err != nil {
			s.log.Warn("accept lock unavailable", zap.String("ride_id", in.RideID), zap.Error(err))
		} else if !locked {
			return nil, ErrRideAlreadyAccepted
		} else {
			defer func() { _ = s.lockStore.ReleaseRideLock(ctx, in.RideID) }()
		}
	}

	ride, err := s.rideRepo.GetByID(ctx, in.RideID)
	if err != nil {
		return nil, err
	}
	if ride.Status == domain.RideStatusCancelled {
		return nil, ErrRideCancelled
	}
	if ride.Phase != domain.RidePhaseRequested || ride.Accepted() {
		return nil, ErrRideAlreadyAccepted
	}

	eligible, err := s.eligibility.Eligible(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrDriverIneligible
	}

	driver, err := s.driverRepo.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}
	if !driver.Available {
		return nil, ErrDriverUnavailable
	}

	now := s.now()
	upd := repository.AcceptUpdate{
		DriverID:       in.DriverID,
		ConfirmedAt:    now,
		AcceptDeadline: now.Add(s.settings.Values().GraceOnAcceptance),
	}

	err = s.inTx(ctx, func(rides repository.RideRepository, positions repository.PositionRepository, drivers repository.DriverRepository) error {
		if err := rides.Accept(ctx, in.RideID, upd); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Another driver's conditional update won between our read
				// and this write.
				return ErrRideAlreadyAccepted
			}
			return err
		}
		if err := drivers.SetAvailable(ctx, in.DriverID, false); err != nil {
			return err
		}
		return positions.Append(ctx, s.driverPosition(in.RideID, in.DriverID, in.OriginAddr, in.Origin, now))
	})
	if err != nil {
		return nil, err
	}

	ride.DriverID = in.DriverID
	ride.Phase = domain.RidePhaseInService
	ride.ConfirmedAt = upd.ConfirmedAt
	ride.AcceptDeadline = upd.AcceptDeadline

	if s.poolStore != nil {
		if err := s.poolStore.Remove(ctx, ride.ID, internalredis.PoolRemoveAccepted); err != nil {
			s.log.Warn("dispatch pool remove failed", zap.String("ride_id", ride.ID), zap.Error(err))
		}
	}
	s.notifier.RideAccepted(ctx, ride)

	return ride, nil
}

// ArriveAtPickup signals the driver is waiting at the pickup point. It is an
// idempotent notification, not a phase transition.
func (s *LifecycleService) ArriveAtPickup(ctx context.Context, driverID, rideID string) error {
	ride, err := s.driverRide(ctx, driverID, rideID)
	if err != nil {
		return err
	}

	s.notifier.DriverAtPickup(ctx, ride)
	return nil
}

// BoardPassenger registers boarding. For card-on-file rides the gateway
// capture happens first; only a successful capture lets the transition
// persist. A capture that succeeds but fails to persist is logged for manual
// reconciliation since the gateway and the store share no transaction.
func (s *LifecycleService) BoardPassenger(ctx context.Context, driverID, rideID, paymentRef string) (*domain.Ride, error) {
	ride, err := s.driverRide(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Phase != domain.RidePhaseInService {
		return nil, ErrInvalidTransition
	}

	if paymentRef != "" && ride.PaymentRef == "" {
		ride.PaymentRef = paymentRef
	}

	captured := false
	if ride.PaymentMethod.RequiresCapture() {
		if ride.PaymentRef == "" {
			return nil, ErrPaymentRequired
		}
		if err := s.gateway.Capture(ctx, ride.PaymentRef); err != nil {
			s.log.Warn("payment capture refused",
				zap.String("ride_id", ride.ID),
				zap.String("payment_ref", ride.PaymentRef),
				zap.Error(err),
			)
			return nil, ErrPaymentFailed
		}
		captured = true
	}

	ride.BoardedAt = s.now()
	ride.Phase = domain.RidePhaseBoarded

	if err := s.rideRepo.Update(ctx, ride); err != nil {
		if captured {
			s.log.Error("captured payment without persisted boarding, manual reconciliation required",
				zap.String("ride_id", ride.ID),
				zap.String("payment_ref", ride.PaymentRef),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.notifier.PassengerBoarded(ctx, ride)
	return ride, nil
}

// DropOffPassenger completes the ride: phase COMPLETED, status PAID, driver
// available again, all in one transaction.
func (s *LifecycleService) DropOffPassenger(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	ride, err := s.driverRide(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Phase != domain.RidePhaseBoarded {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	ride.DisembarkedAt = now
	ride.ClosedAt = now
	ride.Phase = domain.RidePhaseCompleted
	ride.Status = domain.RideStatusPaid

	err = s.inTx(ctx, func(rides repository.RideRepository, _ repository.PositionRepository, drivers repository.DriverRepository) error {
		if err := rides.Update(ctx, ride); err != nil {
			return err
		}
		return drivers.SetAvailable(ctx, driverID, true)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.RideCompleted(ctx, ride)
	return ride, nil
}

// RateRide records the rider's score. The ride is forced to COMPLETED,
// idempotently. Re-rating overwrites the previous score.
func (s *LifecycleService) RateRide(ctx context.Context, riderID, rideID string, rating int) (*domain.Ride, error) {
	if rating < 0 || rating > 5 {
		return nil, ErrInvalidRating
	}

	ride, err := s.riderRide(ctx, riderID, rideID)
	if err != nil {
		return nil, err
	}

	ride.Phase = domain.RidePhaseCompleted
	ride.Rating = rating

	if err := s.rideRepo.Update(ctx, ride); err != nil {
		return nil, err
	}
	return ride, nil
}

// CancelByRider cancels on behalf of the rider. While the ride is IN_SERVICE
// the grace deadline is enforced strictly.
func (s *LifecycleService) CancelByRider(ctx context.Context, riderID, rideID, reason string) (*domain.Ride, error) {
	ride, err := s.riderRide(ctx, riderID, rideID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, ride, riderID, reason)
}

// CancelByDriver cancels on behalf of the driver, under the same deadline rule.
func (s *LifecycleService) CancelByDriver(ctx context.Context, driverID, rideID, reason string) (*domain.Ride, error) {
	ride, err := s.driverRide(ctx, driverID, rideID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, ride, driverID, reason)
}

func (s *LifecycleService) cancel(ctx context.Context, ride *domain.Ride, actorID, reason string) (*domain.Ride, error) {
	if ride.Phase == domain.RidePhaseInService && s.now().After(ride.AcceptDeadline) {
		return nil, ErrCancellationExpired
	}

	ride.Status = domain.RideStatusCancelled
	ride.ClosedAt = s.now()
	ride.CancelledBy = actorID
	ride.CancelReason = reason

	hadDriver := ride.Accepted()

	err := s.inTx(ctx, func(rides repository.RideRepository, _ repository.PositionRepository, drivers repository.DriverRepository) error {
		if err := rides.Update(ctx, ride); err != nil {
			return err
		}
		if hadDriver {
			// The driver goes back into rotation when the ride dies under them.
			return drivers.SetAvailable(ctx, ride.DriverID, true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !hadDriver && s.poolStore != nil {
		if err := s.poolStore.Remove(ctx, ride.ID, internalredis.PoolRemoveCancelled); err != nil {
			s.log.Warn("dispatch pool remove failed", zap.String("ride_id", ride.ID), zap.Error(err))
		}
	}
	s.notifier.RideCancelled(ctx, ride)

	return ride, nil
}

// GetRide fetches a ride, enforcing that the caller is one of its parties.
func (s *LifecycleService) GetRide(ctx context.Context, actorID, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != actorID && ride.DriverID != actorID {
		return nil, ErrNotRideRider
	}
	return ride, nil
}

// ListActiveForRider returns the rider's non-terminal rides.
func (s *LifecycleService) ListActiveForRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.rideRepo.ListByRider(ctx, riderID)
}

// ListActiveForDriver returns the driver's non-terminal rides.
func (s *LifecycleService) ListActiveForDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.rideRepo.ListByDriver(ctx, driverID)
}

// PoolEntry is the trimmed dispatch pool view offered to drivers. Only route
// coordinates are exposed; rider identity and addresses stay private.
type PoolEntry struct {
	RideID    string
	OriginLat float64
	OriginLng float64
	DestLat   float64
	DestLng   float64
}

// ListDispatchPool returns rides still being offered to drivers: REQUESTED,
// PENDING, and younger than the inactivity threshold. The threshold is read
// lazily from the settings snapshot on every call.
func (s *LifecycleService) ListDispatchPool(ctx context.Context) ([]PoolEntry, error) {
	cutoff := s.now().Add(-s.settings.Values().InactiveRideThreshold)

	rides, err := s.rideRepo.ListDispatchable(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	entries := make([]PoolEntry, 0, len(rides))
	for _, r := range rides {
		entries = append(entries, PoolEntry{
			RideID:    r.ID,
			OriginLat: r.OriginLat,
			OriginLng: r.OriginLng,
			DestLat:   r.DestLat,
			DestLng:   r.DestLng,
		})
	}
	return entries, nil
}

// MonitorRecent returns every ride created in the given lookback window.
// Operator view.
func (s *LifecycleService) MonitorRecent(ctx context.Context, lookback time.Duration) ([]*domain.Ride, error) {
	return s.rideRepo.ListCreatedSince(ctx, s.now().Add(-lookback))
}

// driverRide loads a ride and checks driver ownership plus terminal state.
func (s *LifecycleService) driverRide(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status == domain.RideStatusCancelled {
		return nil, ErrRideCancelled
	}
	if ride.DriverID != driverID {
		return nil, ErrNotRideDriver
	}
	return ride, nil
}

// riderRide loads a ride and checks rider ownership plus terminal state.
func (s *LifecycleService) riderRide(ctx context.Context, riderID, rideID string) (*domain.Ride, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status == domain.RideStatusCancelled {
		return nil, ErrRideCancelled
	}
	if ride.RiderID != riderID {
		return nil, ErrNotRideRider
	}
	return ride, nil
}

// txFunc runs repository operations scoped to one transaction.
type txFunc func(rides repository.RideRepository, positions repository.PositionRepository, drivers repository.DriverRepository) error

// inTx wraps fn in a database transaction when a *sql.DB is wired, falling
// back to the injected repositories otherwise (tests run without a database).
func (s *LifecycleService) inTx(ctx context.Context, fn txFunc) error {
	if s.db == nil {
		return fn(s.rideRepo, s.positionRepo, s.driverRepo)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = fn(
		postgres.NewRideRepositoryWithTx(tx),
		postgres.NewPositionRepositoryWithTx(tx),
		postgres.NewDriverRepositoryWithTx(tx),
	)
	if err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

func (s *LifecycleService) ridePosition(rideID, actorID, address string, at LatLng, now time.Time) *domain.Position {
	return &domain.Position{
		ID:        uuid.New().String(),
		OwnerKind: domain.PositionOwnerRide,
		OwnerID:   rideID,
		ActorID:   actorID,
		Address:   address,
		Lat:       at.Lat,
		Lng:       at.Lng,
		IsRider:   true,
		CreatedAt: now,
	}
}

func (s *LifecycleService) driverPosition(rideID, actorID, address string, at LatLng, now time.Time) *domain.Position {
	pos := s.ridePosition(rideID, actorID, address, at, now)
	pos.IsRider = false
	return pos
}
