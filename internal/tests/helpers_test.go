package tests

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dispatch/internal/config"
	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// fixture bundles a fully mocked lifecycle engine for tests.
type fixture struct {
	rideRepo     *MockRideRepository
	positionRepo *MockPositionRepository
	driverRepo   *MockDriverRepository
	userRepo     *MockUserRepository
	estimator    *MockEstimator
	gateway      *MockGateway
	eligibility  *MockEligibility
	dispatcher   *MockDispatcher
	lockStore    *MockLockStore
	poolStore    *MockPoolStore
	settings     *config.DispatchSettings

	lifecycle *service.LifecycleService
}

// newFixture wires a LifecycleService against mocks. No database handle is
// passed, so transactional sections run against the injected repositories.
func newFixture() *fixture {
	f := &fixture{
		rideRepo:     NewMockRideRepository(),
		positionRepo: NewMockPositionRepository(),
		driverRepo:   NewMockDriverRepository(),
		userRepo:     NewMockUserRepository(),
		estimator:    NewMockEstimator(),
		gateway:      NewMockGateway(),
		eligibility:  NewMockEligibility(),
		dispatcher:   NewMockDispatcher(),
		lockStore:    NewMockLockStore(),
		poolStore:    NewMockPoolStore(),
		settings:     config.NewDispatchSettings(),
	}

	logger := zap.NewNop()
	notifier := service.NewNotificationService(f.dispatcher, f.userRepo, f.driverRepo, logger)

	f.lifecycle = service.NewLifecycleService(
		nil,
		f.rideRepo,
		f.positionRepo,
		f.driverRepo,
		f.estimator,
		f.gateway,
		f.eligibility,
		notifier,
		f.lockStore,
		f.poolStore,
		f.settings,
		logger,
	)
	return f
}

// newFixtureWithoutLock rebuilds the engine over the same mocks with no
// advisory lock store, leaving arbitration to the repository alone.
func newFixtureWithoutLock(f *fixture) *service.LifecycleService {
	logger := zap.NewNop()
	notifier := service.NewNotificationService(f.dispatcher, f.userRepo, f.driverRepo, logger)
	return service.NewLifecycleService(
		nil,
		f.rideRepo,
		f.positionRepo,
		f.driverRepo,
		f.estimator,
		f.gateway,
		f.eligibility,
		notifier,
		nil,
		f.poolStore,
		f.settings,
		logger,
	)
}

// addRider registers a rider with a push device.
func (f *fixture) addRider(id string) {
	f.userRepo.AddUser(&domain.User{ID: id, Name: "Rider " + id, DeviceID: "device-" + id})
}

// addDriver registers an available driver with a push device.
func (f *fixture) addDriver(id string) {
	f.driverRepo.AddDriver(&domain.Driver{ID: id, Name: "Driver " + id, DeviceID: "device-" + id, Available: true})
}

// requestRide creates a ride through the engine and returns it.
func (f *fixture) requestRide(ctx context.Context, riderID string, method domain.PaymentMethod, paymentRef string) (*domain.Ride, error) {
	return f.lifecycle.RequestRide(ctx, service.RequestRideInput{
		RiderID:       riderID,
		Origin:        service.LatLng{Lat: -23.5505, Lng: -46.6333},
		Destination:   service.LatLng{Lat: -23.5614, Lng: -46.6560},
		OriginAddr:    "Praca da Se, 1",
		DestAddr:      "Av. Paulista, 1578",
		PaymentMethod: method,
		PaymentRef:    paymentRef,
	})
}

// acceptRide runs the acceptance flow for a driver.
func (f *fixture) acceptRide(ctx context.Context, driverID, rideID string) (*domain.Ride, error) {
	return f.lifecycle.AcceptRide(ctx, service.AcceptRideInput{
		DriverID:   driverID,
		RideID:     rideID,
		Origin:     service.LatLng{Lat: -23.5489, Lng: -46.6388},
		OriginAddr: "Rua Augusta, 500",
	})
}

// seedAcceptedRide shortcuts a ride already in IN_SERVICE for trip-stage tests.
func (f *fixture) seedAcceptedRide(rideID, riderID, driverID string, method domain.PaymentMethod, paymentRef string) *domain.Ride {
	now := time.Now()
	ride := &domain.Ride{
		ID:             rideID,
		RiderID:        riderID,
		DriverID:       driverID,
		Phase:          domain.RidePhaseInService,
		Status:         domain.RideStatusPending,
		Fare:           25.00,
		DriverPayout:   20.00,
		PaymentMethod:  method,
		PaymentRef:     paymentRef,
		CreatedAt:      now.Add(-10 * time.Minute),
		ConfirmedAt:    now.Add(-5 * time.Minute),
		AcceptDeadline: now.Add(5 * time.Minute),
		Rating:         domain.RatingUnset,
	}
	f.rideRepo.AddRide(ride)
	return ride
}
