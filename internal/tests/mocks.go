package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Accept
// applies its condition under the mutex, so concurrent callers are
// arbitrated exactly like the conditional update in Postgres.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	AcceptCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	AcceptError error
	UpdateError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) Accept(ctx context.Context, id string, upd repository.AcceptUpdate) error {
	atomic.AddInt32(&m.AcceptCallCount, 1)
	if m.AcceptError != nil {
		return m.AcceptError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Phase != domain.RidePhaseRequested || ride.DriverID != "" {
		return repository.ErrNotFound
	}
	ride.DriverID = upd.DriverID
	ride.Phase = domain.RidePhaseInService
	ride.ConfirmedAt = upd.ConfirmedAt
	ride.AcceptDeadline = upd.AcceptDeadline
	return nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.RiderID == riderID && r.Status == domain.RideStatusPending {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.DriverID == driverID && r.Status == domain.RideStatusPending {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) ListDispatchable(ctx context.Context, createdAfter time.Time) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.Phase == domain.RidePhaseRequested && r.Status == domain.RideStatusPending && r.DriverID == "" && r.CreatedAt.After(createdAfter) {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MockRideRepository) ListCreatedSince(ctx context.Context, createdAfter time.Time) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.CreatedAt.After(createdAfter) {
			copy := *r
			result = append(result, &copy)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *MockRideRepository) SumDriverPayout(ctx context.Context, driverID string, closedSince time.Time) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0.0
	for _, r := range m.rides {
		if r.DriverID != driverID || r.Status != domain.RideStatusPaid {
			continue
		}
		if !closedSince.IsZero() && r.ClosedAt.Before(closedSince) {
			continue
		}
		total += r.DriverPayout
	}
	return total, nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

func sortNewestFirst(rides []*domain.Ride) {
	sort.Slice(rides, func(i, j int) bool { return rides[i].CreatedAt.After(rides[j].CreatedAt) })
}

// ──────────────────────────────────────────────
// MOCK POSITION REPOSITORY
// ──────────────────────────────────────────────

// MockPositionRepository is a mock implementation of PositionRepository.
type MockPositionRepository struct {
	mu        sync.RWMutex
	positions []*domain.Position

	// Counters
	AppendCallCount int32

	// Error injection
	AppendError error
}

// NewMockPositionRepository creates a new mock position repository.
func NewMockPositionRepository() *MockPositionRepository {
	return &MockPositionRepository{
		positions: make([]*domain.Position, 0),
	}
}

func (m *MockPositionRepository) Append(ctx context.Context, pos *domain.Position) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *pos
	m.positions = append(m.positions, &copy)
	return nil
}

func (m *MockPositionRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Position, 0)
	for _, p := range m.positions {
		if p.OwnerKind == domain.PositionOwnerRide && p.OwnerID == rideID {
			copy := *p
			result = append(result, &copy)
		}
	}
	return result, nil
}

// CountForRide returns how many positions a ride has (for test assertions).
func (m *MockPositionRepository) CountForRide(rideID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, p := range m.positions {
		if p.OwnerID == rideID {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	SetAvailableCallCount int32

	// Error injection
	SetAvailableError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	atomic.AddInt32(&m.SetAvailableCallCount, 1)
	if m.SetAvailableError != nil {
		return m.SetAvailableError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Available = available
	return nil
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a rider to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of the ride lock store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:ride:" + rideID
	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, "lock:ride:"+rideID)
	return nil
}

// IsLocked checks if a ride is locked (for test assertions).
func (m *MockLockStore) IsLocked(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:ride:"+rideID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK POOL STORE
// ──────────────────────────────────────────────

// MockPoolStore is a mock implementation of the dispatch pool store.
type MockPoolStore struct {
	mu      sync.Mutex
	members map[string]bool
	removed map[string]string // rideID -> reason

	// Counters
	AddCallCount    int32
	RemoveCallCount int32

	// Error injection
	AddError    error
	RemoveError error
}

// NewMockPoolStore creates a new mock pool store.
func NewMockPoolStore() *MockPoolStore {
	return &MockPoolStore{
		members: make(map[string]bool),
		removed: make(map[string]string),
	}
}

func (m *MockPoolStore) Add(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.AddCallCount, 1)
	if m.AddError != nil {
		return m.AddError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[rideID] = true
	return nil
}

func (m *MockPoolStore) Remove(ctx context.Context, rideID, reason string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	if m.RemoveError != nil {
		return m.RemoveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, rideID)
	m.removed[rideID] = reason
	return nil
}

// Contains checks pool membership (for test assertions).
func (m *MockPoolStore) Contains(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[rideID]
}

// RemovalReason returns the recorded removal reason for a ride.
func (m *MockPoolStore) RemovalReason(rideID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removed[rideID]
}

// ──────────────────────────────────────────────
// MOCK FARE ESTIMATOR
// ──────────────────────────────────────────────

// MockEstimator is a mock fare estimator returning a fixed quote.
type MockEstimator struct {
	Quote service.Quote

	// Error injection
	EstimateError error

	// Counters
	EstimateCallCount int32
}

// NewMockEstimator creates a mock estimator with a realistic default quote.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{
		Quote: service.Quote{
			Fare:         25.00,
			DistanceKM:   8.4,
			DurationSec:  1080,
			PlatformFee:  3.75,
			DriverPayout: 20.00,
			InsuranceFee: 1.25,
		},
	}
}

func (m *MockEstimator) Estimate(ctx context.Context, origin, dest service.LatLng) (*service.Quote, error) {
	atomic.AddInt32(&m.EstimateCallCount, 1)
	if m.EstimateError != nil {
		return nil, m.EstimateError
	}
	quote := m.Quote
	return &quote, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a mock payment gateway.
type MockGateway struct {
	mu sync.Mutex

	// Control behavior
	CaptureError error

	// Counters
	CaptureCallCount int32

	// Captured refs for assertions
	CapturedRefs []string
}

// NewMockGateway creates a new mock payment gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Capture(ctx context.Context, paymentRef string) error {
	atomic.AddInt32(&m.CaptureCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CaptureError != nil {
		return m.CaptureError
	}
	m.CapturedRefs = append(m.CapturedRefs, paymentRef)
	return nil
}

// ──────────────────────────────────────────────
// MOCK ELIGIBILITY CHECKER
// ──────────────────────────────────────────────

// MockEligibility is a mock driver eligibility checker.
type MockEligibility struct {
	Ineligible map[string]bool

	// Error injection
	EligibleError error
}

// NewMockEligibility creates a checker that approves everyone by default.
func NewMockEligibility() *MockEligibility {
	return &MockEligibility{Ineligible: make(map[string]bool)}
}

func (m *MockEligibility) Eligible(ctx context.Context, driverID string) (bool, error) {
	if m.EligibleError != nil {
		return false, m.EligibleError
	}
	return !m.Ineligible[driverID], nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION DISPATCHER
// ──────────────────────────────────────────────

// SentNotification records one delivered push notification.
type SentNotification struct {
	DeviceID string
	Event    service.NotificationEvent
	Payload  map[string]any
}

// MockDispatcher is a mock push dispatcher that records every send.
type MockDispatcher struct {
	mu   sync.Mutex
	sent []SentNotification

	// Error injection
	NotifyError error
}

// NewMockDispatcher creates a new mock dispatcher.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) Notify(ctx context.Context, deviceID string, event service.NotificationEvent, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotifyError != nil {
		return m.NotifyError
	}
	m.sent = append(m.sent, SentNotification{DeviceID: deviceID, Event: event, Payload: payload})
	return nil
}

// Sent returns a snapshot of delivered notifications.
func (m *MockDispatcher) Sent() []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]SentNotification, len(m.sent))
	copy(result, m.sent)
	return result
}

// CountEvent counts deliveries of one event type.
func (m *MockDispatcher) CountEvent(event service.NotificationEvent) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.sent {
		if n.Event == event {
			count++
		}
	}
	return count
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
