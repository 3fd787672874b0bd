package service

import (
	"context"

	"go.uber.org/zap"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// NotificationEvent identifies a ride lifecycle event pushed to a device.
type NotificationEvent string

const (
	NotificationSearchStarted  NotificationEvent = "DRIVER_SEARCH_STARTED"
	NotificationRideAccepted   NotificationEvent = "RIDE_ACCEPTED"
	NotificationDriverAtPickup NotificationEvent = "DRIVER_AT_PICKUP"
	NotificationPassengerBoard NotificationEvent = "PASSENGER_BOARDED"
	NotificationRideCompleted  NotificationEvent = "RIDE_COMPLETED"
	NotificationRideCancelled  NotificationEvent = "RIDE_CANCELLED"
)

// Dispatcher delivers an event to a device. Implementations are external
// push providers; delivery is best-effort with no return value consumed
// beyond logging.
type Dispatcher interface {
	Notify(ctx context.Context, deviceID string, event NotificationEvent, payload map[string]any) error
}

// LogDispatcher writes notifications to the log instead of a push provider.
type LogDispatcher struct {
	log *zap.Logger
}

// NewLogDispatcher creates a log-backed dispatcher.
func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

// Notify logs the notification.
func (d *LogDispatcher) Notify(ctx context.Context, deviceID string, event NotificationEvent, payload map[string]any) error {
	d.log.Info("notification",
		zap.String("device_id", deviceID),
		zap.String("event", string(event)),
		zap.Any("payload", payload),
	)
	return nil
}

// NotificationService resolves ride parties to devices and pushes lifecycle
// events. Every method is fire-and-forget: failures are logged, never
// propagated, and never roll back a committed transition.
type NotificationService struct {
	dispatcher Dispatcher
	userRepo   repository.UserRepository
	driverRepo repository.DriverRepository
	log        *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	dispatcher Dispatcher,
	userRepo repository.UserRepository,
	driverRepo repository.DriverRepository,
	log *zap.Logger,
) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		userRepo:   userRepo,
		driverRepo: driverRepo,
		log:        log,
	}
}

// SearchStarted tells the rider the platform is looking for a driver.
func (s *NotificationService) SearchStarted(ctx context.Context, ride *domain.Ride) {
	s.toRider(ctx, ride, NotificationSearchStarted, map[string]any{
		"ride_id": ride.ID,
		"fare":    ride.Fare,
	})
}

// RideAccepted tells the rider a driver took the ride.
func (s *NotificationService) RideAccepted(ctx context.Context, ride *domain.Ride) {
	s.toRider(ctx, ride, NotificationRideAccepted, map[string]any{
		"ride_id":         ride.ID,
		"driver_id":       ride.DriverID,
		"accept_deadline": ride.AcceptDeadline,
	})
}

// DriverAtPickup tells the rider the driver is waiting at the pickup point.
func (s *NotificationService) DriverAtPickup(ctx context.Context, ride *domain.Ride) {
	s.toRider(ctx, ride, NotificationDriverAtPickup, map[string]any{
		"ride_id": ride.ID,
		"message": "driver waiting at the indicated location",
	})
}

// PassengerBoarded tells the rider boarding was registered.
func (s *NotificationService) PassengerBoarded(ctx context.Context, ride *domain.Ride) {
	s.toRider(ctx, ride, NotificationPassengerBoard, map[string]any{
		"ride_id":    ride.ID,
		"boarded_at": ride.BoardedAt,
	})
}

// RideCompleted tells the rider the trip is over.
func (s *NotificationService) RideCompleted(ctx context.Context, ride *domain.Ride) {
	s.toRider(ctx, ride, NotificationRideCompleted, map[string]any{
		"ride_id": ride.ID,
		"fare":    ride.Fare,
	})
}

// RideCancelled tells the party that did NOT cancel that the ride ended.
func (s *NotificationService) RideCancelled(ctx context.Context, ride *domain.Ride) {
	payload := map[string]any{
		"ride_id":      ride.ID,
		"cancelled_by": ride.CancelledBy,
		"reason":       ride.CancelReason,
	}

	if ride.CancelledBy == ride.RiderID {
		if ride.DriverID != "" {
			s.toDriver(ctx, ride, NotificationRideCancelled, payload)
		}
		return
	}
	s.toRider(ctx, ride, NotificationRideCancelled, payload)
}

func (s *NotificationService) toRider(ctx context.Context, ride *domain.Ride, event NotificationEvent, payload map[string]any) {
	user, err := s.userRepo.GetByID(ctx, ride.RiderID)
	if err != nil {
		s.log.Warn("notify: rider lookup failed", zap.String("rider_id", ride.RiderID), zap.Error(err))
		return
	}
	s.send(ctx, user.DeviceID, event, payload)
}

func (s *NotificationService) toDriver(ctx context.Context, ride *domain.Ride, event NotificationEvent, payload map[string]any) {
	driver, err := s.driverRepo.GetByID(ctx, ride.DriverID)
	if err != nil {
		s.log.Warn("notify: driver lookup failed", zap.String("driver_id", ride.DriverID), zap.Error(err))
		return
	}
	s.send(ctx, driver.DeviceID, event, payload)
}

func (s *NotificationService) send(ctx context.Context, deviceID string, event NotificationEvent, payload map[string]any) {
	if deviceID == "" {
		return
	}
	if err := s.dispatcher.Notify(ctx, deviceID, event, payload); err != nil {
		s.log.Warn("notify: dispatch failed",
			zap.String("device_id", deviceID),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}
