package tests

import (
	"context"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestNotifications_CancellationReachesTheOtherParty(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.addDriver("driver-1")
	f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")

	if _, err := f.lifecycle.CancelByRider(ctx, "rider-1", "ride-1", "changed plans"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	sent := f.dispatcher.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	if sent[0].Event != service.NotificationRideCancelled {
		t.Errorf("expected RIDE_CANCELLED, got %s", sent[0].Event)
	}
	// The rider cancelled, so the driver's device hears about it.
	if sent[0].DeviceID != "device-driver-1" {
		t.Errorf("expected delivery to device-driver-1, got %s", sent[0].DeviceID)
	}
}

func TestNotifications_DeliveryFailureDoesNotBreakTheFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.dispatcher.NotifyError = ErrMockTimeout

	ride, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if err != nil {
		t.Fatalf("expected request to succeed despite notification failure, got %v", err)
	}
	if f.rideRepo.GetRide(ride.ID) == nil {
		t.Error("expected ride persisted")
	}
}

func TestNotifications_UnknownDeviceIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	// Rider exists but has no registered device.
	f.userRepo.AddUser(&domain.User{ID: "rider-1", Name: "Rider"})

	_, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(f.dispatcher.Sent()); got != 0 {
		t.Errorf("expected no deliveries without a device, got %d", got)
	}
}
