package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/service"
)

func TestCancelByRider_BeforeAcceptance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")

	ride, _ := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")

	cancelled, err := f.lifecycle.CancelByRider(ctx, "rider-1", ride.ID, "changed plans")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.Phase != domain.RidePhaseRequested {
		t.Errorf("expected phase preserved at REQUESTED, got %s", cancelled.Phase)
	}
	if cancelled.CancelledBy != "rider-1" {
		t.Errorf("expected cancelled-by rider-1, got %s", cancelled.CancelledBy)
	}
	if cancelled.CancelReason != "changed plans" {
		t.Errorf("expected reason recorded, got %q", cancelled.CancelReason)
	}
	if f.poolStore.Contains(ride.ID) {
		t.Error("expected ride removed from dispatch pool")
	}
	if reason := f.poolStore.RemovalReason(ride.ID); reason != redis.PoolRemoveCancelled {
		t.Errorf("expected removal reason %s, got %s", redis.PoolRemoveCancelled, reason)
	}
}

func TestCancelByRider_WithinGraceReleasesDriver(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.addDriver("driver-1")
	f.driverRepo.GetDriver("driver-1").Available = false
	f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")

	cancelled, err := f.lifecycle.CancelByRider(ctx, "rider-1", "ride-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
	if !f.driverRepo.GetDriver("driver-1").Available {
		t.Error("expected driver released back into rotation")
	}
	if got := f.dispatcher.CountEvent(service.NotificationRideCancelled); got != 1 {
		t.Errorf("expected 1 cancellation notification, got %d", got)
	}
}

func TestCancelByRider_AfterDeadlineIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.addDriver("driver-1")
	ride := f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")
	ride.AcceptDeadline = time.Now().Add(-time.Minute)
	f.rideRepo.AddRide(ride)

	_, err := f.lifecycle.CancelByRider(ctx, "rider-1", "ride-1", "")
	if !errors.Is(err, service.ErrCancellationExpired) {
		t.Fatalf("expected ErrCancellationExpired, got %v", err)
	}

	stored := f.rideRepo.GetRide("ride-1")
	if stored.Status != domain.RideStatusPending {
		t.Errorf("expected status untouched at PENDING, got %s", stored.Status)
	}
}

func TestCancelByDriver_SameDeadlineRule(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.addDriver("driver-1")
	ride := f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")
	ride.AcceptDeadline = time.Now().Add(-time.Minute)
	f.rideRepo.AddRide(ride)

	_, err := f.lifecycle.CancelByDriver(ctx, "driver-1", "ride-1", "no show")
	if !errors.Is(err, service.ErrCancellationExpired) {
		t.Fatalf("expected ErrCancellationExpired, got %v", err)
	}
}

func TestCancelByDriver_WithinGrace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.addDriver("driver-1")
	f.driverRepo.GetDriver("driver-1").Available = false
	f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")

	cancelled, err := f.lifecycle.CancelByDriver(ctx, "driver-1", "ride-1", "vehicle trouble")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.CancelledBy != "driver-1" {
		t.Errorf("expected cancelled-by driver-1, got %s", cancelled.CancelledBy)
	}
	if !f.driverRepo.GetDriver("driver-1").Available {
		t.Error("expected driver released after own cancellation")
	}
}

func TestCancel_TerminalRideStaysTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")

	ride, _ := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if _, err := f.lifecycle.CancelByRider(ctx, "rider-1", ride.ID, "first"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err := f.lifecycle.CancelByRider(ctx, "rider-1", ride.ID, "second")
	if !errors.Is(err, service.ErrRideCancelled) {
		t.Fatalf("expected ErrRideCancelled on repeat, got %v", err)
	}

	if got := f.rideRepo.GetRide(ride.ID).CancelReason; got != "first" {
		t.Errorf("expected original cancellation preserved, got %q", got)
	}
}

func TestCancelByRider_RejectsOtherRider(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")

	_, err := f.lifecycle.CancelByRider(ctx, "rider-2", "ride-1", "")
	if !errors.Is(err, service.ErrNotRideRider) {
		t.Fatalf("expected ErrNotRideRider, got %v", err)
	}
}

func TestCancelByDriver_RejectsOtherDriver(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")

	_, err := f.lifecycle.CancelByDriver(ctx, "driver-2", "ride-1", "")
	if !errors.Is(err, service.ErrNotRideDriver) {
		t.Fatalf("expected ErrNotRideDriver, got %v", err)
	}
}

func TestCancel_BoardedRideWithinGraceStillCancels(t *testing.T) {
	// The deadline applies while IN_SERVICE; a boarded ride has no grace
	// restriction and cancellation is an operational escape hatch.
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.addDriver("driver-1")
	ride := f.seedAcceptedRide("ride-1", "rider-1", "driver-1", domain.PaymentMethodCash, "")
	ride.Phase = domain.RidePhaseBoarded
	ride.AcceptDeadline = time.Now().Add(-time.Hour)
	f.rideRepo.AddRide(ride)

	cancelled, err := f.lifecycle.CancelByRider(ctx, "rider-1", "ride-1", "emergency")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", cancelled.Status)
	}
}
