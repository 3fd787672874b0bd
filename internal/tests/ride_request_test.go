package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func TestRequestRide_CreatesRequestedPendingRide(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")

	ride, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Phase != domain.RidePhaseRequested {
		t.Errorf("expected phase REQUESTED, got %s", ride.Phase)
	}
	if ride.Status != domain.RideStatusPending {
		t.Errorf("expected status PENDING, got %s", ride.Status)
	}
	if ride.Accepted() {
		t.Error("expected no driver assigned on creation")
	}
	if f.rideRepo.CountRides() != 1 {
		t.Errorf("expected 1 persisted ride, got %d", f.rideRepo.CountRides())
	}
}

func TestRequestRide_SnapshotsFareFromEstimator(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")

	ride, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Fare != 25.00 {
		t.Errorf("expected fare 25.00, got %.2f", ride.Fare)
	}
	if ride.DistanceKM != 8.4 {
		t.Errorf("expected distance 8.4, got %.1f", ride.DistanceKM)
	}
	if ride.DurationSec != 1080 {
		t.Errorf("expected duration 1080s, got %d", ride.DurationSec)
	}
	if ride.DriverPayout != 20.00 {
		t.Errorf("expected payout 20.00, got %.2f", ride.DriverPayout)
	}
	if ride.PlatformFee != 3.75 {
		t.Errorf("expected platform fee 3.75, got %.2f", ride.PlatformFee)
	}
	if ride.InsuranceFee != 1.25 {
		t.Errorf("expected insurance fee 1.25, got %.2f", ride.InsuranceFee)
	}
}

func TestRequestRide_LogsOriginAndDestinationPositions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")

	ride, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.positionRepo.CountForRide(ride.ID); got != 2 {
		t.Fatalf("expected 2 positions (origin + destination), got %d", got)
	}

	positions, _ := f.positionRepo.ListByRide(ctx, ride.ID)
	for _, p := range positions {
		if !p.IsRider {
			t.Error("expected rider-authored positions at request time")
		}
		if p.ActorID != "rider-1" {
			t.Errorf("expected actor rider-1, got %s", p.ActorID)
		}
	}
}

func TestRequestRide_AddsRideToDispatchPool(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")

	ride, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.poolStore.Contains(ride.ID) {
		t.Error("expected ride in dispatch pool")
	}
	if got := f.dispatcher.CountEvent(service.NotificationSearchStarted); got != 1 {
		t.Errorf("expected 1 search-started notification, got %d", got)
	}
}

func TestRequestRide_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")

	cases := []struct {
		name    string
		input   service.RequestRideInput
		wantErr error
	}{
		{
			name:    "missing rider",
			input:   service.RequestRideInput{Origin: service.LatLng{Lat: 1, Lng: 1}, Destination: service.LatLng{Lat: 2, Lng: 2}, OriginAddr: "a", DestAddr: "b", PaymentMethod: domain.PaymentMethodCash},
			wantErr: service.ErrInvalidRiderID,
		},
		{
			name:    "origin out of range",
			input:   service.RequestRideInput{RiderID: "rider-1", Origin: service.LatLng{Lat: 91, Lng: 0}, Destination: service.LatLng{Lat: 2, Lng: 2}, OriginAddr: "a", DestAddr: "b", PaymentMethod: domain.PaymentMethodCash},
			wantErr: service.ErrInvalidOrigin,
		},
		{
			name:    "destination out of range",
			input:   service.RequestRideInput{RiderID: "rider-1", Origin: service.LatLng{Lat: 1, Lng: 1}, Destination: service.LatLng{Lat: 0, Lng: 181}, OriginAddr: "a", DestAddr: "b", PaymentMethod: domain.PaymentMethodCash},
			wantErr: service.ErrInvalidDestination,
		},
		{
			name:    "missing address",
			input:   service.RequestRideInput{RiderID: "rider-1", Origin: service.LatLng{Lat: 1, Lng: 1}, Destination: service.LatLng{Lat: 2, Lng: 2}, DestAddr: "b", PaymentMethod: domain.PaymentMethodCash},
			wantErr: service.ErrMissingAddress,
		},
		{
			name:    "unknown payment method",
			input:   service.RequestRideInput{RiderID: "rider-1", Origin: service.LatLng{Lat: 1, Lng: 1}, Destination: service.LatLng{Lat: 2, Lng: 2}, OriginAddr: "a", DestAddr: "b", PaymentMethod: "BARTER"},
			wantErr: service.ErrInvalidPaymentMethod,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.lifecycle.RequestRide(ctx, tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if f.rideRepo.CountRides() != 0 {
		t.Errorf("expected no rides persisted after validation failures, got %d", f.rideRepo.CountRides())
	}
}

func TestRequestRide_EstimatorFailureCreatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.estimator.EstimateError = ErrMockTimeout

	_, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if !errors.Is(err, service.ErrEstimateFailed) {
		t.Fatalf("expected ErrEstimateFailed, got %v", err)
	}

	if f.rideRepo.CountRides() != 0 {
		t.Error("expected no ride persisted when the estimate fails")
	}
	if f.poolStore.AddCallCount != 0 {
		t.Error("expected no pool membership when the estimate fails")
	}
}

func TestRequestRide_PersistFailureLeavesNoPoolEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addRider("rider-1")
	f.rideRepo.CreateError = ErrMockDBConstraint

	_, err := f.requestRide(ctx, "rider-1", domain.PaymentMethodCash, "")
	if err == nil {
		t.Fatal("expected error")
	}

	if f.poolStore.AddCallCount != 0 {
		t.Error("expected no pool add after a failed transaction")
	}
	if got := f.dispatcher.CountEvent(service.NotificationSearchStarted); got != 0 {
		t.Errorf("expected no notifications after a failed transaction, got %d", got)
	}
}
