package tests

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

func paidRide(id, driverID string, payout float64, closedAt time.Time) *domain.Ride {
	return &domain.Ride{
		ID:           id,
		RiderID:      "rider-1",
		DriverID:     driverID,
		Phase:        domain.RidePhaseCompleted,
		Status:       domain.RideStatusPaid,
		DriverPayout: payout,
		CreatedAt:    closedAt.Add(-30 * time.Minute),
		ClosedAt:     closedAt,
		Rating:       domain.RatingUnset,
	}
}

func TestEarnings_SumsOnlyPaidRidesForDriver(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	earnings := service.NewEarningsService(rideRepo)

	now := time.Now()
	rideRepo.AddRide(paidRide("r1", "driver-1", 10.00, now))
	rideRepo.AddRide(paidRide("r2", "driver-1", 20.00, now))
	rideRepo.AddRide(paidRide("r3", "driver-1", 30.00, now))
	rideRepo.AddRide(paidRide("r4", "driver-2", 99.00, now))

	// Cancelled ride must not count.
	cancelled := paidRide("r5", "driver-1", 50.00, now)
	cancelled.Status = domain.RideStatusCancelled
	rideRepo.AddRide(cancelled)

	total, err := earnings.Total(ctx, "driver-1", repository.EarningsAllTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 60.00 {
		t.Errorf("expected total 60.00, got %.2f", total)
	}
}

func TestEarnings_TodayExcludesEarlierDays(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	earnings := service.NewEarningsService(rideRepo)

	now := time.Now()
	rideRepo.AddRide(paidRide("r1", "driver-1", 15.00, now))
	rideRepo.AddRide(paidRide("r2", "driver-1", 40.00, now.Add(-48*time.Hour)))

	today, err := earnings.Total(ctx, "driver-1", repository.EarningsToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if today != 15.00 {
		t.Errorf("expected today's total 15.00, got %.2f", today)
	}

	allTime, _ := earnings.Total(ctx, "driver-1", repository.EarningsAllTime)
	if allTime != 55.00 {
		t.Errorf("expected all-time total 55.00, got %.2f", allTime)
	}
}

func TestEarnings_SummaryWindowsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	rideRepo := NewMockRideRepository()
	earnings := service.NewEarningsService(rideRepo)

	now := time.Now()
	rideRepo.AddRide(paidRide("r1", "driver-1", 10.00, now))
	rideRepo.AddRide(paidRide("r2", "driver-1", 20.00, now.Add(-40*24*time.Hour)))

	summary, err := earnings.Summary(ctx, "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Today > summary.ThisWeek || summary.ThisWeek > summary.ThisMonth || summary.ThisMonth > summary.AllTime {
		t.Errorf("expected today <= week <= month <= all-time, got %+v", summary)
	}
	if summary.AllTime != 30.00 {
		t.Errorf("expected all-time 30.00, got %.2f", summary.AllTime)
	}
	if summary.Today != 10.00 {
		t.Errorf("expected today 10.00, got %.2f", summary.Today)
	}
}

func TestEarnings_EmptyDriverHasZeroTotals(t *testing.T) {
	ctx := context.Background()
	earnings := service.NewEarningsService(NewMockRideRepository())

	summary, err := earnings.Summary(ctx, "driver-nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Today != 0 || summary.AllTime != 0 {
		t.Errorf("expected zero totals, got %+v", summary)
	}
}

func TestEarnings_RequiresDriverID(t *testing.T) {
	ctx := context.Background()
	earnings := service.NewEarningsService(NewMockRideRepository())

	if _, err := earnings.Total(ctx, "", repository.EarningsToday); err == nil {
		t.Error("expected error for empty driver ID")
	}
	if _, err := earnings.Summary(ctx, ""); err == nil {
		t.Error("expected error for empty driver ID")
	}
}
