package service

import (
	"context"
	"time"

	"dispatch/internal/repository"
)

// EarningsSummary aggregates a driver's payouts over the standard windows.
type EarningsSummary struct {
	Today     float64 `json:"today"`
	ThisWeek  float64 `json:"this_week"`
	ThisMonth float64 `json:"this_month"`
	AllTime   float64 `json:"all_time"`
}

// EarningsService computes driver payout aggregates from completed rides.
type EarningsService struct {
	rideRepo repository.RideRepository

	now func() time.Time
}

// NewEarningsService creates a new EarningsService.
func NewEarningsService(rideRepo repository.RideRepository) *EarningsService {
	return &EarningsService{rideRepo: rideRepo, now: time.Now}
}

// Total returns the driver's payout sum for a single window.
func (s *EarningsService) Total(ctx context.Context, driverID string, window repository.EarningsWindow) (float64, error) {
	if driverID == "" {
		return 0, ErrInvalidDriverID
	}
	return s.rideRepo.SumDriverPayout(ctx, driverID, s.windowStart(window))
}

// Summary returns the driver's payout sums across all windows.
func (s *EarningsService) Summary(ctx context.Context, driverID string) (*EarningsSummary, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	summary := &EarningsSummary{}
	for window, dst := range map[repository.EarningsWindow]*float64{
		repository.EarningsToday:     &summary.Today,
		repository.EarningsThisWeek:  &summary.ThisWeek,
		repository.EarningsThisMonth: &summary.ThisMonth,
		repository.EarningsAllTime:   &summary.AllTime,
	} {
		total, err := s.rideRepo.SumDriverPayout(ctx, driverID, s.windowStart(window))
		if err != nil {
			return nil, err
		}
		*dst = total
	}
	return summary, nil
}

// windowStart maps a window to its inclusive lower bound in local time.
// The week starts on Monday. ALL_TIME maps to the zero time, which the
// repository treats as unbounded.
func (s *EarningsService) windowStart(window repository.EarningsWindow) time.Time {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch window {
	case repository.EarningsToday:
		return midnight
	case repository.EarningsThisWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset)
	case repository.EarningsThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}
