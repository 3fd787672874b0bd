package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are within range.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Quote is the fare estimator's answer for one origin/destination pair.
// It is snapshotted onto the ride at creation and never recomputed.
type Quote struct {
	Fare         float64 `json:"fare"`
	DistanceKM   float64 `json:"distance_km"`
	DurationSec  int     `json:"duration_sec"`
	PlatformFee  float64 `json:"platform_fee"`
	DriverPayout float64 `json:"driver_payout"`
	InsuranceFee float64 `json:"insurance_fee"`
}

// FareEstimator is the external geo-routing service, consumed as a black box.
type FareEstimator interface {
	Estimate(ctx context.Context, origin, dest LatLng) (*Quote, error)
}

// HTTPFareEstimator calls the routing service over HTTP.
type HTTPFareEstimator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFareEstimator creates an estimator client against the given base URL.
func NewHTTPFareEstimator(baseURL string, timeout time.Duration) *HTTPFareEstimator {
	return &HTTPFareEstimator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Estimate fetches a quote for the route.
func (e *HTTPFareEstimator) Estimate(ctx context.Context, origin, dest LatLng) (*Quote, error) {
	params := url.Values{}
	params.Set("origin_lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
	params.Set("origin_lng", strconv.FormatFloat(origin.Lng, 'f', -1, 64))
	params.Set("dest_lat", strconv.FormatFloat(dest.Lat, 'f', -1, 64))
	params.Set("dest_lng", strconv.FormatFloat(dest.Lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/v1/route/estimate?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("estimator request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("estimator returned status %d", resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("estimator response: %w", err)
	}

	return &quote, nil
}
