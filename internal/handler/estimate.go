package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/service"
)

// EstimateHandler exposes fare quoting without creating a ride.
type EstimateHandler struct {
	estimator service.FareEstimator
}

// NewEstimateHandler creates a new EstimateHandler.
func NewEstimateHandler(estimator service.FareEstimator) *EstimateHandler {
	return &EstimateHandler{estimator: estimator}
}

// EstimateRequest is the HTTP request body for a fare quote.
type EstimateRequest struct {
	OriginLat float64 `json:"origin_lat"`
	OriginLng float64 `json:"origin_lng"`
	DestLat   float64 `json:"destination_lat"`
	DestLng   float64 `json:"destination_lng"`
}

// EstimateResponse is the HTTP response for a fare quote.
type EstimateResponse struct {
	Fare        float64 `json:"fare"`
	DistanceKM  float64 `json:"distance_km"`
	DurationSec int     `json:"duration_sec"`
}

// Estimate handles POST /v1/estimates
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	origin := service.LatLng{Lat: req.OriginLat, Lng: req.OriginLng}
	dest := service.LatLng{Lat: req.DestLat, Lng: req.DestLng}
	if !origin.Valid() {
		respondError(c, service.ErrInvalidOrigin)
		return
	}
	if !dest.Valid() {
		respondError(c, service.ErrInvalidDestination)
		return
	}

	quote, err := h.estimator.Estimate(c.Request.Context(), origin, dest)
	if err != nil {
		respondError(c, service.ErrEstimateFailed)
		return
	}

	respondJSON(c, http.StatusOK, EstimateResponse{
		Fare:        quote.Fare,
		DistanceKM:  quote.DistanceKM,
		DurationSec: quote.DurationSec,
	})
}
