package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/middleware"
	"dispatch/internal/service"
)

// RideHandler handles HTTP requests for the ride lifecycle.
type RideHandler struct {
	lifecycle *service.LifecycleService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(lifecycle *service.LifecycleService) *RideHandler {
	return &RideHandler{lifecycle: lifecycle}
}

// RequestRideRequest is the HTTP request body for requesting a ride.
type RequestRideRequest struct {
	OriginLat     float64 `json:"origin_lat"`
	OriginLng     float64 `json:"origin_lng"`
	OriginAddr    string  `json:"origin_address"`
	DestLat       float64 `json:"destination_lat"`
	DestLng       float64 `json:"destination_lng"`
	DestAddr      string  `json:"destination_address"`
	PaymentMethod string  `json:"payment_method"` // CASH, CARD_MACHINE, CARD_ON_FILE
	PaymentRef    string  `json:"payment_ref,omitempty"`
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// BoardRequest is the HTTP request body for registering boarding.
type BoardRequest struct {
	PaymentRef string `json:"payment_ref,omitempty"`
}

// CancelRequest is the HTTP request body for cancelling a ride.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RateRequest is the HTTP request body for rating a ride.
type RateRequest struct {
	Rating int `json:"rating"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID             string  `json:"id"`
	RiderID        string  `json:"rider_id"`
	DriverID       string  `json:"driver_id,omitempty"`
	Phase          string  `json:"phase"`
	Status         string  `json:"status"`
	OriginLat      float64 `json:"origin_lat"`
	OriginLng      float64 `json:"origin_lng"`
	OriginAddr     string  `json:"origin_address"`
	DestLat        float64 `json:"destination_lat"`
	DestLng        float64 `json:"destination_lng"`
	DestAddr       string  `json:"destination_address"`
	Fare           float64 `json:"fare"`
	DistanceKM     float64 `json:"distance_km"`
	DurationSec    int     `json:"duration_sec"`
	DriverPayout   float64 `json:"driver_payout"`
	PaymentMethod  string  `json:"payment_method"`
	AcceptDeadline string  `json:"accept_deadline,omitempty"`
	CreatedAt      string  `json:"created_at"`
	ConfirmedAt    string  `json:"confirmed_at,omitempty"`
	BoardedAt      string  `json:"boarded_at,omitempty"`
	ClosedAt       string  `json:"closed_at,omitempty"`
	CancelledBy    string  `json:"cancelled_by,omitempty"`
	CancelReason   string  `json:"cancel_reason,omitempty"`
	Rating         *int    `json:"rating,omitempty"`
}

// PoolEntryResponse is one dispatchable ride offered to drivers.
type PoolEntryResponse struct {
	RideID    string  `json:"ride_id"`
	OriginLat float64 `json:"origin_lat"`
	OriginLng float64 `json:"origin_lng"`
	DestLat   float64 `json:"destination_lat"`
	DestLng   float64 `json:"destination_lng"`
}

// RequestRide handles POST /v1/rides
func (h *RideHandler) RequestRide(c *gin.Context) {
	var req RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.lifecycle.RequestRide(c.Request.Context(), service.RequestRideInput{
		RiderID:       middleware.ActorID(c),
		Origin:        service.LatLng{Lat: req.OriginLat, Lng: req.OriginLng},
		Destination:   service.LatLng{Lat: req.DestLat, Lng: req.DestLng},
		OriginAddr:    req.OriginAddr,
		DestAddr:      req.DestAddr,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		PaymentRef:    req.PaymentRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.lifecycle.GetRide(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.lifecycle.AcceptRide(c.Request.Context(), service.AcceptRideInput{
		DriverID:   middleware.ActorID(c),
		RideID:     c.Param("id"),
		Origin:     service.LatLng{Lat: req.Lat, Lng: req.Lng},
		OriginAddr: req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Arrived handles POST /v1/rides/:id/arrived
func (h *RideHandler) Arrived(c *gin.Context) {
	if err := h.lifecycle.ArriveAtPickup(c.Request.Context(), middleware.ActorID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Board handles POST /v1/rides/:id/board
func (h *RideHandler) Board(c *gin.Context) {
	var req BoardRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	ride, err := h.lifecycle.BoardPassenger(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.PaymentRef)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// DropOff handles POST /v1/rides/:id/dropoff
func (h *RideHandler) DropOff(c *gin.Context) {
	ride, err := h.lifecycle.DropOffPassenger(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Rate handles POST /v1/rides/:id/rate
func (h *RideHandler) Rate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.lifecycle.RateRide(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Cancel handles POST /v1/rides/:id/cancel
func (h *RideHandler) Cancel(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	ride, err := h.lifecycle.CancelByRider(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelByDriver handles POST /v1/rides/:id/cancel-by-driver
func (h *RideHandler) CancelByDriver(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	ride, err := h.lifecycle.CancelByDriver(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Mine handles GET /v1/rides/mine
func (h *RideHandler) Mine(c *gin.Context) {
	rides, err := h.lifecycle.ListActiveForRider(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

// Pool handles GET /v1/rides/pool
func (h *RideHandler) Pool(c *gin.Context) {
	entries, err := h.lifecycle.ListDispatchPool(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PoolEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, PoolEntryResponse{
			RideID:    e.RideID,
			OriginLat: e.OriginLat,
			OriginLng: e.OriginLng,
			DestLat:   e.DestLat,
			DestLng:   e.DestLng,
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// Monitor handles GET /v1/rides/monitor
func (h *RideHandler) Monitor(c *gin.Context) {
	lookback := 24 * time.Hour
	if raw := c.Query("lookback"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lookback"})
			return
		}
		lookback = parsed
	}

	rides, err := h.lifecycle.MonitorRecent(c.Request.Context(), lookback)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponses(rides))
}

func toRideResponse(r *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:            r.ID,
		RiderID:       r.RiderID,
		DriverID:      r.DriverID,
		Phase:         string(r.Phase),
		Status:        string(r.Status),
		OriginLat:     r.OriginLat,
		OriginLng:     r.OriginLng,
		OriginAddr:    r.OriginAddr,
		DestLat:       r.DestLat,
		DestLng:       r.DestLng,
		DestAddr:      r.DestAddr,
		Fare:          r.Fare,
		DistanceKM:    r.DistanceKM,
		DurationSec:   r.DurationSec,
		DriverPayout:  r.DriverPayout,
		PaymentMethod: string(r.PaymentMethod),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}

	if !r.AcceptDeadline.IsZero() {
		resp.AcceptDeadline = r.AcceptDeadline.Format(time.RFC3339)
	}
	if !r.ConfirmedAt.IsZero() {
		resp.ConfirmedAt = r.ConfirmedAt.Format(time.RFC3339)
	}
	if !r.BoardedAt.IsZero() {
		resp.BoardedAt = r.BoardedAt.Format(time.RFC3339)
	}
	if !r.ClosedAt.IsZero() {
		resp.ClosedAt = r.ClosedAt.Format(time.RFC3339)
	}
	if r.Status == domain.RideStatusCancelled {
		resp.CancelledBy = r.CancelledBy
		resp.CancelReason = r.CancelReason
	}
	if r.Rating != domain.RatingUnset {
		rating := r.Rating
		resp.Rating = &rating
	}
	return resp
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}
	return response
}
