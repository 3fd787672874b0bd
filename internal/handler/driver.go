package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/middleware"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// DriverHandler handles HTTP requests for the driver side of dispatch.
type DriverHandler struct {
	lifecycle *service.LifecycleService
	earnings  *service.EarningsService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(lifecycle *service.LifecycleService, earnings *service.EarningsService) *DriverHandler {
	return &DriverHandler{lifecycle: lifecycle, earnings: earnings}
}

// DriverRidesResponse carries the driver's open rides plus their earnings
// snapshot, so the driver app refreshes both in one round trip.
type DriverRidesResponse struct {
	Rides    []RideResponse           `json:"rides"`
	Earnings *service.EarningsSummary `json:"earnings"`
}

// Rides handles GET /v1/drivers/rides
func (h *DriverHandler) Rides(c *gin.Context) {
	driverID := middleware.ActorID(c)

	rides, err := h.lifecycle.ListActiveForDriver(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.earnings.Summary(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DriverRidesResponse{
		Rides:    toRideResponses(rides),
		Earnings: summary,
	})
}

// EarningsResponse is the HTTP response for a single earnings window.
type EarningsResponse struct {
	Window string  `json:"window"`
	Total  float64 `json:"total"`
}

// Earnings handles GET /v1/drivers/earnings
func (h *DriverHandler) Earnings(c *gin.Context) {
	driverID := middleware.ActorID(c)

	window := repository.EarningsWindow(c.DefaultQuery("window", string(repository.EarningsToday)))
	switch window {
	case repository.EarningsToday, repository.EarningsThisWeek,
		repository.EarningsThisMonth, repository.EarningsAllTime:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid window"})
		return
	}

	total, err := h.earnings.Total(c.Request.Context(), driverID, window)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EarningsResponse{Window: string(window), Total: total})
}
