package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler     *handler.RideHandler
	DriverHandler   *handler.DriverHandler
	EstimateHandler *handler.EstimateHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	JWTSecret       string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(deps.JWTSecret)
	throttle := middleware.RateLimitMiddleware(rate.Limit(10), 20)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(auth)
	{
		// Quote without committing to a ride.
		v1.POST("/estimates", deps.EstimateHandler.Estimate)

		// Ride lifecycle routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", throttle, deps.RideHandler.RequestRide)
			rides.GET("/mine", deps.RideHandler.Mine)
			rides.GET("/pool", middleware.RequireRole(middleware.RoleDriver), deps.RideHandler.Pool)
			rides.GET("/monitor", middleware.RequireRole(middleware.RoleOperator), deps.RideHandler.Monitor)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/accept", throttle, deps.RideHandler.AcceptRide)
			rides.POST("/:id/arrived", deps.RideHandler.Arrived)
			rides.POST("/:id/board", deps.RideHandler.Board)
			rides.POST("/:id/dropoff", deps.RideHandler.DropOff)
			rides.POST("/:id/rate", deps.RideHandler.Rate)
			rides.POST("/:id/cancel", deps.RideHandler.Cancel)
			rides.POST("/:id/cancel-by-driver", deps.RideHandler.CancelByDriver)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		drivers.Use(middleware.RequireRole(middleware.RoleDriver))
		{
			drivers.GET("/rides", deps.DriverHandler.Rides)
			drivers.GET("/earnings", deps.DriverHandler.Earnings)
		}
	}

	return router
}
