package routes

import (
	"time"

	"lockbox/handlers"
	"lockbox/middleware"
	"lockbox/models"
	"lockbox/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options carries the router-wide settings read from configuration.
type Options struct {
	Origins           []string
	MaxRequestsPerMin int
	RequestLogging    bool
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health.HealthCheckHandler)
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bh := hb.Booking
	bookingGroup := r.Group("/api/booking")
	{
		bookingGroup.GET("/availability", bh.CheckAvailabilityHandler)

		protected := bookingGroup.Group("")
		protected.Use(middleware.JWTAuthMiddleware(hb.JWTSecret))
		protected.POST("/request", middleware.RequireRole(models.RoleRent), bh.RequestBookingHandler)
		protected.PUT("/:id/status", middleware.RequireRole(models.RoleHost), bh.UpdateStatusHandler)
		protected.POST("/:id/dispute", bh.FileDisputeHandler)
		protected.POST("/:id/checkin", bh.FileCheckInHandler)
		protected.GET("/:id", bh.GetBookingHandler)
		protected.GET("/:id/disputes", bh.ListDisputesHandler)
		protected.GET("/:id/checkins", bh.ListCheckInsHandler)
		protected.GET("/rent", middleware.RequireRole(models.RoleRent), bh.ListBookingsHandler(models.RoleRent))
		protected.GET("/host", middleware.RequireRole(models.RoleHost), bh.ListBookingsHandler(models.RoleHost))
	}
}

// RegisterNotificationRoutes exposes the caller's notification inbox.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuthMiddleware(hb.JWTSecret))
		api.GET("", hb.Notification.ListNotificationsHandler)
		api.PUT("/:id/read", hb.Notification.MarkReadHandler)
	}
}

// RegisterChatRoutes mounts the live event stream.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.Use(middleware.JWTAuthMiddleware(hb.JWTSecret))
		api.GET("/stream", hb.Chat.StreamHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	r.Use(utils.ErrorHandler())
	if opts.RequestLogging {
		r.Use(gin.Logger())
	}
	r.Use(cors.New(corsConfig(opts.Origins)))
	r.Use(middleware.RateLimitMiddleware(opts.MaxRequestsPerMin))

	RegisterHealthRoute(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterChatRoutes(r, hb)
}

// corsConfig allows any origin, without credentials, when none are configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
