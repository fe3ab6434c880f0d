package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"meeting-room-backend/config"
	"meeting-room-backend/internal/auth"
	"meeting-room-backend/internal/booking"
	"meeting-room-backend/internal/mw"
	"meeting-room-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, resolver *booking.Resolver, tokens *auth.Tokens, cfg *config.Config, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestLogger(log), gin.Recovery())
	allowCredentials := true
	for _, origin := range cfg.Server.CORSOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", ConflictHeader, "X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	roomCache := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(roomCache, cacheTTL)

	handler := NewHandler(s, resolver, tokens, roomCache, cfg.Booking.Location, log)

	// Rate limit per client; idle clients are forgotten after 10 minutes.
	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst, 10*time.Minute)

	requireAuth := mw.RequireAuth(tokens, s)
	requireAdmin := mw.RequireAdmin()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to Meeting Room Booking System!", "version": "1.0.0"})
	})
	r.GET("/health", func(c *gin.Context) {
		if err := s.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "Meeting Room Booking System"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
	}
	r.GET("/users/me", requireAuth, handler.Me)

	// API group
	api := r.Group("/api/v1")
	api.Use(mw.RateLimiter(limiter))
	{
		api.GET("/rooms", caching, handler.ListRooms)
		api.GET("/rooms/:id", caching, handler.GetRoom)
		api.GET("/rooms/:id/availability", handler.RoomAvailability)

		rooms := api.Group("/rooms", requireAuth, requireAdmin)
		rooms.POST("", handler.CreateRoom)
		rooms.PUT("/:id", handler.UpdateRoom)
		rooms.DELETE("/:id", handler.DeleteRoom)

		bookings := api.Group("/bookings", requireAuth)
		bookings.GET("", handler.ListMyBookings)
		bookings.POST("", handler.CreateBooking)
		bookings.GET("/:id", handler.GetBooking)
		bookings.PUT("/:id", handler.UpdateBooking)
		bookings.DELETE("/:id", handler.CancelBooking)

		admin := api.Group("/admin", requireAuth, requireAdmin)
		admin.GET("/bookings", handler.AdminListBookings)
		admin.GET("/bookings/:id", handler.AdminGetBooking)
		admin.DELETE("/bookings/:id", handler.AdminCancelBooking)
		admin.GET("/rooms", handler.AdminListRooms)
		admin.GET("/users", handler.AdminListUsers)
		admin.GET("/stats", handler.AdminStats)
		admin.POST("/make-admin/:user_id", handler.MakeAdmin)
	}

	return r
}
