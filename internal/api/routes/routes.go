package routes

import (
	"parkhub-backend/internal/api/handlers"
	"parkhub-backend/internal/api/middleware"
	"parkhub-backend/internal/config"
	"parkhub-backend/internal/pricing"
	"parkhub-backend/internal/repository"
	"parkhub-backend/internal/services"
	"parkhub-backend/internal/websocket"
	"parkhub-backend/pkg/batch"
	"parkhub-backend/pkg/cache"
	"parkhub-backend/pkg/email"
	"parkhub-backend/pkg/ratelimit"
	"parkhub-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRoutes wires repositories, services and handlers into the API tree.
// Everything except the database may be nil, in which case the affected
// feature degrades gracefully.
func SetupRoutes(router *gin.Engine, db *mongo.Database, redisClient *redis.Client, cfg *config.Config, cacheManager cache.CacheManager, wsManager websocket.EventManager, batchProcessor batch.BatchProcessor, emailService *email.EmailService) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	passRepo := repository.NewPassRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, emailService)
	userService := services.NewUserService(userRepo)

	sessionService := services.NewSessionService(sessionRepo, pricingRepo)
	sessionService.SetPassRepository(passRepo)
	sessionService.SetBookingRepository(bookingRepo)
	sessionService.SetNotificationRepository(notificationRepo)
	sessionService.SetFeeOptions(pricing.Options{
		MinimumFee: cfg.Fee.MinimumFee,
		Precision:  cfg.Fee.Precision,
	})
	if cacheManager != nil {
		sessionService.SetCacheManager(cacheManager)
	}
	if wsManager != nil {
		sessionService.SetWebSocketManager(wsManager)
	}
	if emailService != nil {
		sessionService.SetEmailService(emailService)
	}

	notificationService := services.NewNotificationService(notificationRepo)
	if wsManager != nil {
		notificationService.SetWebSocketManager(wsManager)
	}

	pricingService := services.NewPricingService(pricingRepo)
	if cacheManager != nil {
		pricingService.SetCacheManager(cacheManager)
	}

	bookingService := services.NewBookingService(bookingRepo)
	passService := services.NewPassService(passRepo)

	deviceService := services.NewDeviceService(deviceRepo)
	deviceService.SetNotificationService(notificationService)
	if batchProcessor != nil {
		deviceService.SetBatchProcessor(batchProcessor)
	}

	reportService := services.NewReportService(sessionRepo)
	reportService.SetNotificationRepository(notificationRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	pricingHandler := handlers.NewPricingHandler(pricingService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	passHandler := handlers.NewPassHandler(passService)
	deviceHandler := handlers.NewDeviceHandler(deviceService)
	reportHandler := handlers.NewReportHandler(reportService)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	var wsHandler *handlers.WebSocketHandler
	if wsManager != nil {
		wsHandler = handlers.NewWebSocketHandler(wsManager)
	}

	// Rate limiting backed by Redis, in-memory fallback when Redis is down
	var limiter ratelimit.RateLimiter
	rlConfig := ratelimit.DefaultConfig()
	if redisClient != nil && redisClient.IsConnected() {
		limiter = ratelimit.NewRedisRateLimiter(redisClient.GetClient(), rlConfig)
	} else {
		limiter = ratelimit.NewMemoryRateLimiter(rlConfig)
	}

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(limiter))

	api.GET("/health", healthHandler.HealthCheck)

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/refresh", authHandler.RefreshTokenPublic)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// WebSocket endpoint authenticates via token query parameter
	if wsHandler != nil {
		api.GET("/ws", wsHandler.HandleWebSocket)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		authProtected := protected.Group("/auth")
		{
			authProtected.GET("/profile", authHandler.GetProfile)
			authProtected.POST("/change-password", authHandler.ChangePassword)
		}

		// Sessions
		sessions := protected.Group("/sessions")
		{
			sessions.GET("", sessionHandler.GetSessions)
			sessions.GET("/parked", sessionHandler.GetParkedSessions)
			sessions.GET("/occupancy", sessionHandler.GetOccupancy)
			sessions.GET("/range", sessionHandler.GetSessionsByDateRange)
			sessions.POST("/entry", sessionHandler.RecordEntry)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.GET("/:id/quote", sessionHandler.QuoteFee)
			sessions.POST("/:id/pay", sessionHandler.ProcessPayment)
			sessions.POST("/:id/waive", sessionHandler.RecordWaiver)
			sessions.POST("/:id/exit", sessionHandler.RecordExit)
		}

		// Notifications
		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unresolved", notificationHandler.GetUnresolvedNotifications)
			notifications.GET("/counts", notificationHandler.GetNotificationCounts)
			notifications.POST("", notificationHandler.CreateNotification)
			notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("/clear", notificationHandler.ClearNotifications)
		}

		// Pricing plans
		plans := protected.Group("/plans")
		{
			plans.GET("", pricingHandler.GetPlans)
			plans.POST("", pricingHandler.CreatePlan)
			plans.GET("/active/:vehicleType", pricingHandler.GetActivePlan)
			plans.GET("/:id", pricingHandler.GetPlan)
			plans.PATCH("/:id", pricingHandler.UpdatePlan)
			plans.POST("/:id/activate", pricingHandler.ActivatePlan)
			plans.DELETE("/:id", pricingHandler.DeletePlan)
		}

		// Bookings
		bookings := protected.Group("/bookings")
		{
			bookings.GET("", bookingHandler.GetBookings)
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/code/:code", bookingHandler.GetBookingByCode)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
		}

		// Passes
		passes := protected.Group("/passes")
		{
			passes.GET("", passHandler.GetPasses)
			passes.POST("", passHandler.CreatePass)
			passes.GET("/vehicle/:vehicleNumber", passHandler.GetValidPass)
			passes.GET("/:id", passHandler.GetPass)
			passes.PATCH("/:id", passHandler.UpdatePass)
			passes.POST("/:id/revoke", passHandler.RevokePass)
			passes.POST("/:id/reinstate", passHandler.ReinstatePass)
			passes.DELETE("/:id", passHandler.DeletePass)
		}

		// Devices
		devices := protected.Group("/devices")
		{
			devices.GET("", deviceHandler.GetDevices)
			devices.POST("", deviceHandler.RegisterDevice)
			devices.GET("/:id", deviceHandler.GetDevice)
			devices.POST("/:id/heartbeat", deviceHandler.RecordHeartbeat)
			devices.DELETE("/:id", deviceHandler.DeleteDevice)
		}

		// Reports
		reports := protected.Group("/reports")
		{
			reports.GET("/revenue", reportHandler.GetRevenueReport)
			reports.GET("/summary", reportHandler.GetDashboardSummary)
		}

		// Users
		users := protected.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/:id", userHandler.GetUser)
			users.PATCH("/:id", userHandler.UpdateUser)
			users.PATCH("/:id/status", userHandler.ChangeUserStatus)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		// WebSocket admin endpoints
		if wsHandler != nil {
			ws := protected.Group("/ws")
			{
				ws.GET("/clients", wsHandler.GetConnectedClients)
				ws.POST("/broadcast", wsHandler.BroadcastEvent)
				ws.DELETE("/clients/:clientId", wsHandler.DisconnectClient)
			}
		}
	}
}
