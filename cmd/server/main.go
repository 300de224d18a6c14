package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parkhub-backend/internal/api/routes"
	"parkhub-backend/internal/config"
	"parkhub-backend/internal/overdue"
	"parkhub-backend/internal/repository"
	"parkhub-backend/internal/services"
	"parkhub-backend/internal/websocket"
	"parkhub-backend/pkg/batch"
	"parkhub-backend/pkg/cache"
	"parkhub-backend/pkg/cleanup"
	"parkhub-backend/pkg/database"
	"parkhub-backend/pkg/email"
	"parkhub-backend/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Disconnect(db.Client())

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	// Perform initial health check
	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Printf("Redis connection failed: %s (will retry automatically)", healthStatus.Error)
	}

	// Cache manager on top of the Redis client
	cacheManager := cache.NewDefaultCacheManager(redisClient)
	defer cacheManager.Close()

	// Collection indexes, idempotent on restart
	sessionRepo := repository.NewSessionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	for name, create := range map[string]func() error{
		"sessions":      sessionRepo.CreateIndexes,
		"notifications": notificationRepo.CreateIndexes,
		"pricing_plans": repository.NewPricingRepository(db).CreateIndexes,
		"passes":        repository.NewPassRepository(db).CreateIndexes,
		"bookings":      repository.NewBookingRepository(db).CreateIndexes,
		"devices":       deviceRepo.CreateIndexes,
		"users":         repository.NewUserRepository(db).CreateIndexes,
	} {
		if err := create(); err != nil {
			log.Printf("Failed to create %s indexes: %v", name, err)
		}
	}

	// WebSocket manager for the live dashboard feed
	wsManager := websocket.NewManager()
	if err := wsManager.Start(); err != nil {
		log.Fatal("Failed to start WebSocket manager:", err)
	}
	defer wsManager.Stop()

	// Batched heartbeat writes
	deviceAdapter := batch.NewDeviceRepositoryAdapter(deviceRepo, db)
	batchProcessor := batch.NewBatchProcessorWithWebSocket(batch.DefaultBatchConfig(), deviceAdapter, wsManager)
	if err := batchProcessor.Start(); err != nil {
		log.Fatal("Failed to start batch processor:", err)
	}
	defer batchProcessor.Stop()

	// Outbound mail for receipts and password resets
	var emailService *email.EmailService
	if cfg.SMTP.Host != "" {
		emailService = email.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.FromEmail,
			cfg.SMTP.FromName,
			cfg.SMTP.AppURL,
		)
	} else {
		log.Println("SMTP not configured, email delivery disabled")
	}

	// Overdue-exit monitor sweeps parked sessions past the threshold
	broadcaster := services.NewNotificationService(notificationRepo)
	broadcaster.SetWebSocketManager(wsManager)
	monitor := overdue.NewMonitor(sessionRepo, notificationRepo, broadcaster, overdue.MonitorConfig{
		Interval:  cfg.Sweep.Interval,
		Threshold: cfg.Sweep.Threshold,
	})
	go monitor.Start()
	defer monitor.Stop()

	// Stale-device sweep marks devices offline after missed heartbeats
	deviceService := services.NewDeviceService(deviceRepo)
	deviceService.SetNotificationService(broadcaster)
	staleTicker := time.NewTicker(time.Minute)
	defer staleTicker.Stop()
	go func() {
		for range staleTicker.C {
			if _, err := deviceService.SweepStaleDevices(5 * time.Minute); err != nil {
				log.Printf("Stale device sweep failed: %v", err)
			}
		}
	}()

	// Retention cleanup for cleared notifications, lapsed bookings and
	// expired reset tokens
	cleanupService := cleanup.NewCleanupService(
		repository.NewUserRepository(db),
		notificationRepo,
		repository.NewBookingRepository(db),
		cfg.Retention.Interval,
		cfg.Retention.NotificationDays,
	)
	go cleanupService.Start()
	defer cleanupService.Stop()

	// Setup Gin router
	router := gin.Default()

	// CORS middleware
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false // Cannot use credentials with AllowAllOrigins
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	// Setup routes
	routes.SetupRoutes(router, db, redisClient, cfg, cacheManager, wsManager, batchProcessor, emailService)

	// Run the server in the background so shutdown can stop workers cleanly
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	time.Sleep(100 * time.Millisecond)
}
