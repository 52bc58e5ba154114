package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sjperalta/timecard-api/internal/config"
	"github.com/sjperalta/timecard-api/internal/database"
	"github.com/sjperalta/timecard-api/internal/handlers"
	"github.com/sjperalta/timecard-api/internal/jobs"
	"github.com/sjperalta/timecard-api/internal/middleware"
	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/internal/services"
	"github.com/sjperalta/timecard-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Timecard API
// @version 1.0
// @description REST API for timecard submission, approval and audit history

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.EnableEmailNotifications && (cfg.ResendAPIKey == "" || cfg.FromEmail == "") {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set. Set them in .env and ensure the From domain is verified in Resend dashboard.")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "concurrency", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, worker)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Drain pending notifications
	if err := worker.Shutdown(ctx); err != nil {
		logger.Error("Background worker did not drain", "error", err)
	} else {
		logger.Info("Background worker stopped")
	}

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			timecards := protected.Group("/timecards")
			{
				// Owner and approver access is checked per timecard
				timecards.GET("", h.Timecard.Index)
				timecards.POST("", h.Timecard.Create)
				timecards.GET("/:id", h.Timecard.Show)
				timecards.PUT("/:id/entries", h.Timecard.UpdateEntries)
				timecards.POST("/:id/submit", h.Timecard.Submit)
				timecards.POST("/:id/resubmit", h.Timecard.Resubmit)
				timecards.POST("/:id/reopen", h.Timecard.Reopen)
				timecards.GET("/:id/history", h.History.Index)
				timecards.GET("/:id/history/export", h.History.Export)
				timecards.GET("/:id/changes/:change_id", h.History.Change)

				// Approver-only routes
				approver := timecards.Group("")
				approver.Use(middleware.RequireApprover())
				{
					approver.POST("/:id/approve", h.Timecard.Approve)
					approver.POST("/:id/unapprove", h.Timecard.Unapprove)
					approver.POST("/:id/reject", h.Timecard.Reject)
					approver.POST("/:id/reject_with_edits", h.Timecard.Reject)
					approver.POST("/:id/admin_edit", h.Timecard.AdminEdit)
				}
			}

			// Notifications (users can manage their own notifications)
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.PUT("/:id/read", h.Notification.Update)
			}
		}
	}

	return router
}
