package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/timecard-api/internal/config"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/services"
	"github.com/sjperalta/timecard-api/pkg/logger"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger.Setup("development", cfg.LogLevel)

	if cfg.ResendAPIKey == "" {
		log.Fatal("RESEND_API_KEY is not set")
	}
	cfg.EnableEmailNotifications = true

	emailService := services.NewEmailService(cfg)

	toEmail := os.Getenv("TEST_EMAIL_TO")
	if toEmail == "" {
		toEmail = "test@example.com"
		log.Println("TEST_EMAIL_TO not set, using test@example.com. Emails might mock or fail if domain not verified.")
	}

	user := &models.User{
		FullName: "Test User",
		Email:    toEmail,
	}

	start := models.NewDate(time.Now().AddDate(0, 0, -6))
	reason := "Falta registrar el almuerzo del lunes"
	timecard := &models.Timecard{
		ID:              1,
		UserID:          user.ID,
		PeriodStart:     start,
		PeriodEnd:       start.AddDays(6),
		Status:          models.TimecardStatusRejected,
		RejectionReason: &reason,
		TotalHours:      decimal.NewFromFloat(38.5),
	}

	log.Printf("Sending Timecard Rejected email to %s...", toEmail)
	if err := emailService.SendTimecardStatusChanged(context.Background(), user, timecard, models.TimecardStatusSubmitted); err != nil {
		log.Fatalf("Failed to send Timecard Rejected email: %v", err)
	}
	log.Println("Timecard Rejected email sent successfully!")

	timecard.Status = models.TimecardStatusApproved
	timecard.RejectionReason = nil
	log.Printf("Sending Timecard Approved email to %s...", toEmail)
	if err := emailService.SendTimecardStatusChanged(context.Background(), user, timecard, models.TimecardStatusSubmitted); err != nil {
		log.Fatalf("Failed to send Timecard Approved email: %v", err)
	}
	log.Println("Timecard Approved email sent successfully!")
}
