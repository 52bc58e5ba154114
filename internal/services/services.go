package services

import (
	"github.com/sjperalta/timecard-api/internal/config"
	"github.com/sjperalta/timecard-api/internal/jobs"
	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/internal/timeval"
)

// Services holds all service instances
type Services struct {
	Timecard     *TimecardService
	Rejection    *RejectionService
	Audit        *AuditService
	History      *HistoryService
	Notification *NotificationService
	Email        *EmailService
	Export       *ExportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config) *Services {
	codec := timeval.New(cfg.Location)
	emailSvc := NewEmailService(cfg)
	notificationSvc := NewNotificationService(repos.Notification, repos.User, emailSvc, worker)
	auditSvc := NewAuditService(repos.AuditLog, repos.Timecard, codec)
	historySvc := NewHistoryService(repos.AuditLog, repos.Timecard)
	timecardSvc := NewTimecardService(repos.Timecard, repos.Transactor, auditSvc, HoursCalculator{}, notificationSvc)

	return &Services{
		Timecard:     timecardSvc,
		Rejection:    timecardSvc.Rejection(),
		Audit:        auditSvc,
		History:      historySvc,
		Notification: notificationSvc,
		Email:        emailSvc,
		Export:       NewExportService(historySvc),
	}
}
