package services

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sjperalta/timecard-api/internal/jobs"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/pkg/logger"
)

// Enqueuer runs jobs in the background
type Enqueuer interface {
	EnqueueAsync(job jobs.Job)
}

// StatusMailer emails a status change to the timecard owner
type StatusMailer interface {
	SendTimecardStatusChanged(ctx context.Context, user *models.User, timecard *models.Timecard, previous string) error
}

type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	mailer   StatusMailer
	worker   Enqueuer
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, mailer StatusMailer, worker Enqueuer) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, mailer: mailer, worker: worker}
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	return fromRepository(s.repo.MarkAsRead(ctx, id, userID))
}

// StatusChanged queues delivery of an in-app notification and an email to the
// owner. Changes the owner made themselves are not notified.
func (s *NotificationService) StatusChanged(ctx context.Context, timecard *models.Timecard, previous string, actor models.Actor) {
	if timecard.IsOwnedBy(actor.ID) {
		return
	}
	snapshot := *timecard
	snapshot.Entries = nil
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		s.deliver(ctx, &snapshot, previous)
		return nil
	})
}

func (s *NotificationService) deliver(ctx context.Context, timecard *models.Timecard, previous string) {
	user, err := s.userRepo.FindByID(ctx, timecard.UserID)
	if err != nil {
		s.fail("in_app", timecard, fmt.Errorf("failed to load timecard owner: %w", err))
		return
	}

	notifType := models.NotificationTypeFor(timecard.Status)
	timecardID := timecard.ID
	notification := &models.Notification{
		UserID:           user.ID,
		TimecardID:       &timecardID,
		Title:            fmt.Sprintf("Hoja de tiempo %s", StatusLabel(timecard.Status)),
		Message:          statusMessage(timecard, previous),
		NotificationType: &notifType,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.fail("in_app", timecard, err)
	}

	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendTimecardStatusChanged(ctx, user, timecard, previous); err != nil {
		s.fail("email", timecard, err)
	}
}

func (s *NotificationService) fail(channel string, timecard *models.Timecard, err error) {
	recordNotificationFailure(channel)
	logger.Error("Timecard notification failed",
		"channel", channel, "timecard_id", timecard.ID, "status", timecard.Status, "error", err.Error())
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("channel", channel)
		scope.SetTag("timecard_id", fmt.Sprint(timecard.ID))
		sentry.CaptureException(err)
	})
}

func statusMessage(timecard *models.Timecard, previous string) string {
	msg := fmt.Sprintf("Tu hoja de tiempo del %s al %s pasó de %s a %s.",
		timecard.PeriodStart, timecard.PeriodEnd, StatusLabel(previous), StatusLabel(timecard.Status))
	if timecard.Status == models.TimecardStatusRejected && timecard.RejectionReason != nil {
		msg += " Motivo: " + *timecard.RejectionReason
	}
	return msg
}
