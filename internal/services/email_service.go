package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/sjperalta/timecard-api/internal/config"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

var statusLabels = map[string]string{
	models.TimecardStatusDraft:       "Borrador",
	models.TimecardStatusSubmitted:   "Enviada",
	models.TimecardStatusApproved:    "Aprobada",
	models.TimecardStatusRejected:    "Rechazada",
	models.TimecardStatusEditedDraft: "Borrador editado",
}

// StatusLabel returns the display label of a timecard status
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// checkEmailPreconditions reports whether an email should be sent. A false
// result with a nil error means email is switched off.
func (s *EmailService) checkEmailPreconditions(user *models.User, operation string) (bool, error) {
	if !s.config.EnableEmailNotifications {
		logger.Debug("Email notifications disabled, skipping", "operation", operation)
		return false, nil
	}
	if s.config.ResendAPIKey == "" {
		return false, fmt.Errorf("cannot %s: RESEND_API_KEY is not set", operation)
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return false, errors.New("email address is empty")
	}
	return true, nil
}

// SendTimecardStatusChanged tells the owner that their timecard moved to a new status
func (s *EmailService) SendTimecardStatusChanged(ctx context.Context, user *models.User, timecard *models.Timecard, previous string) error {
	ok, err := s.checkEmailPreconditions(user, "send timecard status email")
	if !ok {
		return err
	}

	data := struct {
		Name        string
		TimecardID  uint
		PeriodStart string
		PeriodEnd   string
		Previous    string
		Status      string
		Reason      string
		TotalHours  string
		AppURL      string
	}{
		Name:        user.FullName,
		TimecardID:  timecard.ID,
		PeriodStart: timecard.PeriodStart.String(),
		PeriodEnd:   timecard.PeriodEnd.String(),
		Previous:    StatusLabel(previous),
		Status:      StatusLabel(timecard.Status),
		TotalHours:  timecard.TotalHours.StringFixed(2),
		AppURL:      s.config.AppURL,
	}
	if timecard.RejectionReason != nil {
		data.Reason = *timecard.RejectionReason
	}

	body, err := s.renderTemplate("timecard_status.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Hoja de tiempo %s", strings.ToLower(StatusLabel(timecard.Status)))
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{user.Email},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", user.Email, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", user.Email, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
