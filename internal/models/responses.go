package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimecardResponse is the JSON response format
type TimecardResponse struct {
	ID              uint                 `json:"id"`
	UserID          uint                 `json:"user_id"`
	ProjectID       uint                 `json:"project_id"`
	PeriodStart     Date                 `json:"period_start"`
	PeriodEnd       Date                 `json:"period_end"`
	Status          string               `json:"status"`
	RejectionReason *string              `json:"rejection_reason"`
	RejectedFields  []AuditField         `json:"rejected_fields"`
	HourlyRate      decimal.Decimal      `json:"hourly_rate"`
	TotalHours      decimal.Decimal      `json:"total_hours"`
	TotalPay        decimal.Decimal      `json:"total_pay"`
	Version         int                  `json:"version"`
	SubmittedAt     *time.Time           `json:"submitted_at"`
	ApprovedAt      *time.Time           `json:"approved_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Entries         []TimecardDailyEntry `json:"entries,omitempty"`
	AvailableEvents []string             `json:"available_events,omitempty"`
}

// ToResponse converts Timecard to TimecardResponse
func (t *Timecard) ToResponse() TimecardResponse {
	fields := t.RejectedFieldList()
	if fields == nil {
		fields = []AuditField{}
	}
	return TimecardResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		ProjectID:       t.ProjectID,
		PeriodStart:     t.PeriodStart,
		PeriodEnd:       t.PeriodEnd,
		Status:          t.Status,
		RejectionReason: t.RejectionReason,
		RejectedFields:  fields,
		HourlyRate:      t.HourlyRate,
		TotalHours:      t.TotalHours,
		TotalPay:        t.TotalPay,
		Version:         t.Version,
		SubmittedAt:     t.SubmittedAt,
		ApprovedAt:      t.ApprovedAt,
		UpdatedAt:       t.UpdatedAt,
		Entries:         t.Entries,
	}
}

// IsRead returns true if notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NotificationResponse is the JSON response format
type NotificationResponse struct {
	ID               uint       `json:"id"`
	TimecardID       *uint      `json:"timecard_id"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	NotificationType *string    `json:"notification_type"`
	Read             bool       `json:"read"`
	ReadAt           *time.Time `json:"read_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts Notification to NotificationResponse
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:               n.ID,
		TimecardID:       n.TimecardID,
		Title:            n.Title,
		Message:          n.Message,
		NotificationType: n.NotificationType,
		Read:             n.IsRead(),
		ReadAt:           n.ReadAt,
		CreatedAt:        n.CreatedAt,
	}
}
