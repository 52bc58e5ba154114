package models

import (
	"time"
)

// Notification represents an in-app user notification
type Notification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	TimecardID       *uint      `gorm:"index" json:"timecard_id"`
	Title            string     `gorm:"not null" json:"title"`
	Message          string     `gorm:"not null" json:"message"`
	NotificationType *string    `gorm:"index" json:"notification_type"`
	ReadAt           *time.Time `gorm:"index" json:"read_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotificationTypeTimecardSubmitted  = "timecard_submitted"
	NotificationTypeTimecardApproved   = "timecard_approved"
	NotificationTypeTimecardRejected   = "timecard_rejected"
	NotificationTypeTimecardEdited     = "timecard_edited"
	NotificationTypeTimecardReopened   = "timecard_reopened"
	NotificationTypeTimecardUnapproved = "timecard_unapproved"
)

// NotificationTypeFor maps a timecard status to the notification type sent when entering it
func NotificationTypeFor(status string) string {
	switch status {
	case TimecardStatusSubmitted:
		return NotificationTypeTimecardSubmitted
	case TimecardStatusApproved:
		return NotificationTypeTimecardApproved
	case TimecardStatusRejected:
		return NotificationTypeTimecardRejected
	case TimecardStatusEditedDraft:
		return NotificationTypeTimecardEdited
	default:
		return NotificationTypeTimecardReopened
	}
}
