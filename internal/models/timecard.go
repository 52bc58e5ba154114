package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Timecard is the header of one user's time submission for one project and pay period
type Timecard struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;uniqueIndex:idx_timecards_user_project_period" json:"user_id"`
	ProjectID       uint            `gorm:"not null;uniqueIndex:idx_timecards_user_project_period" json:"project_id"`
	PeriodStart     Date            `gorm:"type:date;not null;uniqueIndex:idx_timecards_user_project_period" json:"period_start"`
	PeriodEnd       Date            `gorm:"type:date;not null" json:"period_end"`
	Status          string          `gorm:"size:20;default:draft;not null;index" json:"status"`
	RejectionReason *string         `gorm:"type:text" json:"rejection_reason"`
	RejectedFields  *string         `gorm:"type:text" json:"-"` // sorted, comma separated canonical field names
	HourlyRate      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"hourly_rate"`
	TotalHours      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_hours"`
	TotalPay        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_pay"`
	Version         int             `gorm:"not null;default:1" json:"version"`
	SubmittedAt     *time.Time      `json:"submitted_at"`
	ApprovedAt      *time.Time      `json:"approved_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Associations
	Entries []TimecardDailyEntry `gorm:"foreignKey:TimecardID" json:"entries,omitempty"`
}

// TableName specifies the table name for Timecard
func (Timecard) TableName() string {
	return "timecards"
}

// Timecard status constants
const (
	TimecardStatusDraft       = "draft"
	TimecardStatusSubmitted   = "submitted"
	TimecardStatusApproved    = "approved"
	TimecardStatusRejected    = "rejected"
	TimecardStatusEditedDraft = "edited_draft"
)

// IsValidTimecardStatus reports whether s is a member of the status enum
func IsValidTimecardStatus(s string) bool {
	switch s {
	case TimecardStatusDraft, TimecardStatusSubmitted, TimecardStatusApproved,
		TimecardStatusRejected, TimecardStatusEditedDraft:
		return true
	}
	return false
}

// IsOwnedBy returns true if the user is the timecard owner
func (t *Timecard) IsOwnedBy(userID uint) bool {
	return t.UserID == userID
}

// IsEditableByOwner returns true while the owner may still change daily entries
func (t *Timecard) IsEditableByOwner() bool {
	return t.Status == TimecardStatusDraft || t.Status == TimecardStatusEditedDraft || t.Status == TimecardStatusRejected
}

// CoversDate returns true if d falls inside the pay period
func (t *Timecard) CoversDate(d Date) bool {
	return !d.Before(t.PeriodStart.Time) && !d.After(t.PeriodEnd.Time)
}

// EntryFor returns the daily entry for the given work date, or nil
func (t *Timecard) EntryFor(d Date) *TimecardDailyEntry {
	for i := range t.Entries {
		if t.Entries[i].WorkDate.Equal(d.Time) {
			return &t.Entries[i]
		}
	}
	return nil
}

// RejectedFieldList returns the canonical names stored in RejectedFields
func (t *Timecard) RejectedFieldList() []AuditField {
	if t.RejectedFields == nil || *t.RejectedFields == "" {
		return nil
	}
	parts := strings.Split(*t.RejectedFields, ",")
	fields := make([]AuditField, 0, len(parts))
	for _, p := range parts {
		fields = append(fields, AuditField(p))
	}
	return fields
}

// HeaderValue returns the current stored value of a header-level field
func (t *Timecard) HeaderValue(field AuditField) *string {
	switch field {
	case FieldStatus:
		status := t.Status
		return &status
	case FieldRejectionReason:
		return t.RejectionReason
	case FieldRejectedFields:
		return t.RejectedFields
	}
	return nil
}

// JoinFieldSet renders a set of canonical field names in their stored form.
// An empty set renders as nil.
func JoinFieldSet(fields []AuditField) *string {
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[AuditField]struct{}, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		names = append(names, string(f))
	}
	sort.Strings(names)
	joined := strings.Join(names, ",")
	return &joined
}

// TimecardDailyEntry holds the clock times of one work date within a timecard
type TimecardDailyEntry struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	TimecardID     uint            `gorm:"not null;uniqueIndex:idx_daily_entries_timecard_date" json:"timecard_id"`
	WorkDate       Date            `gorm:"type:date;not null;uniqueIndex:idx_daily_entries_timecard_date" json:"work_date"`
	CheckInTime    *string         `gorm:"column:check_in_time;size:8" json:"check_in"`
	BreakStartTime *string         `gorm:"column:break_start_time;size:8" json:"break_start"`
	BreakEndTime   *string         `gorm:"column:break_end_time;size:8" json:"break_end"`
	CheckOutTime   *string         `gorm:"column:check_out_time;size:8" json:"check_out"`
	Hours          decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"hours"`
	Pay            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"pay"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for TimecardDailyEntry
func (TimecardDailyEntry) TableName() string {
	return "timecard_daily_entries"
}

// Get returns the stored value of a daily field
func (e *TimecardDailyEntry) Get(field AuditField) *string {
	switch field {
	case FieldCheckIn:
		return e.CheckInTime
	case FieldBreakStart:
		return e.BreakStartTime
	case FieldBreakEnd:
		return e.BreakEndTime
	case FieldCheckOut:
		return e.CheckOutTime
	}
	return nil
}

// Set replaces the stored value of a daily field
func (e *TimecardDailyEntry) Set(field AuditField, value *string) {
	switch field {
	case FieldCheckIn:
		e.CheckInTime = value
	case FieldBreakStart:
		e.BreakStartTime = value
	case FieldBreakEnd:
		e.BreakEndTime = value
	case FieldCheckOut:
		e.CheckOutTime = value
	}
}
