package models

import (
	"sort"
	"strings"
	"time"
)

// AuditField is a canonical, storage-agnostic field name used in audit rows
type AuditField string

// Canonical audit field names
const (
	FieldCheckIn         AuditField = "check_in"
	FieldBreakStart      AuditField = "break_start"
	FieldBreakEnd        AuditField = "break_end"
	FieldCheckOut        AuditField = "check_out"
	FieldStatus          AuditField = "status"
	FieldRejectionReason AuditField = "rejection_reason"
	FieldRejectedFields  AuditField = "rejected_fields"
)

// DailyFields lists the canonical fields of a daily entry in display order
var DailyFields = []AuditField{FieldCheckIn, FieldBreakStart, FieldBreakEnd, FieldCheckOut}

// fieldAliases maps every known external spelling to its canonical field.
// Desktop clients send storage column names, mobile clients send camelCase keys.
var fieldAliases = map[string]AuditField{
	"check_in":         FieldCheckIn,
	"check_in_time":    FieldCheckIn,
	"checkin":          FieldCheckIn,
	"checkintime":      FieldCheckIn,
	"break_start":      FieldBreakStart,
	"break_start_time": FieldBreakStart,
	"breakstart":       FieldBreakStart,
	"breakstarttime":   FieldBreakStart,
	"break_end":        FieldBreakEnd,
	"break_end_time":   FieldBreakEnd,
	"breakend":         FieldBreakEnd,
	"breakendtime":     FieldBreakEnd,
	"check_out":        FieldCheckOut,
	"check_out_time":   FieldCheckOut,
	"checkout":         FieldCheckOut,
	"checkouttime":     FieldCheckOut,
}

// ParseDailyField resolves a client-supplied daily field key to its canonical name
func ParseDailyField(key string) (AuditField, bool) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(key))]
	return f, ok
}

// IsDaily returns true for fields that live on a daily entry
func (f AuditField) IsDaily() bool {
	switch f {
	case FieldCheckIn, FieldBreakStart, FieldBreakEnd, FieldCheckOut:
		return true
	}
	return false
}

// IsValid returns true for every canonical field name
func (f AuditField) IsValid() bool {
	return f.IsDaily() || f == FieldStatus || f == FieldRejectionReason || f == FieldRejectedFields
}

// AuditAction classifies the interaction that produced an audit row
type AuditAction string

// Audit action types
const (
	ActionUserEdit      AuditAction = "user_edit"
	ActionAdminEdit     AuditAction = "admin_edit"
	ActionRejectionEdit AuditAction = "rejection_edit"
	ActionStatusChange  AuditAction = "status_change"
)

// TimecardAuditLog is one field-level change produced by one interaction.
// Rows are append-only.
type TimecardAuditLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	TimecardID uint        `gorm:"not null;index:idx_timecard_audit_logs_timecard_changed" json:"timecard_id"`
	ChangeID   string      `gorm:"type:uuid;not null;index" json:"change_id"`
	FieldName  AuditField  `gorm:"size:32;not null" json:"field_name"`
	OldValue   *string     `gorm:"type:text" json:"old_value"`
	NewValue   *string     `gorm:"type:text" json:"new_value"`
	ChangedBy  uint        `gorm:"not null;index" json:"changed_by"`
	ChangedAt  time.Time   `gorm:"not null;index:idx_timecard_audit_logs_timecard_changed" json:"changed_at"`
	ActionType AuditAction `gorm:"size:20;not null" json:"action_type"`
	WorkDate   *Date       `gorm:"type:date" json:"work_date"`
}

// TableName specifies the table name for TimecardAuditLog
func (TimecardAuditLog) TableName() string {
	return "timecard_audit_logs"
}

// FieldChange is one proposed value for a canonical field.
// WorkDate is set for daily fields and nil for header fields.
type FieldChange struct {
	Field    AuditField
	Value    *string
	WorkDate *Date
}

// DailyEdits groups proposed daily field values by work date
type DailyEdits map[Date]map[AuditField]*string

// Changes flattens the edits into field changes ordered by date then field
func (e DailyEdits) Changes() []FieldChange {
	dates := make([]Date, 0, len(e))
	for d := range e {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j].Time) })

	var changes []FieldChange
	for _, d := range dates {
		fields := e[d]
		for _, f := range DailyFields {
			v, ok := fields[f]
			if !ok {
				continue
			}
			changes = append(changes, FieldChange{Field: f, Value: v, WorkDate: d.Ptr()})
		}
	}
	return changes
}
