package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/internal/timeval"
)

// AuditService records field-level deltas of timecard interactions
type AuditService struct {
	repo      repository.AuditLogRepository
	timecards repository.TimecardRepository
	codec     *timeval.Codec
	now       func() time.Time
	newID     func() string
}

func NewAuditService(repo repository.AuditLogRepository, timecards repository.TimecardRepository, codec *timeval.Codec) *AuditService {
	if codec == nil {
		codec = timeval.Default
	}
	return &AuditService{
		repo:      repo,
		timecards: timecards,
		codec:     codec,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RecordChanges loads the stored timecard and records the deltas of changes against it.
// Callers that already hold the pre-mutation timecard should use Record.
func (s *AuditService) RecordChanges(ctx context.Context, timecardID uint, changes []models.FieldChange, actor models.Actor, action models.AuditAction) ([]models.TimecardAuditLog, error) {
	timecard, err := s.timecards.FindByID(ctx, timecardID)
	if err != nil {
		return nil, fromRepository(err)
	}
	return s.Record(ctx, timecard, changes, actor, action)
}

// Record writes one row per real delta, all sharing a change id and timestamp.
// timecard must hold the values as stored before the mutation is applied.
// No rows and no change id are produced when every change is a no-op.
func (s *AuditService) Record(ctx context.Context, timecard *models.Timecard, changes []models.FieldChange, actor models.Actor, action models.AuditAction) ([]models.TimecardAuditLog, error) {
	entries, err := s.Diff(timecard, changes)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	changeID := s.newID()
	changedAt := s.now().UTC()
	for i := range entries {
		entries[i].TimecardID = timecard.ID
		entries[i].ChangeID = changeID
		entries[i].ChangedBy = actor.ID
		entries[i].ChangedAt = changedAt
		entries[i].ActionType = action
	}

	if err := s.repo.CreateBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", err)
	}
	recordAuditRows(string(action), len(entries))
	return entries, nil
}

// Diff returns unsaved rows for the changes whose normalized value differs
// from the stored one. A repeated (field, date) pair keeps the last value.
func (s *AuditService) Diff(timecard *models.Timecard, changes []models.FieldChange) ([]models.TimecardAuditLog, error) {
	var entries []models.TimecardAuditLog
	for _, change := range collapse(changes) {
		if !change.Field.IsValid() {
			return nil, invalid(string(change.Field), "campo desconocido")
		}

		var stored *string
		if change.Field.IsDaily() {
			if change.WorkDate == nil {
				return nil, invalid(string(change.Field), "se requiere la fecha de trabajo")
			}
			// A missing entry is audited as a change from empty
			if entry := timecard.EntryFor(*change.WorkDate); entry != nil {
				stored = entry.Get(change.Field)
			}
		} else {
			if change.WorkDate != nil {
				return nil, invalid(string(change.Field), "no es un campo diario")
			}
			stored = timecard.HeaderValue(change.Field)
		}

		if s.equal(change.Field, stored, change.Value) {
			continue
		}
		entries = append(entries, models.TimecardAuditLog{
			FieldName: change.Field,
			OldValue:  display(stored),
			NewValue:  display(change.Value),
			WorkDate:  change.WorkDate,
		})
	}
	return entries, nil
}

func (s *AuditService) equal(field models.AuditField, a, b *string) bool {
	switch {
	case field.IsDaily():
		return s.codec.Equal(a, b)
	case field == models.FieldRejectedFields:
		return ptrEqual(normalizeFieldSet(a), normalizeFieldSet(b))
	default:
		return ptrEqual(display(a), display(b))
	}
}

func collapse(changes []models.FieldChange) []models.FieldChange {
	type key struct {
		field models.AuditField
		date  string
	}
	index := make(map[key]int, len(changes))
	out := make([]models.FieldChange, 0, len(changes))
	for _, c := range changes {
		k := key{field: c.Field}
		if c.WorkDate != nil {
			k.date = c.WorkDate.String()
		}
		if i, ok := index[k]; ok {
			out[i] = c
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}

// display trims a value for storage in the log. Blank becomes nil.
func display(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func normalizeFieldSet(v *string) *string {
	if v == nil {
		return nil
	}
	var fields []models.AuditField
	for _, part := range strings.Split(*v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			fields = append(fields, models.AuditField(p))
		}
	}
	return models.JoinFieldSet(fields)
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
