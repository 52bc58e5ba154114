package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/internal/statemachine"
	"github.com/sjperalta/timecard-api/internal/timeval"
	"github.com/sjperalta/timecard-api/pkg/logger"
)

// Result is the committed outcome of one interaction
type Result struct {
	Timecard *models.Timecard          `json:"timecard"`
	ChangeID string                    `json:"change_id,omitempty"`
	Changes  []models.TimecardAuditLog `json:"changes"`
}

// Notifier is told about committed status changes. Delivery is best effort.
type Notifier interface {
	StatusChanged(ctx context.Context, timecard *models.Timecard, previous string, actor models.Actor)
}

// interaction mutates a loaded timecard and returns the audit rows it wrote
type interaction func(ctx context.Context, timecard *models.Timecard) ([]models.TimecardAuditLog, error)

// lifecycle holds the collaborators shared by every timecard interaction
type lifecycle struct {
	repo     repository.TimecardRepository
	tx       repository.Transactor
	audit    *AuditService
	totals   TotalsCalculator
	notifier Notifier
	codec    *timeval.Codec
	now      func() time.Time
}

// run applies fn to the current timecard and persists it in one transaction.
// op is logged and counted as the event actually fired from the loaded state.
// The header write only succeeds if no other writer committed since the read,
// otherwise the whole interaction aborts with ErrConcurrentModification.
func (l *lifecycle) run(ctx context.Context, op string, id uint, actor models.Actor, expectedVersion int, fn interaction) (*Result, error) {
	var (
		result   Result
		previous string
	)

	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		timecard, err := l.repo.FindByID(ctx, id)
		if err != nil {
			return fromRepository(err)
		}
		if expectedVersion > 0 && timecard.Version != expectedVersion {
			return ErrConcurrentModification
		}
		previous = timecard.Status
		op = statemachine.Resolve(op, previous)

		changes, err := fn(ctx, timecard)
		if err != nil {
			return err
		}
		if err := l.repo.UpdateHeader(ctx, timecard); err != nil {
			return fromRepository(err)
		}

		result = Result{Timecard: timecard, Changes: changes}
		if len(changes) > 0 {
			result.ChangeID = changes[0].ChangeID
		}
		return nil
	})
	if err != nil {
		if IsRetryable(err) {
			recordConflict()
		}
		logger.Warn("Timecard interaction failed",
			"op", op, "timecard_id", id, "actor_id", actor.ID, "error", err.Error())
		return nil, err
	}

	logger.Info("Timecard interaction committed",
		"op", op, "timecard_id", id, "actor_id", actor.ID,
		"status", result.Timecard.Status, "change_id", result.ChangeID, "rows", len(result.Changes))

	if result.Timecard.Status != previous {
		recordTransition(op)
		if l.notifier != nil {
			l.notifier.StatusChanged(ctx, result.Timecard, previous, actor)
		}
	}
	return &result, nil
}

// target checks event against the state machine without touching timecard
func (l *lifecycle) target(ctx context.Context, timecard *models.Timecard, event string, actor models.Actor) (string, error) {
	next := *timecard
	if err := statemachine.NewTimecardFSM(&next).Fire(ctx, event, actor); err != nil {
		return "", err
	}
	return next.Status, nil
}

// validateEdits checks dates and clock values before anything is recorded.
// Missing entries on covered dates are created later only when create is set.
func (l *lifecycle) validateEdits(timecard *models.Timecard, edits models.DailyEdits, create bool) error {
	for date, fields := range edits {
		if !timecard.CoversDate(date) {
			return invalid("work_date", "la fecha %s está fuera del período %s a %s", date, timecard.PeriodStart, timecard.PeriodEnd)
		}
		if !create && timecard.EntryFor(date) == nil {
			return fmt.Errorf("%w: no existe registro diario para %s", ErrNotFound, date)
		}
		for field, value := range fields {
			if !field.IsDaily() {
				return invalid(string(field), "no es un campo diario")
			}
			if value != nil && !l.codec.Valid(*value) {
				return invalid(string(field), "hora inválida %q para %s", *value, date)
			}
		}
	}
	return nil
}

// applyEdits writes canonical values into the daily entries, recomputes totals
// and saves every entry of the timecard
func (l *lifecycle) applyEdits(ctx context.Context, timecard *models.Timecard, edits models.DailyEdits) error {
	if len(edits) == 0 {
		return nil
	}
	for _, change := range edits.Changes() {
		entry := timecard.EntryFor(*change.WorkDate)
		if entry == nil {
			timecard.Entries = append(timecard.Entries, models.TimecardDailyEntry{
				TimecardID: timecard.ID,
				WorkDate:   *change.WorkDate,
			})
			entry = &timecard.Entries[len(timecard.Entries)-1]
		}
		entry.Set(change.Field, l.codec.Normalize(change.Value))
	}

	if err := l.totals.Recalculate(ctx, timecard); err != nil {
		return fmt.Errorf("failed to recalculate totals: %w", err)
	}

	entries := make([]*models.TimecardDailyEntry, len(timecard.Entries))
	for i := range timecard.Entries {
		entries[i] = &timecard.Entries[i]
	}
	if err := l.repo.SaveEntries(ctx, entries); err != nil {
		return fmt.Errorf("failed to save daily entries: %w", err)
	}
	return nil
}

// statusChanges is the status delta plus, when leaving rejected, the cleared rejection reason
func statusChanges(timecard *models.Timecard, target string) []models.FieldChange {
	changes := []models.FieldChange{{Field: models.FieldStatus, Value: &target}}
	if timecard.Status == models.TimecardStatusRejected && target != models.TimecardStatusRejected {
		changes = append(changes, models.FieldChange{Field: models.FieldRejectionReason})
	}
	return changes
}

// enter moves timecard into target and maintains the header fields tied to it
func (l *lifecycle) enter(timecard *models.Timecard, target string) {
	now := l.now()
	if timecard.Status == models.TimecardStatusRejected && target != models.TimecardStatusRejected {
		timecard.RejectionReason = nil
		timecard.RejectedFields = nil
	}
	switch target {
	case models.TimecardStatusSubmitted:
		timecard.SubmittedAt = &now
		timecard.ApprovedAt = nil
	case models.TimecardStatusApproved:
		timecard.ApprovedAt = &now
	case models.TimecardStatusDraft, models.TimecardStatusEditedDraft:
		timecard.SubmittedAt = nil
	}
	timecard.Status = target
}
