package services

import (
	"context"
	"strings"

	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/statemachine"
)

// RejectRequest rejects a submitted timecard, optionally correcting daily entries
type RejectRequest struct {
	TransitionRequest
	Reason string
	Edits  models.DailyEdits
}

// RejectionService orchestrates a rejection as a single audited interaction
type RejectionService struct {
	*lifecycle
}

// RejectWithEdits rejects the timecard, applies the approver's daily edits and
// records every delta under one change id. rejected_fields is derived from the
// daily edits that actually changed a stored value and is not audited separately.
func (s *RejectionService) RejectWithEdits(ctx context.Context, req RejectRequest) (*Result, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalid("reason", "se requiere un motivo de rechazo")
	}

	return s.run(ctx, statemachine.EventReject, req.TimecardID, req.Actor, req.ExpectedVersion, func(ctx context.Context, timecard *models.Timecard) ([]models.TimecardAuditLog, error) {
		target, err := s.target(ctx, timecard, statemachine.EventReject, req.Actor)
		if err != nil {
			return nil, err
		}
		if err := s.validateEdits(timecard, req.Edits, false); err != nil {
			return nil, err
		}

		daily := req.Edits.Changes()
		deltas, err := s.audit.Diff(timecard, daily)
		if err != nil {
			return nil, err
		}
		fields := make([]models.AuditField, 0, len(deltas))
		for _, d := range deltas {
			fields = append(fields, d.FieldName)
		}
		rejected := models.JoinFieldSet(fields)

		action := models.ActionRejectionEdit
		if len(deltas) == 0 {
			action = models.ActionStatusChange
		}

		proposed := append(daily,
			models.FieldChange{Field: models.FieldStatus, Value: &target},
			models.FieldChange{Field: models.FieldRejectionReason, Value: &reason},
		)
		changes, err := s.audit.Record(ctx, timecard, proposed, req.Actor, action)
		if err != nil {
			return nil, err
		}

		if len(deltas) > 0 {
			if err := s.applyEdits(ctx, timecard, req.Edits); err != nil {
				return nil, err
			}
		}
		s.enter(timecard, target)
		timecard.RejectionReason = &reason
		timecard.RejectedFields = rejected
		return changes, nil
	})
}
