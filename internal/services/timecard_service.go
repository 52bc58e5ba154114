package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/internal/statemachine"
	"github.com/sjperalta/timecard-api/pkg/logger"
)

// maxPeriodDays bounds the number of daily entries a single timecard can hold
const maxPeriodDays = 31

// CreateTimecardRequest opens a draft for a pay period
type CreateTimecardRequest struct {
	ProjectID   uint
	PeriodStart models.Date
	PeriodEnd   models.Date
	HourlyRate  decimal.Decimal
}

// TransitionRequest asks for a lifecycle event on behalf of an actor.
// ExpectedVersion, when set, must match the stored version.
type TransitionRequest struct {
	TimecardID      uint
	Actor           models.Actor
	ExpectedVersion int
}

// EditRequest carries daily edits
type EditRequest struct {
	TransitionRequest
	Edits models.DailyEdits
}

type TimecardService struct {
	*lifecycle
	rejection *RejectionService
}

func NewTimecardService(repo repository.TimecardRepository, tx repository.Transactor, audit *AuditService, totals TotalsCalculator, notifier Notifier) *TimecardService {
	core := &lifecycle{
		repo:     repo,
		tx:       tx,
		audit:    audit,
		totals:   totals,
		notifier: notifier,
		codec:    audit.codec,
		now:      time.Now,
	}
	return &TimecardService{
		lifecycle: core,
		rejection: &RejectionService{lifecycle: core},
	}
}

// Rejection returns the reject-with-edits orchestrator sharing this service's collaborators
func (s *TimecardService) Rejection() *RejectionService {
	return s.rejection
}

// FindByID returns a timecard visible to actor
func (s *TimecardService) FindByID(ctx context.Context, id uint, actor models.Actor) (*models.Timecard, error) {
	timecard, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepository(err)
	}
	if !timecard.IsOwnedBy(actor.ID) && !actor.IsApprover() {
		return nil, ErrForbidden
	}
	return timecard, nil
}

// List returns timecards filtered by query. Plain users only see their own.
func (s *TimecardService) List(ctx context.Context, query *repository.TimecardQuery, actor models.Actor) ([]models.Timecard, int64, error) {
	if !actor.IsApprover() {
		query.UserID = actor.ID
	}
	return s.repo.List(ctx, query)
}

// CreateDraft opens a draft with one empty daily entry per date of the period
func (s *TimecardService) CreateDraft(ctx context.Context, req CreateTimecardRequest, actor models.Actor) (*models.Timecard, error) {
	if req.ProjectID == 0 {
		return nil, invalid("project_id", "es requerido")
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		return nil, invalid("period", "se requieren las fechas de inicio y fin")
	}
	if req.PeriodEnd.Before(req.PeriodStart.Time) {
		return nil, invalid("period_end", "debe ser posterior a period_start")
	}
	days := int(req.PeriodEnd.Sub(req.PeriodStart.Time).Hours()/24) + 1
	if days > maxPeriodDays {
		return nil, invalid("period", "el período no puede exceder %d días", maxPeriodDays)
	}
	if req.HourlyRate.IsNegative() {
		return nil, invalid("hourly_rate", "no puede ser negativa")
	}

	timecard := &models.Timecard{
		UserID:      actor.ID,
		ProjectID:   req.ProjectID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Status:      models.TimecardStatusDraft,
		HourlyRate:  req.HourlyRate,
		Version:     1,
	}
	for d := 0; d < days; d++ {
		timecard.Entries = append(timecard.Entries, models.TimecardDailyEntry{WorkDate: req.PeriodStart.AddDays(d)})
	}

	if err := s.repo.Create(ctx, timecard); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("period_start", "ya existe una hoja de tiempo para este proyecto y período")
		}
		return nil, err
	}

	logger.Info("Timecard draft created",
		"timecard_id", timecard.ID, "user_id", actor.ID, "project_id", req.ProjectID,
		"period_start", req.PeriodStart.String(), "period_end", req.PeriodEnd.String())
	return timecard, nil
}

// SaveDraftEntries applies the owner's own daily edits while the timecard is editable by them
func (s *TimecardService) SaveDraftEntries(ctx context.Context, req EditRequest) (*Result, error) {
	if len(req.Edits) == 0 {
		return nil, invalid("entries", "no hay cambios para guardar")
	}
	return s.run(ctx, "user_edit", req.TimecardID, req.Actor, req.ExpectedVersion, func(ctx context.Context, timecard *models.Timecard) ([]models.TimecardAuditLog, error) {
		if !timecard.IsOwnedBy(req.Actor.ID) {
			return nil, ErrForbidden
		}
		if !timecard.IsEditableByOwner() {
			return nil, fmt.Errorf("%w: cannot edit entries while %s", ErrInvalidTransition, timecard.Status)
		}
		if err := s.validateEdits(timecard, req.Edits, true); err != nil {
			return nil, err
		}

		changes, err := s.audit.Record(ctx, timecard, req.Edits.Changes(), req.Actor, models.ActionUserEdit)
		if err != nil {
			return nil, err
		}
		if err := s.applyEdits(ctx, timecard, req.Edits); err != nil {
			return nil, err
		}
		return changes, nil
	})
}

// AdminEditDraft lets an approver correct a draft directly. The draft becomes
// edited_draft and the status delta is audited with the edits.
func (s *TimecardService) AdminEditDraft(ctx context.Context, req EditRequest) (*Result, error) {
	if len(req.Edits) == 0 {
		return nil, invalid("edits", "no hay cambios para guardar")
	}
	return s.run(ctx, statemachine.EventAdminEdit, req.TimecardID, req.Actor, req.ExpectedVersion, func(ctx context.Context, timecard *models.Timecard) ([]models.TimecardAuditLog, error) {
		target, err := s.target(ctx, timecard, statemachine.EventAdminEdit, req.Actor)
		if err != nil {
			return nil, err
		}
		if err := s.validateEdits(timecard, req.Edits, true); err != nil {
			return nil, err
		}

		proposed := append(req.Edits.Changes(), statusChanges(timecard, target)...)
		changes, err := s.audit.Record(ctx, timecard, proposed, req.Actor, models.ActionAdminEdit)
		if err != nil {
			return nil, err
		}
		if err := s.applyEdits(ctx, timecard, req.Edits); err != nil {
			return nil, err
		}
		s.enter(timecard, target)
		return changes, nil
	})
}

// Submit sends a draft for approval. A rejected timecard is resubmitted.
func (s *TimecardService) Submit(ctx context.Context, req TransitionRequest) (*Result, error) {
	return s.transition(ctx, statemachine.EventSubmit, req)
}

// Approve accepts a submitted timecard
func (s *TimecardService) Approve(ctx context.Context, req TransitionRequest) (*Result, error) {
	return s.transition(ctx, statemachine.EventApprove, req)
}

// Reject returns a submitted timecard to its owner without edits
func (s *TimecardService) Reject(ctx context.Context, req TransitionRequest, reason string) (*Result, error) {
	return s.rejection.RejectWithEdits(ctx, RejectRequest{TransitionRequest: req, Reason: reason})
}

// Unapprove sends an approved timecard back to submitted
func (s *TimecardService) Unapprove(ctx context.Context, req TransitionRequest) (*Result, error) {
	return s.transition(ctx, statemachine.EventUnapprove, req)
}

// Reopen turns a rejected timecard back into a draft for its owner
func (s *TimecardService) Reopen(ctx context.Context, req TransitionRequest) (*Result, error) {
	return s.transition(ctx, statemachine.EventReopen, req)
}

// Resubmit sends a rejected timecard back for approval
func (s *TimecardService) Resubmit(ctx context.Context, req TransitionRequest) (*Result, error) {
	return s.transition(ctx, statemachine.EventResubmit, req)
}

func (s *TimecardService) transition(ctx context.Context, event string, req TransitionRequest) (*Result, error) {
	return s.run(ctx, event, req.TimecardID, req.Actor, req.ExpectedVersion, func(ctx context.Context, timecard *models.Timecard) ([]models.TimecardAuditLog, error) {
		target, err := s.target(ctx, timecard, statemachine.Resolve(event, timecard.Status), req.Actor)
		if err != nil {
			return nil, err
		}

		changes, err := s.audit.Record(ctx, timecard, statusChanges(timecard, target), req.Actor, models.ActionStatusChange)
		if err != nil {
			return nil, err
		}
		s.enter(timecard, target)
		return changes, nil
	})
}
