package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/repository"
)

// HistoryGroup is every audit row written by one interaction
type HistoryGroup struct {
	ChangeID   string                    `json:"change_id"`
	ChangedBy  uint                      `json:"changed_by"`
	ChangedAt  time.Time                 `json:"changed_at"`
	ActionType models.AuditAction        `json:"action_type"`
	Changes    []models.TimecardAuditLog `json:"changes"`
}

// HistoryService reads a timecard's audit trail
type HistoryService struct {
	repo      repository.AuditLogRepository
	timecards repository.TimecardRepository
}

func NewHistoryService(repo repository.AuditLogRepository, timecards repository.TimecardRepository) *HistoryService {
	return &HistoryService{repo: repo, timecards: timecards}
}

// ListFlat returns every audit row of the timecard in chronological order
func (s *HistoryService) ListFlat(ctx context.Context, timecardID uint, actor models.Actor) ([]models.TimecardAuditLog, error) {
	if _, err := s.authorize(ctx, timecardID, actor); err != nil {
		return nil, err
	}

	entries, err := s.repo.FindByTimecard(ctx, timecardID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.TimecardAuditLog{}
	}
	return entries, nil
}

// ListGrouped returns the audit trail bucketed by interaction
func (s *HistoryService) ListGrouped(ctx context.Context, timecardID uint, actor models.Actor) ([]HistoryGroup, error) {
	entries, err := s.ListFlat(ctx, timecardID, actor)
	if err != nil {
		return nil, err
	}
	return GroupByChange(entries), nil
}

// FindChange returns the rows written by one interaction on the timecard
func (s *HistoryService) FindChange(ctx context.Context, timecardID uint, changeID string, actor models.Actor) (*HistoryGroup, error) {
	if _, err := s.authorize(ctx, timecardID, actor); err != nil {
		return nil, err
	}

	entries, err := s.repo.FindByChangeID(ctx, changeID)
	if err != nil {
		return nil, err
	}
	var rows []models.TimecardAuditLog
	for _, e := range entries {
		if e.TimecardID == timecardID {
			rows = append(rows, e)
		}
	}
	groups := GroupByChange(rows)
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: cambio %s", ErrNotFound, changeID)
	}
	return &groups[0], nil
}

func (s *HistoryService) authorize(ctx context.Context, timecardID uint, actor models.Actor) (*models.Timecard, error) {
	timecard, err := s.timecards.FindByID(ctx, timecardID)
	if err != nil {
		return nil, fromRepository(err)
	}
	if !timecard.IsOwnedBy(actor.ID) && !actor.IsApprover() {
		return nil, ErrForbidden
	}
	return timecard, nil
}

// GroupByChange buckets rows by change id, keeping the order in which each
// interaction first appears
func GroupByChange(entries []models.TimecardAuditLog) []HistoryGroup {
	groups := []HistoryGroup{}
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.ChangeID]
		if !ok {
			i = len(groups)
			index[e.ChangeID] = i
			groups = append(groups, HistoryGroup{
				ChangeID:   e.ChangeID,
				ChangedBy:  e.ChangedBy,
				ChangedAt:  e.ChangedAt,
				ActionType: e.ActionType,
			})
		}
		groups[i].Changes = append(groups[i].Changes, e)
	}
	return groups
}

// RejectedFields rebuilds the rejected field set from the audit trail: the
// daily fields changed by the interaction that last moved the timecard into
// rejected, or nil when it has since left that state.
func RejectedFields(entries []models.TimecardAuditLog) *string {
	var fields []models.AuditField
	for _, group := range GroupByChange(entries) {
		status, ok := statusDelta(group)
		if !ok {
			continue
		}
		fields = nil
		if status != models.TimecardStatusRejected {
			continue
		}
		for _, c := range group.Changes {
			if c.FieldName.IsDaily() {
				fields = append(fields, c.FieldName)
			}
		}
	}
	return models.JoinFieldSet(fields)
}

func statusDelta(group HistoryGroup) (string, bool) {
	for _, c := range group.Changes {
		if c.FieldName == models.FieldStatus && c.NewValue != nil {
			return *c.NewValue, true
		}
	}
	return "", false
}
