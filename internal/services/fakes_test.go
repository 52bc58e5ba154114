package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/timecard-api/internal/jobs"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/repository"
)

// memStore is an in-memory stand-in for the database. Writes made inside a
// transaction are staged and applied on commit, or undone on rollback.
type memStore struct {
	mu        sync.Mutex
	timecards map[uint]*models.Timecard
	audit     []models.TimecardAuditLog
	nextID    uint

	auditErr   error
	entriesErr error
	afterRead  func()
}

func newMemStore() *memStore {
	return &memStore{timecards: map[uint]*models.Timecard{}}
}

type memTxKey struct{}

type memTx struct {
	ops  []func()
	undo []func()
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}
	tx := &memTx{}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	for _, op := range tx.ops {
		op()
	}
	s.mu.Unlock()
	return nil
}

// stage defers op to commit when ctx carries a transaction
func (s *memStore) stage(ctx context.Context, op func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.ops = append(tx.ops, op)
		return
	}
	s.mu.Lock()
	op()
	s.mu.Unlock()
}

func cloneTimecard(t *models.Timecard) *models.Timecard {
	c := *t
	c.Entries = append([]models.TimecardDailyEntry(nil), t.Entries...)
	return &c
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

// seed stores a timecard covering 2024-01-15..2024-01-21 in the given status
func (s *memStore) seed(status string, owner uint) *models.Timecard {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := models.MustParseDate("2024-01-15")
	t := &models.Timecard{
		ID:          s.id(),
		UserID:      owner,
		ProjectID:   10,
		PeriodStart: start,
		PeriodEnd:   start.AddDays(6),
		Status:      status,
		HourlyRate:  decimal.NewFromInt(20),
		Version:     1,
	}
	for d := 0; d < 7; d++ {
		t.Entries = append(t.Entries, models.TimecardDailyEntry{ID: s.id(), TimecardID: t.ID, WorkDate: start.AddDays(d)})
	}
	in, out := "09:00:00", "17:00:00"
	t.Entries[0].CheckInTime = &in
	t.Entries[0].CheckOutTime = &out
	s.timecards[t.ID] = t
	return cloneTimecard(t)
}

func (s *memStore) get(id uint) *models.Timecard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTimecard(s.timecards[id])
}

func (s *memStore) rows(timecardID uint) []models.TimecardAuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimecardAuditLog
	for _, e := range s.audit {
		if e.TimecardID == timecardID {
			out = append(out, e)
		}
	}
	return out
}

type memTimecardRepo struct{ s *memStore }

func (r memTimecardRepo) FindByID(ctx context.Context, id uint) (*models.Timecard, error) {
	r.s.mu.Lock()
	t, ok := r.s.timecards[id]
	var c *models.Timecard
	if ok {
		c = cloneTimecard(t)
	}
	hook := r.s.afterRead
	r.s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if hook != nil {
		hook()
	}
	return c, nil
}

func (r memTimecardRepo) List(ctx context.Context, query *repository.TimecardQuery) ([]models.Timecard, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Timecard
	for _, t := range r.s.timecards {
		if query.UserID != 0 && t.UserID != query.UserID {
			continue
		}
		if query.Status != "" && t.Status != query.Status {
			continue
		}
		out = append(out, *cloneTimecard(t))
	}
	return out, int64(len(out)), nil
}

func (r memTimecardRepo) Create(ctx context.Context, timecard *models.Timecard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.timecards {
		if t.UserID == timecard.UserID && t.ProjectID == timecard.ProjectID && t.PeriodStart.Equal(timecard.PeriodStart.Time) {
			return repository.ErrDuplicate
		}
	}
	timecard.ID = r.s.id()
	for i := range timecard.Entries {
		timecard.Entries[i].ID = r.s.id()
		timecard.Entries[i].TimecardID = timecard.ID
	}
	r.s.timecards[timecard.ID] = cloneTimecard(timecard)
	return nil
}

// UpdateHeader claims the version immediately, like a row lock held until commit
func (r memTimecardRepo) UpdateHeader(ctx context.Context, timecard *models.Timecard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.timecards[timecard.ID]
	if !ok || stored.Version != timecard.Version {
		return repository.ErrVersionConflict
	}
	previous := *stored
	stored.Status = timecard.Status
	stored.RejectionReason = timecard.RejectionReason
	stored.RejectedFields = timecard.RejectedFields
	stored.TotalHours = timecard.TotalHours
	stored.TotalPay = timecard.TotalPay
	stored.SubmittedAt = timecard.SubmittedAt
	stored.ApprovedAt = timecard.ApprovedAt
	stored.Version++
	timecard.Version = stored.Version

	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, func() {
			entries := stored.Entries
			*stored = previous
			stored.Entries = entries
		})
	}
	return nil
}

func (r memTimecardRepo) SaveEntries(ctx context.Context, entries []*models.TimecardDailyEntry) error {
	if r.s.entriesErr != nil {
		return r.s.entriesErr
	}
	copies := make([]models.TimecardDailyEntry, len(entries))
	for i, e := range entries {
		copies[i] = *e
	}
	r.s.stage(ctx, func() {
		for _, e := range copies {
			t := r.s.timecards[e.TimecardID]
			replaced := false
			for i := range t.Entries {
				if t.Entries[i].WorkDate.Equal(e.WorkDate.Time) {
					t.Entries[i] = e
					replaced = true
				}
			}
			if !replaced {
				e.ID = r.s.id()
				t.Entries = append(t.Entries, e)
			}
		}
	})
	return nil
}

type memAuditRepo struct{ s *memStore }

func (r memAuditRepo) CreateBatch(ctx context.Context, entries []models.TimecardAuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	if r.s.auditErr != nil {
		return r.s.auditErr
	}
	copies := append([]models.TimecardAuditLog(nil), entries...)
	r.s.stage(ctx, func() {
		for _, e := range copies {
			e.ID = r.s.id()
			r.s.audit = append(r.s.audit, e)
		}
	})
	return nil
}

// FindByTimecard sorts like the SQL repository: changed_at, field_name,
// work_date, id
func (r memAuditRepo) FindByTimecard(ctx context.Context, timecardID uint) ([]models.TimecardAuditLog, error) {
	rows := r.s.rows(timecardID)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.ChangedAt.Equal(b.ChangedAt) {
			return a.ChangedAt.Before(b.ChangedAt)
		}
		if a.FieldName != b.FieldName {
			return a.FieldName < b.FieldName
		}
		if da, db := workDate(a), workDate(b); da != db {
			return da < db
		}
		return a.ID < b.ID
	})
	return rows, nil
}

// workDate sorts header rows after daily rows, as postgres orders NULLs last
func workDate(e models.TimecardAuditLog) string {
	if e.WorkDate == nil {
		return "~"
	}
	return e.WorkDate.String()
}

func (r memAuditRepo) FindByChangeID(ctx context.Context, changeID string) ([]models.TimecardAuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TimecardAuditLog
	for _, e := range r.s.audit {
		if e.ChangeID == changeID {
			out = append(out, e)
		}
	}
	return out, nil
}

type notifyCall struct {
	timecardID uint
	status     string
	previous   string
	actor      models.Actor
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, timecard *models.Timecard, previous string, actor models.Actor) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{timecard.ID, timecard.Status, previous, actor})
}

type countingTotals struct {
	mu    sync.Mutex
	calls int
	inner TotalsCalculator
}

func (c *countingTotals) Recalculate(ctx context.Context, timecard *models.Timecard) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Recalculate(ctx, timecard)
}

type memUserRepo struct {
	users map[uint]*models.User
}

func (r memUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type memNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
	err           error
}

func (r *memNotificationRepo) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			n := r.notifications[i]
			return &n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memNotificationRepo) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = uint(len(r.notifications) + 1)
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *memNotificationRepo) MarkAsRead(ctx context.Context, id, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			now := time.Now()
			r.notifications[i].ReadAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

type failingMailer struct{ calls int }

func (m *failingMailer) SendTimecardStatusChanged(ctx context.Context, user *models.User, timecard *models.Timecard, previous string) error {
	m.calls++
	return errors.New("resend unavailable")
}

// syncWorker runs jobs inline
type syncWorker struct{}

func (syncWorker) EnqueueAsync(job jobs.Job) {
	_ = job(context.Background())
}

var (
	owner    = models.Actor{ID: 1, Role: models.RoleUser}
	approver = models.Actor{ID: 2, Role: models.RoleApprover}
	admin    = models.Actor{ID: 3, Role: models.RoleAdmin}
)

type fixture struct {
	store    *memStore
	notifier *recordingNotifier
	totals   *countingTotals
	audit    *AuditService
	svc      *TimecardService
	history  *HistoryService
}

func newFixture() *fixture {
	store := newMemStore()
	timecards := memTimecardRepo{store}
	auditRepo := memAuditRepo{store}
	notifier := &recordingNotifier{}
	totals := &countingTotals{inner: HoursCalculator{}}
	audit := NewAuditService(auditRepo, timecards, nil)
	return &fixture{
		store:    store,
		notifier: notifier,
		totals:   totals,
		audit:    audit,
		svc:      NewTimecardService(timecards, store, audit, totals, notifier),
		history:  NewHistoryService(auditRepo, timecards),
	}
}

func req(id uint, actor models.Actor) TransitionRequest {
	return TransitionRequest{TimecardID: id, Actor: actor}
}

func str(s string) *string { return &s }
