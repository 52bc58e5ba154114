package repository

import (
	"context"

	"github.com/sjperalta/timecard-api/internal/models"
	"gorm.io/gorm"
)

// AuditLogRepository appends and reads timecard audit rows. Rows are never
// updated or deleted, so Create is the only mutation exposed.
type AuditLogRepository interface {
	CreateBatch(ctx context.Context, entries []models.TimecardAuditLog) error
	FindByTimecard(ctx context.Context, timecardID uint) ([]models.TimecardAuditLog, error)
	FindByChangeID(ctx context.Context, changeID string) ([]models.TimecardAuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) CreateBatch(ctx context.Context, entries []models.TimecardAuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return conn(ctx, r.db).Create(&entries).Error
}

// FindByTimecard returns the full trail for a timecard, oldest first
func (r *auditLogRepository) FindByTimecard(ctx context.Context, timecardID uint) ([]models.TimecardAuditLog, error) {
	var entries []models.TimecardAuditLog
	err := conn(ctx, r.db).
		Where("timecard_id = ?", timecardID).
		Order("changed_at ASC, field_name ASC, work_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *auditLogRepository) FindByChangeID(ctx context.Context, changeID string) ([]models.TimecardAuditLog, error) {
	var entries []models.TimecardAuditLog
	err := conn(ctx, r.db).
		Where("change_id = ?", changeID).
		Order("field_name ASC, work_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
