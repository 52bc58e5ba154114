package repository

import (
	"context"
	"time"

	"github.com/sjperalta/timecard-api/internal/models"
	"gorm.io/gorm"
)

// TimecardRepository defines the interface for timecard data access
type TimecardRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Timecard, error)
	List(ctx context.Context, query *TimecardQuery) ([]models.Timecard, int64, error)
	Create(ctx context.Context, timecard *models.Timecard) error
	UpdateHeader(ctx context.Context, timecard *models.Timecard) error
	SaveEntries(ctx context.Context, entries []*models.TimecardDailyEntry) error
}

// TimecardQuery extends ListQuery with timecard-specific filters
type TimecardQuery struct {
	*ListQuery
	UserID    uint
	ProjectID uint
	Status    string
}

type timecardRepository struct {
	db *gorm.DB
}

// NewTimecardRepository creates a new timecard repository
func NewTimecardRepository(db *gorm.DB) TimecardRepository {
	return &timecardRepository{db: db}
}

func (r *timecardRepository) FindByID(ctx context.Context, id uint) (*models.Timecard, error) {
	var timecard models.Timecard
	err := conn(ctx, r.db).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("work_date ASC")
		}).
		First(&timecard, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &timecard, nil
}

func (r *timecardRepository) List(ctx context.Context, query *TimecardQuery) ([]models.Timecard, int64, error) {
	var timecards []models.Timecard
	var total int64

	db := conn(ctx, r.db).Model(&models.Timecard{})

	if query.UserID != 0 {
		db = db.Where("user_id = ?", query.UserID)
	}
	if query.ProjectID != 0 {
		db = db.Where("project_id = ?", query.ProjectID)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("period_start DESC, id DESC")
	if query.ListQuery != nil && query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&timecards).Error
	return timecards, total, err
}

// Create inserts the header together with its daily entries
func (r *timecardRepository) Create(ctx context.Context, timecard *models.Timecard) error {
	if timecard.Version == 0 {
		timecard.Version = 1
	}
	return translate(conn(ctx, r.db).Create(timecard).Error)
}

// UpdateHeader writes the mutable header columns if the stored version still
// matches timecard.Version, then bumps the version
func (r *timecardRepository) UpdateHeader(ctx context.Context, timecard *models.Timecard) error {
	expected := timecard.Version
	now := time.Now()

	result := conn(ctx, r.db).
		Model(&models.Timecard{}).
		Where("id = ? AND version = ?", timecard.ID, expected).
		Updates(map[string]interface{}{
			"status":           timecard.Status,
			"rejection_reason": timecard.RejectionReason,
			"rejected_fields":  timecard.RejectedFields,
			"total_hours":      timecard.TotalHours,
			"total_pay":        timecard.TotalPay,
			"submitted_at":     timecard.SubmittedAt,
			"approved_at":      timecard.ApprovedAt,
			"version":          expected + 1,
			"updated_at":       now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	timecard.Version = expected + 1
	timecard.UpdatedAt = now
	return nil
}

// SaveEntries upserts daily entries by primary key
func (r *timecardRepository) SaveEntries(ctx context.Context, entries []*models.TimecardDailyEntry) error {
	db := conn(ctx, r.db)
	for _, entry := range entries {
		if err := db.Save(entry).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}
