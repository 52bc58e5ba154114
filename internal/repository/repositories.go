package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Timecard     TimecardRepository
	AuditLog     AuditLogRepository
	User         UserRepository
	Notification NotificationRepository
	Transactor   Transactor
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Timecard:     NewTimecardRepository(db),
		AuditLog:     NewAuditLogRepository(db),
		User:         NewUserRepository(db),
		Notification: NewNotificationRepository(db),
		Transactor:   NewTransactor(db),
	}
}
