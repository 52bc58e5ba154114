package handlers

import (
	"github.com/sjperalta/timecard-api/internal/jobs"
	"github.com/sjperalta/timecard-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Timecard     *TimecardHandler
	History      *HistoryHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(worker),
		Timecard:     NewTimecardHandler(svcs.Timecard),
		History:      NewHistoryHandler(svcs.History, svcs.Export),
		Notification: NewNotificationHandler(svcs.Notification),
	}
}
