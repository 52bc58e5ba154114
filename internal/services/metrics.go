package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	timecardTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timecard",
		Name:      "transitions_total",
		Help:      "Total number of committed timecard lifecycle events.",
	}, []string{"event"})

	timecardAuditRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timecard",
		Name:      "audit_rows_total",
		Help:      "Total number of audit rows written broken down by action type.",
	}, []string{"action_type"})

	timecardConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "timecard",
		Name:      "concurrent_modifications_total",
		Help:      "Total number of interactions aborted because the timecard changed underneath them.",
	})

	timecardNotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timecard",
		Name:      "notifications_failed_total",
		Help:      "Total number of status change notifications that could not be delivered.",
	}, []string{"channel"})
)

func recordTransition(event string) {
	if event == "" {
		return
	}
	timecardTransitions.WithLabelValues(event).Inc()
}

func recordAuditRows(action string, n int) {
	if n == 0 {
		return
	}
	timecardAuditRows.WithLabelValues(action).Add(float64(n))
}

func recordConflict() {
	timecardConflicts.Inc()
}

func recordNotificationFailure(channel string) {
	timecardNotificationFailures.WithLabelValues(channel).Inc()
}
