package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/timeval"
)

// TotalsCalculator recomputes derived hours and pay after daily entries change
type TotalsCalculator interface {
	Recalculate(ctx context.Context, timecard *models.Timecard) error
}

// HoursCalculator derives worked hours from clock times and pays them at the timecard's hourly rate
type HoursCalculator struct{}

var secondsPerHour = decimal.NewFromInt(3600)

func (HoursCalculator) Recalculate(ctx context.Context, timecard *models.Timecard) error {
	totalHours := decimal.Zero
	totalPay := decimal.Zero
	for i := range timecard.Entries {
		entry := &timecard.Entries[i]
		entry.Hours = DailyHours(entry)
		entry.Pay = entry.Hours.Mul(timecard.HourlyRate).Round(2)
		totalHours = totalHours.Add(entry.Hours)
		totalPay = totalPay.Add(entry.Pay)
	}
	timecard.TotalHours = totalHours
	timecard.TotalPay = totalPay
	return nil
}

// DailyHours is check-out minus check-in less the break, rounded to two places.
// Incomplete or inverted days count as zero.
func DailyHours(entry *models.TimecardDailyEntry) decimal.Decimal {
	in, okIn := timeval.SecondsOfDay(timeval.Normalize(entry.CheckInTime))
	out, okOut := timeval.SecondsOfDay(timeval.Normalize(entry.CheckOutTime))
	if !okIn || !okOut || out <= in {
		return decimal.Zero
	}

	worked := out - in
	start, okStart := timeval.SecondsOfDay(timeval.Normalize(entry.BreakStartTime))
	end, okEnd := timeval.SecondsOfDay(timeval.Normalize(entry.BreakEndTime))
	if okStart && okEnd && end > start {
		worked -= end - start
	}
	if worked <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(worked)).Div(secondsPerHour).Round(2)
}
