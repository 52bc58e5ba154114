package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyHours(t *testing.T) {
	tests := []struct {
		name                          string
		in, breakStart, breakEnd, out *string
		want                          string
	}{
		{"full day", str("09:00:00"), nil, nil, str("17:00:00"), "8"},
		{"with break", str("08:00:00"), str("12:00:00"), str("12:45:00"), str("17:00:00"), "8.25"},
		{"thirds rounded", str("09:00:00"), nil, nil, str("09:20:00"), "0.33"},
		{"missing check-out", str("09:00:00"), nil, nil, nil, "0"},
		{"inverted", str("17:00:00"), nil, nil, str("09:00:00"), "0"},
		{"inverted break ignored", str("09:00:00"), str("13:00:00"), str("12:00:00"), str("17:00:00"), "8"},
		{"break longer than shift", str("09:00:00"), str("08:00:00"), str("18:00:00"), str("10:00:00"), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &models.TimecardDailyEntry{
				CheckInTime:    tt.in,
				BreakStartTime: tt.breakStart,
				BreakEndTime:   tt.breakEnd,
				CheckOutTime:   tt.out,
			}
			assert.Equal(t, tt.want, DailyHours(entry).String())
		})
	}
}

func TestHoursCalculator_Recalculate(t *testing.T) {
	timecard := &models.Timecard{
		HourlyRate: decimal.RequireFromString("12.50"),
		Entries: []models.TimecardDailyEntry{
			{CheckInTime: str("09:00:00"), CheckOutTime: str("17:00:00")},
			{CheckInTime: str("08:00:00"), BreakStartTime: str("12:00:00"), BreakEndTime: str("12:30:00"), CheckOutTime: str("12:30:00")},
			{},
		},
	}

	require.NoError(t, HoursCalculator{}.Recalculate(context.Background(), timecard))

	assert.Equal(t, "100", timecard.Entries[0].Pay.String())
	assert.Equal(t, "4", timecard.Entries[1].Hours.String())
	assert.True(t, timecard.Entries[2].Hours.IsZero())
	assert.Equal(t, "12", timecard.TotalHours.String())
	assert.Equal(t, "150", timecard.TotalPay.String())
}
