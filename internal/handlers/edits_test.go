package handlers

import (
	"encoding/json"
	"testing"

	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEdits(t *testing.T, body string) (models.DailyEdits, error) {
	t.Helper()
	var payload EditsPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.DailyEdits()
}

func TestEditsPayload_BothShapesAgree(t *testing.T) {
	desktop, err := decodeEdits(t, `{"edits": {"2024-01-15": {"check_in_time": "09:30:00", "break_start_time": null}}}`)
	require.NoError(t, err)
	mobile, err := decodeEdits(t, `{"entries": [{"id": 4, "hours": "8.00", "workDate": "2024-01-15", "checkIn": "09:30:00", "breakStart": null}]}`)
	require.NoError(t, err)

	assert.Equal(t, desktop, mobile)

	day := models.MustParseDate("2024-01-15")
	require.Contains(t, desktop, day)
	assert.Equal(t, "09:30:00", *desktop[day][models.FieldCheckIn])
	v, ok := desktop[day][models.FieldBreakStart]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestEditsPayload_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad desktop date", `{"edits": {"15/01/2024": {"check_in": "09:00"}}}`, "edits"},
		{"unknown desktop key", `{"edits": {"2024-01-15": {"overtime": "1"}}}`, "overtime"},
		{"missing mobile date", `{"entries": [{"checkIn": "09:00"}]}`, "entries[0].work_date"},
		{"unknown mobile key", `{"entries": [{"date": "2024-01-15", "mood": "ok"}]}`, "entries[0].mood"},
		{"non string value", `{"entries": [{"work_date": "2024-01-15", "checkOut": 17}]}`, "entries[0].checkOut"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEdits(t, tt.body)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestEditsPayload_IsEmpty(t *testing.T) {
	assert.True(t, (&EditsPayload{}).IsEmpty())
	edits, err := (&EditsPayload{}).DailyEdits()
	require.NoError(t, err)
	assert.Empty(t, edits)

	assert.False(t, (&EditsPayload{Entries: []map[string]json.RawMessage{{}}}).IsEmpty())
}

func TestEditsPayload_RejectsAliasesOfOneField(t *testing.T) {
	_, err := decodeEdits(t, `{"edits": {"2024-01-15": {"check_in": "09:00", "check_in_time": "10:00"}}}`)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, []string{"check_in", "check_in_time"}, verr.Field)

	_, err = decodeEdits(t, `{"entries": [{"work_date": "2024-01-15", "checkIn": "09:00", "check_in": "10:00"}]}`)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, []string{"entries[0].checkIn", "entries[0].check_in"}, verr.Field)

	_, err = decodeEdits(t, `{"entries": [{"work_date": "2024-01-15", "checkIn": "09:00"}, {"date": "2024-01-15", "checkIn": "10:00"}]}`)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "entries[1].checkIn", verr.Field)

	edits, err := decodeEdits(t, `{"entries": [{"work_date": "2024-01-15", "checkIn": "09:00"}, {"date": "2024-01-15", "checkOut": "17:00"}]}`)
	require.NoError(t, err)
	assert.Len(t, edits[models.MustParseDate("2024-01-15")], 2)
}
