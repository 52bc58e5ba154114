package handlers

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	want := CreateTimecardRequest{
		ProjectID:   3,
		PeriodStart: models.MustParseDate("2024-01-15"),
		PeriodEnd:   models.MustParseDate("2024-01-21"),
		HourlyRate:  decimal.RequireFromString("18.5"),
	}

	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name: "envelope",
			body: `{"timecard": {"project_id": 3, "period_start": "2024-01-15", "period_end": "2024-01-21", "hourly_rate": "18.5"}}`,
		},
		{
			name: "bare object",
			body: `{"project_id": 3, "period_start": "2024-01-15", "period_end": "2024-01-21", "hourly_rate": 18.5}`,
		},
		{
			name: "other keys fall back to bare object",
			body: `{"client": "mobile", "project_id": 3, "period_start": "2024-01-15", "period_end": "2024-01-21", "hourly_rate": "18.5"}`,
		},
		{
			name:        "required field missing",
			body:        `{"timecard": {"period_start": "2024-01-15", "period_end": "2024-01-21"}}`,
			expectError: true,
		},
		{
			name:        "malformed date",
			body:        `{"timecard": {"project_id": 3, "period_start": "15/01/2024"}}`,
			expectError: true,
		},
		{
			name:        "envelope is not an object",
			body:        `{"timecard": "weekly"}`,
			expectError: true,
		},
		{
			name:        "empty body",
			body:        `  `,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result CreateTimecardRequest
			err := BindNestedOrFlat(c, "timecard", &result)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want.ProjectID, result.ProjectID)
			assert.Equal(t, want.PeriodStart, result.PeriodStart)
			assert.Equal(t, want.PeriodEnd, result.PeriodEnd)
			assert.True(t, want.HourlyRate.Equal(result.HourlyRate))
		})
	}
}

func TestBindNestedOrFlat_BodyStaysReadable(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"rejection": {"reason": "Faltan horas"}}`
	c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(body))

	var req RejectRequest
	require.NoError(t, BindNestedOrFlat(c, "rejection", &req))
	assert.Equal(t, "Faltan horas", req.Reason)

	again, err := io.ReadAll(c.Request.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(again))
}
