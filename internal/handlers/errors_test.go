package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/timecard-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
	}{
		{"validation", &services.ValidationError{Field: "reason", Message: "se requiere"}, http.StatusUnprocessableEntity, "validation_error", false},
		{"not found", fmt.Errorf("%w: no existe", services.ErrNotFound), http.StatusNotFound, "not_found", false},
		{"conflict", services.ErrConcurrentModification, http.StatusConflict, "concurrent_modification", true},
		{"invalid transition", fmt.Errorf("%w: cannot approve from draft", services.ErrInvalidTransition), http.StatusConflict, "invalid_transition", false},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "forbidden", false},
		{"unexpected", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.retryable, body["retryable"])
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "pq:")
			}
		})
	}
}

func TestRespondError_ValidationField(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, &services.ValidationError{Field: "work_date", Message: "fuera del período"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "work_date", body["field"])
	assert.Equal(t, "work_date: fuera del período", body["error"])
}

func TestReject_RejectsMalformedInputBeforeService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewTimecardHandler(nil)
	r := gin.New()
	r.POST("/timecards/:id/reject", h.Reject)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"bad id", "/timecards/abc/reject", `{"reason": "x"}`, http.StatusBadRequest},
		{"zero id", "/timecards/0/reject", `{"reason": "x"}`, http.StatusBadRequest},
		{"bad json", "/timecards/1/reject", `{"reason": `, http.StatusBadRequest},
		{"unknown field", "/timecards/1/reject", `{"rejection": {"reason": "x", "edits": {"2024-01-15": {"lunch": "12:00"}}}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
