package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := Log
	Log = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() { Log = previous })
	return &buf
}

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return `SELECT * FROM "timecards" WHERE id = 7`, 0 }
	begin := time.Now()

	buf := captureLog(t)
	NewGormLogger(gormlogger.Warn, time.Second).Trace(context.Background(), begin, sql, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "SQL error")

	buf = captureLog(t)
	NewGormLogger(gormlogger.Warn, time.Second).Trace(context.Background(), begin, sql, errors.New("deadlock detected"))
	assert.Contains(t, buf.String(), "SQL error")
	assert.Contains(t, buf.String(), "deadlock detected")

	buf = captureLog(t)
	NewGormLogger(gormlogger.Warn, time.Nanosecond).Trace(context.Background(), begin.Add(-time.Millisecond), sql, nil)
	assert.Contains(t, buf.String(), "Slow SQL")

	buf = captureLog(t)
	NewGormLogger(gormlogger.Silent, 0).Trace(context.Background(), begin, sql, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
}
