package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// GormLogger sends gorm's query log to the global slog logger
type GormLogger struct {
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
	// IgnoreRecordNotFound keeps empty lookups out of the error log.
	// Repositories report them to callers as not found.
	IgnoreRecordNotFound bool
}

func NewGormLogger(logLevel logger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		LogLevel:             logLevel,
		SlowThreshold:        slowThreshold,
		IgnoreRecordNotFound: true,
	}
}

// GormLevel maps an application log level onto gorm's. SQL statements are
// only traced at debug.
func GormLevel(level string) logger.LogLevel {
	switch ParseLevel(level) {
	case slog.LevelDebug:
		return logger.Info
	case slog.LevelInfo, slog.LevelWarn:
		return logger.Warn
	default:
		return logger.Error
	}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, logger.Info, slog.LevelInfo, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, logger.Warn, slog.LevelWarn, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.log(ctx, logger.Error, slog.LevelError, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) log(ctx context.Context, enabled logger.LogLevel, level slog.Level, msg string, attrs ...any) {
	if l.LogLevel < enabled {
		return
	}
	Log.Log(ctx, level, msg, attrs...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
		slog.String("source", utils.FileWithLineNum()),
	}

	switch {
	case err != nil && !(l.IgnoreRecordNotFound && errors.Is(err, gorm.ErrRecordNotFound)):
		l.log(ctx, logger.Error, slog.LevelError, "SQL error", append(attrs, slog.String("error", err.Error()))...)
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold:
		l.log(ctx, logger.Warn, slog.LevelWarn, "Slow SQL", append(attrs, slog.Duration("threshold", l.SlowThreshold))...)
	default:
		l.log(ctx, logger.Info, slog.LevelDebug, "SQL", attrs...)
	}
}
