package database

import (
	"fmt"
	"time"

	"github.com/sjperalta/timecard-api/internal/config"
	"github.com/sjperalta/timecard-api/internal/models"
	pkgLogger "github.com/sjperalta/timecard-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQuery is the duration after which a statement is logged as slow
const slowQuery = 200 * time.Millisecond

// Connect opens the PostgreSQL pool. SQL is traced only when LOG_LEVEL is debug.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := pkgLogger.GormLevel(cfg.LogLevel)
	if cfg.Environment == "test" {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: pkgLogger.NewGormLogger(logLevel, slowQuery),
		// Writes are grouped explicitly by repository.Transactor
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		// Unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the timecard tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Timecard{},
		&models.TimecardDailyEntry{},
		&models.TimecardAuditLog{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	pkgLogger.Info("Database schema migrated")
	return nil
}
