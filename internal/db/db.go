package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"solar-fleet-backend/config"
	"solar-fleet-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Membership{},
		&model.Site{},
		&model.Device{},
		&model.DeviceSecret{},
		&model.Telemetry{},
		&model.DeviceTwin{},
		&model.Command{},
		&model.FirmwarePackage{},
		&model.OtaJob{},
		&model.AlertRule{},
		&model.AlertEvent{},
		&model.NotificationChannel{},
		&model.NotificationEvent{},
		&model.Entitlement{},
		&model.DailyRollup{},
		&model.AuditLog{},
		&model.WeatherData{},
		&model.SimAction{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}
