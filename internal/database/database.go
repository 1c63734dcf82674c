package database

import (
	"fmt"

	"goodfit-api/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Unique violations surface as gorm.ErrDuplicatedKey.
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(databaseURL), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("Database connected and migrated successfully")
	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.UserGoals{},
		&models.DeviceToken{},
		&models.Notification{},
		&models.Profile{},
		&models.Swipe{},
		&models.Match{},
		&models.Conversation{},
		&models.Message{},
		&models.Activity{},
		&models.LiveActivity{},
		&models.DailySummary{},
	)
}

// GormLogLevel maps a logrus level name onto the gorm logger.
func GormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug", "trace":
		return logger.Info
	case "warn", "warning":
		return logger.Warn
	case "error", "fatal", "panic":
		return logger.Error
	}
	return logger.Warn
}
