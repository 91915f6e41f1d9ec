package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"codecalm/internal/config"
	"codecalm/internal/logging"
	"codecalm/internal/models"
)

var DB *gorm.DB

func Init(log *zap.Logger) error {
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	gormLogger := logging.NewGormZapLogger(log).LogMode(logger.Warn)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	log.Info("Database connection established successfully.")
	return runMigrations(log)
}

func runMigrations(log *zap.Logger) error {
	// AutoMigrate creates tables and columns; custom indexes are handled
	// separately below.
	err := DB.AutoMigrate(
		&models.SessionRecord{},
		&models.InterventionRecord{},
		&models.FeedbackRecord{},
	)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	idx := `CREATE INDEX IF NOT EXISTS idx_interventions_query ON intervention_records (intervention_id, created_at DESC);`
	if err := DB.Exec(idx).Error; err != nil {
		return fmt.Errorf("create intervention index: %w", err)
	}
	return nil
}
