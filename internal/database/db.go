package database

import (
	"fmt"

	"github.com/aiptx/aiptx-go/internal/config"
	"github.com/aiptx/aiptx-go/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the scan-history database and migrates its schema.
func Open(cfg config.HistoryConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to history database: %w", err)
	}

	if err := db.AutoMigrate(&models.ScanRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return db, nil
}
