package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bus_tracker/internal/models"
)

// InitDB opens the configured database, retrying while it comes up, and migrates the schema.
func InitDB(cfg DBConfig, log gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := ConnectWithRetry(dialector, &gorm.Config{Logger: log}, 10, 2*time.Second)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connected and migrated.")
	return db, nil
}

// ConnectWithRetry opens a connection, pinging it, with retry.
func ConnectWithRetry(dialector gorm.Dialector, gormCfg *gorm.Config, attempts int, delay time.Duration) (*gorm.DB, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := gorm.Open(dialector, gormCfg)
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				dbErr = sqlDB.Ping()
			}
			if dbErr == nil {
				return db, nil
			}
			err = dbErr
		}

		lastErr = err
		logrus.WithError(err).WithField("attempt", i).Warn("Database not ready, retrying.")
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempts, lastErr)
}
