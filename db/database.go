package db

import (
	"fmt"
	"log"
	"time"

	"randomradio/config"
	"randomradio/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB is the GORM database connection instance backing the track catalog.
var GormDB *gorm.DB

// ConnectDB opens the SQLite catalog database.
func ConnectDB(cfg *config.Config) error {
	var err error
	GormDB, err = gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to open catalog database %s: %w", cfg.DBPath, err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SQLite: one writer connection avoids SQLITE_BUSY under the single
	// process using it.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to the catalog database.")
	return nil
}

// CloseDB closes the catalog database connection.
func CloseDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitDB migrates the catalog schema.
func InitDB() error {
	if GormDB == nil {
		return fmt.Errorf("catalog database not initialized")
	}

	if err := GormDB.AutoMigrate(&model.Track{}); err != nil {
		return fmt.Errorf("failed to migrate catalog models: %w", err)
	}
	return nil
}
