package gormdb

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mileage/config"
	"mileage/logger"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// SQLiteDSN adds the pragmas every connection to the embedded database needs.
func SQLiteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Open connects to the database selected by cfg.DBType.
func Open(cfg *config.Config) (*gorm.DB, error) {
	lg := logger.Gorm(cfg.DBLogLevel)
	switch cfg.DBType {
	case config.DBTypePostgres:
		logrus.Printf("Using postgres database")
		return InitPostgresGORM(cfg.DatabaseURL, lg)
	default:
		logrus.Printf("Using sqlite database at %s", cfg.DBPath)
		return InitSQLiteGORM(cfg.DBPath, lg)
	}
}

// InitSQLiteGORM opens the embedded database file at path, creating it if needed.
func InitSQLiteGORM(path string, lg gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), &gorm.Config{
		Logger:  lg,
		NowFunc: nowUTC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// a single writer; transactions must not use db while they are open
	sqlDB.SetMaxOpenConns(1)
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// InitPostgresGORM initializes a new GORM DB connection to PostgreSQL.
func InitPostgresGORM(dsn string, lg gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  lg,
		NowFunc: nowUTC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func CloseGORM(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.Errorf("Error getting underlying sql.DB from GORM: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.Errorf("Error closing database: %v", err)
	}
}
