// Package database opens the SQL connection used by the sql state backend and
// manages its schema.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

var (
	// ErrUnsupportedDriver is returned for a driver other than mysql or sqlite.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Config holds database connection settings. Path is used by sqlite, the
// remaining connection fields by mysql.
type Config struct {
	Driver       string
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the driver specific data source name.
func (c Config) DSN() string {
	if c.driver() == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

func (c Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" || d == "sqlite3" {
		return DriverSQLite
	}
	return d
}

// Connect opens a GORM connection and applies the pool settings.
func Connect(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.driver() {
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("database: sqlite path is required")
		}
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("database: failed to create directory for %s: %w", cfg.Path, err)
			}
		}
		dialector = sqlite.Open(cfg.DSN())
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("database: failed to connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: failed to get database instance: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if cfg.driver() == DriverSQLite {
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
