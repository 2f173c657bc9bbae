package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/hairizuan-noorazman/testpilot/logger"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// RunMigrations applies all pending migrations for driver. An up-to-date
// schema is not an error.
func RunMigrations(db *sql.DB, driver string, log logger.Logger) error {
	m, err := newMigrate(db, driver, log)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: migrate up: %w", err)
	}
	return nil
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(db *sql.DB, driver string, log logger.Logger) error {
	m, err := newMigrate(db, driver, log)
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database: migrate down: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version. Zero means none.
func SchemaVersion(db *sql.DB, driver string) (uint, bool, error) {
	m, err := newMigrate(db, driver, nil)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrate builds a migrator over db. The migrator is not closed since that
// would close db, which the caller owns.
func newMigrate(db *sql.DB, driver string, log logger.Logger) (*migrate.Migrate, error) {
	cfg := Config{Driver: driver}
	if d := cfg.driver(); d != DriverSQLite && d != DriverMySQL {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	dir := "migrations/" + cfg.driver()

	source, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load migrations: %w", err)
	}

	var m *migrate.Migrate
	switch cfg.driver() {
	case DriverSQLite:
		instance, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("database: failed to prepare sqlite migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "sqlite3", instance)
		if err != nil {
			return nil, fmt.Errorf("database: failed to create migrator: %w", err)
		}
	case DriverMySQL:
		instance, err := migratemysql.WithInstance(db, &migratemysql.Config{})
		if err != nil {
			return nil, fmt.Errorf("database: failed to prepare mysql migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "mysql", instance)
		if err != nil {
			return nil, fmt.Errorf("database: failed to create migrator: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	if log != nil {
		m.Log = migrateLogger{log: log}
	}
	return m, nil
}

// migrateLogger sends migrate's progress lines to the application logger.
type migrateLogger struct {
	log logger.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)), map[string]interface{}{
		"component": "migrate",
	})
}

func (l migrateLogger) Verbose() bool {
	return false
}
