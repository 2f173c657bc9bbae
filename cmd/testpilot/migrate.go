package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/testpilot/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands for the sql state backend",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sqlDB, err := openDatabase(appCfg.Database)
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := database.RunMigrations(sqlDB, appCfg.Database.Driver, appLog); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			version, _, err := database.SchemaVersion(sqlDB, appCfg.Database.Driver)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			printMessage(fmt.Sprintf("Migrations applied successfully (version %d)", version))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sqlDB, err := openDatabase(appCfg.Database)
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := database.RollbackMigration(sqlDB, appCfg.Database.Driver, appLog); err != nil {
				return fmt.Errorf("failed to rollback migration: %w", err)
			}

			printMessage("Migration rolled back successfully")
			return nil
		},
	})

	return cmd
}
