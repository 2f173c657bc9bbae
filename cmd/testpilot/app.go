package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/hairizuan-noorazman/testpilot/database"
	"github.com/hairizuan-noorazman/testpilot/issuetracker"
	"github.com/hairizuan-noorazman/testpilot/issuetracker/github"
	"github.com/hairizuan-noorazman/testpilot/issuetracker/jira"
	"github.com/hairizuan-noorazman/testpilot/llm"
	"github.com/hairizuan-noorazman/testpilot/logger"
	"github.com/hairizuan-noorazman/testpilot/qagen"
	"github.com/hairizuan-noorazman/testpilot/state"
	"github.com/hairizuan-noorazman/testpilot/storage"
	"github.com/hairizuan-noorazman/testpilot/workspace"
)

var (
	appCfg   *Config
	appViper *viper.Viper
	appLog   logger.Logger

	app *application
)

// application holds what a command needs once the state has been loaded.
type application struct {
	ws    *workspace.Workspace
	sqlDB *sql.DB
}

func initConfig() error {
	cfg, v, err := LoadConfig(flagConfig)
	if err != nil {
		return err
	}
	if flagDebug {
		cfg.Log.Level = "debug"
	}

	appCfg = cfg
	appViper = v
	appLog = logger.NewLogrusLogger(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	return nil
}

func databaseConfig(c DatabaseConfig) database.Config {
	return database.Config{
		Driver:       c.Driver,
		Path:         c.Path,
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		Password:     c.Password,
		Database:     c.Database,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
	}
}

// openDatabase connects to the configured database and returns the
// underlying *sql.DB so the caller can close it.
func openDatabase(c DatabaseConfig) (*gorm.DB, *sql.DB, error) {
	db, err := database.Connect(databaseConfig(c))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	return db, sqlDB, nil
}

// getWorkspace loads the project state and wires the AI service, export
// storage and issue tracker. The AI transport is only built when a command
// needs it, so offline commands work without an API key.
func getWorkspace(ctx context.Context, needAI bool) (*workspace.Workspace, error) {
	if app != nil {
		return app.ws, nil
	}

	a := &application{}
	openDB := func() (*gorm.DB, error) {
		db, sqlDB, err := openDatabase(appCfg.Database)
		if err != nil {
			return nil, err
		}
		a.sqlDB = sqlDB
		if appCfg.Database.AutoMigrate {
			if err := database.RunMigrations(sqlDB, appCfg.Database.Driver, appLog); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		return db, nil
	}

	backend, err := state.NewBackend(ctx, state.BackendConfig{
		Backend:       appCfg.State.Backend,
		BaseDir:       appCfg.State.BaseDir,
		S3Bucket:      appCfg.State.S3Bucket,
		S3Region:      appCfg.State.S3Region,
		S3Prefix:      appCfg.State.S3Prefix,
		PresignExpiry: appCfg.State.S3PresignExpiry,
	}, openDB, appLog)
	if err != nil {
		closeDB(a.sqlDB)
		return nil, fmt.Errorf("failed to open state backend: %w", err)
	}

	store := state.NewStore(backend, appLog)
	if err := store.Load(ctx); err != nil {
		closeDB(a.sqlDB)
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	// Commands that never reach the model run without one.
	var ai workspace.AI
	if needAI {
		svc, err := newAIService(ctx, appCfg.AI, appLog)
		if err != nil {
			closeDB(a.sqlDB)
			return nil, err
		}
		ai = svc
	}

	ws := workspace.New(store, ai, appLog)

	blobs, err := storage.New(ctx, storage.Config{
		Type:    appCfg.Export.Storage,
		BaseDir: appCfg.Export.BaseDir,
		Bucket:  appCfg.Export.S3Bucket,
		Region:  appCfg.Export.S3Region,
	})
	if err != nil {
		appLog.Warn(ctx, "Export storage unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		ws.SetExportStorage(blobs)
	}

	if appCfg.Tracker.Provider != "" {
		tracker, err := newIssueTracker(appCfg.Tracker.Provider, appCfg.Tracker.Credentials)
		if err != nil {
			closeDB(a.sqlDB)
			return nil, err
		}
		ws.SetIssueTracker(tracker)
	}

	a.ws = ws
	app = a
	return ws, nil
}

func newAIService(ctx context.Context, cfg AIConfig, log logger.Logger) (*qagen.Service, error) {
	transport, err := llm.NewTransport(ctx, llm.Config{
		Provider:      llm.Provider(cfg.Provider),
		APIKey:        cfg.APIKey,
		Model:         cfg.ModelName(),
		BedrockRegion: cfg.BedrockRegion,
		MaxTokens:     cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	retrier := llm.NewRetrier(log)
	retrier.MaxRetries = cfg.MaxRetries
	if cfg.InitialBackoff > 0 {
		retrier.InitialDelay = cfg.InitialBackoff
	}

	gateway := llm.NewGateway(transport, cfg.ModelName(), retrier, log)
	svc := qagen.NewService(gateway, log)
	svc.SetDiscoverySeed(int32(cfg.Seed))
	return svc, nil
}

// newIssueTracker creates the tracker client for provider.
func newIssueTracker(provider string, credentials map[string]string) (issuetracker.Client, error) {
	switch issuetracker.ProviderType(provider) {
	case issuetracker.ProviderGitHub:
		return github.NewClient(credentials)
	case issuetracker.ProviderJira:
		return jira.NewClient(credentials)
	default:
		return nil, fmt.Errorf("%w: %s", issuetracker.ErrInvalidProvider, provider)
	}
}

func closeApp() {
	if app == nil {
		return
	}
	closeDB(app.sqlDB)
	app = nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
}
