package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configName   = ".testpilot"
	envPrefix    = "TESTPILOT"
	defaultModel = "gemini-2.5-flash"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig
	AI       AIConfig
	State    StateConfig
	Database DatabaseConfig
	Export   ExportConfig
	Tracker  TrackerConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AIConfig holds the AI provider configuration.
type AIConfig struct {
	Provider       string // "gemini" or "bedrock"
	APIKey         string
	Model          string
	Seed           int
	MaxRetries     int
	InitialBackoff time.Duration
	BedrockRegion  string
	BedrockModel   string
	MaxTokens      int
}

// StateConfig holds where the project state is stored.
type StateConfig struct {
	Backend         string // "file", "s3" or "sql"
	BaseDir         string
	S3Bucket        string
	S3Region        string
	S3Prefix        string
	S3PresignExpiry time.Duration
}

// DatabaseConfig holds database connection configuration for the sql backend.
type DatabaseConfig struct {
	Driver       string // "sqlite" or "mysql"
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// ExportConfig holds where published exports are written.
type ExportConfig struct {
	Storage  string // "local" or "s3"
	BaseDir  string
	S3Bucket string
	S3Region string
}

// TrackerConfig holds issue tracker configuration.
type TrackerConfig struct {
	Provider    string // "github", "jira" or empty
	Credentials map[string]string
}

// ModelName returns the model for the configured provider.
func (c AIConfig) ModelName() string {
	if strings.EqualFold(c.Provider, "bedrock") {
		return c.BedrockModel
	}
	return c.Model
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", defaultModel)
	v.SetDefault("ai.seed", 42)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.initial_backoff", "5s")
	v.SetDefault("ai.bedrock_region", "us-east-1")
	v.SetDefault("ai.bedrock_model", "anthropic.claude-3-5-sonnet-20240620-v1:0")
	v.SetDefault("ai.max_tokens", 4096)

	v.SetDefault("state.backend", "file")
	v.SetDefault("state.base_dir", "~/.testpilot")
	v.SetDefault("state.s3_bucket", "")
	v.SetDefault("state.s3_region", "us-east-1")
	v.SetDefault("state.s3_prefix", "")
	v.SetDefault("state.s3_presign_expiry", "15m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "~/.testpilot/testpilot.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "testpilot")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("export.storage", "local")
	v.SetDefault("export.base_dir", "~/.testpilot")
	v.SetDefault("export.s3_bucket", "")
	v.SetDefault("export.s3_region", "us-east-1")

	v.SetDefault("tracker.provider", "")

	return v
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, *viper.Viper, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.Log.Level = v.GetString("log.level")
	config.Log.File = expandHome(v.GetString("log.file"))
	config.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	config.Log.MaxBackups = v.GetInt("log.max_backups")
	config.Log.MaxAgeDays = v.GetInt("log.max_age_days")

	config.AI.Provider = strings.ToLower(v.GetString("ai.provider"))
	config.AI.APIKey = v.GetString("ai.api_key")
	config.AI.Model = v.GetString("ai.model")
	config.AI.Seed = v.GetInt("ai.seed")
	config.AI.MaxRetries = v.GetInt("ai.max_retries")
	config.AI.InitialBackoff = v.GetDuration("ai.initial_backoff")
	config.AI.BedrockRegion = v.GetString("ai.bedrock_region")
	config.AI.BedrockModel = v.GetString("ai.bedrock_model")
	config.AI.MaxTokens = v.GetInt("ai.max_tokens")

	config.State.Backend = strings.ToLower(v.GetString("state.backend"))
	config.State.BaseDir = v.GetString("state.base_dir")
	config.State.S3Bucket = v.GetString("state.s3_bucket")
	config.State.S3Region = v.GetString("state.s3_region")
	config.State.S3Prefix = v.GetString("state.s3_prefix")
	config.State.S3PresignExpiry = v.GetDuration("state.s3_presign_expiry")

	config.Database.Driver = strings.ToLower(v.GetString("database.driver"))
	config.Database.Path = expandHome(v.GetString("database.path"))
	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")
	config.Database.AutoMigrate = v.GetBool("database.auto_migrate")

	config.Export.Storage = strings.ToLower(v.GetString("export.storage"))
	config.Export.BaseDir = v.GetString("export.base_dir")
	config.Export.S3Bucket = v.GetString("export.s3_bucket")
	config.Export.S3Region = v.GetString("export.s3_region")

	config.Tracker.Provider = strings.ToLower(v.GetString("tracker.provider"))
	config.Tracker.Credentials = v.GetStringMapString("tracker.credentials")

	return &config, v, nil
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

const configTemplate = `# testpilot configuration
log:
  level: warn
  # file: ~/.testpilot/testpilot.log

ai:
  provider: gemini        # gemini or bedrock
  api_key: ""             # or TESTPILOT_AI_API_KEY
  model: gemini-2.5-flash
  seed: 42
  max_retries: 2
  initial_backoff: 5s
  # bedrock_region: us-east-1
  # bedrock_model: anthropic.claude-3-5-sonnet-20240620-v1:0

state:
  backend: file           # file, s3 or sql
  base_dir: ~/.testpilot

database:
  driver: sqlite          # sqlite or mysql
  path: ~/.testpilot/testpilot.db

export:
  storage: local          # local or s3
  base_dir: ~/.testpilot

tracker:
  provider: ""            # github or jira
  credentials: {}
`

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a config file template at ~/.testpilot.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			configPath := filepath.Join(home, configName+".yaml")
			if _, err := os.Stat(configPath); err == nil {
				printMessage("Config file already exists at " + configPath)
				return nil
			}

			if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			printMessage("Config file created at " + configPath)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := resolvedSettings(appViper)
			if flagJSON {
				printJSON(settings)
				return nil
			}

			keys := make([]string, 0, len(settings))
			for k := range settings {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, settings[k]})
			}
			printTable([]string{"KEY", "VALUE"}, rows)

			if cfgFile := appViper.ConfigFileUsed(); cfgFile != "" {
				printMessage("\nConfig file: " + cfgFile)
			} else {
				printMessage("\nConfig file: (none)")
			}
			return nil
		},
	}
}

// resolvedSettings flattens every known key with secrets masked.
func resolvedSettings(v *viper.Viper) map[string]string {
	out := make(map[string]string)
	for _, key := range v.AllKeys() {
		value := fmt.Sprint(v.Get(key))
		if isSecretKey(key) {
			value = maskSecret(value)
		}
		out[key] = value
	}
	return out
}

func isSecretKey(key string) bool {
	for _, marker := range []string{"api_key", "password", "token", "secret"} {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "****"
	}
}
