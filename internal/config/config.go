package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AveryRegier/actsix/internal/ingest"
	"github.com/AveryRegier/actsix/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store  store.Config `yaml:"store" mapstructure:"store"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the hosted record store client.
type APIConfig struct {
	BaseURL     string      `yaml:"base_url" mapstructure:"base_url"`
	Token       string      `yaml:"token" mapstructure:"token"`
	TimeoutSecs int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64     `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryConfig configures retries of transient API failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// ImportConfig configures the care-list import.
type ImportConfig struct {
	Sheet          string         `yaml:"sheet" mapstructure:"sheet"`
	SheetIndex     int            `yaml:"sheet_index" mapstructure:"sheet_index"`
	CaretakerRoles []string       `yaml:"caretaker_roles" mapstructure:"caretaker_roles"`
	Timezone       string         `yaml:"timezone" mapstructure:"timezone"`
	DryRun         bool           `yaml:"dry_run" mapstructure:"dry_run"`
	StrictInitials bool           `yaml:"strict_initials" mapstructure:"strict_initials"`
	Columns        ingest.Columns `yaml:"columns" mapstructure:"columns"`
}

// Location resolves Timezone. An empty value means the local zone.
func (c ImportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Timezone)
	}
	return loc, nil
}

// IngestOptions maps the import settings onto spreadsheet reader options.
func (c ImportConfig) IngestOptions() ingest.Options {
	return ingest.Options{
		SheetIndex: c.SheetIndex,
		SheetName:  c.Sheet,
		Columns:    c.Columns,
	}
}

// ServerConfig configures the local API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Token          string   `yaml:"token" mapstructure:"token"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ACTSIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "http")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.token", "")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("api.base_url", "http://localhost:3001")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_per_sec", 5.0)
	v.SetDefault("api.retry.max_attempts", 3)
	v.SetDefault("api.retry.initial_backoff_ms", 500)
	v.SetDefault("import.sheet", "")
	v.SetDefault("import.sheet_index", 0)
	v.SetDefault("import.caretaker_roles", []string{"staff"})
	v.SetDefault("import.timezone", "")
	v.SetDefault("import.dry_run", false)
	v.SetDefault("import.strict_initials", false)
	v.SetDefault("import.columns.last_name", ingest.DefaultColumns.LastName)
	v.SetDefault("import.columns.notes", ingest.DefaultColumns.Notes)
	v.SetDefault("import.columns.last_contact", ingest.DefaultColumns.LastContactDate)
	v.SetDefault("import.columns.last_contact_caretaker", ingest.DefaultColumns.LastContactCaretaker)
	v.SetDefault("import.columns.assigned_caretaker", ingest.DefaultColumns.AssignedCaretaker)
	v.SetDefault("import.columns.members", ingest.DefaultColumns.MemberNames)
	v.SetDefault("import.columns.household_id", ingest.DefaultColumns.HouseholdID)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes are "import",
// "parse", "serve" and "migrate".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "import":
		errs = append(errs, c.validateStore()...)
		if c.API.RatePerSec < 0 {
			errs = append(errs, "api.rate_per_sec must be >= 0")
		}
		if c.API.Retry.MaxAttempts < 0 {
			errs = append(errs, "api.retry.max_attempts must be >= 0")
		}
		if _, err := c.Import.Location(); err != nil {
			errs = append(errs, "import.timezone is invalid")
		}
	case "parse":
		if _, err := c.Import.Location(); err != nil {
			errs = append(errs, "import.timezone is invalid")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if strings.EqualFold(c.Store.Driver, "http") {
			errs = append(errs, "serve requires store.driver sqlite or postgres")
		}
		errs = append(errs, c.validateStore()...)
	case "migrate":
		if strings.EqualFold(c.Store.Driver, "http") {
			errs = append(errs, "migrate requires store.driver sqlite or postgres")
		}
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch strings.ToLower(c.Store.Driver) {
	case "http":
		if c.API.BaseURL == "" {
			return []string{"api.base_url is required for the http store"}
		}
	case "sqlite":
	case "postgres", "postgresql":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for postgres"}
		}
	default:
		return []string{fmt.Sprintf("store.driver %q is not supported", c.Store.Driver)}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
