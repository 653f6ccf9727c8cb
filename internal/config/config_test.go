package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "http://localhost:3001", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.InDelta(t, 5.0, cfg.API.RatePerSec, 0.001)
	assert.Equal(t, 3, cfg.API.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.API.Retry.InitialBackoffMs)
	assert.Equal(t, []string{"staff"}, cfg.Import.CaretakerRoles)
	assert.False(t, cfg.Import.DryRun)
	assert.Equal(t, "Last Name", cfg.Import.Columns.LastName)
	assert.Equal(t, "Assigned Deacon", cfg.Import.Columns.AssignedCaretaker)
	assert.Equal(t, "DEACON CARE  LIST", cfg.Import.Columns.MemberNames)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: care.db
log:
  level: debug
  format: console
import:
  sheet: Care List
  caretaker_roles: [staff, elder]
  timezone: America/Chicago
  columns:
    notes: Comments
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "care.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "Care List", cfg.Import.Sheet)
	assert.Equal(t, []string{"staff", "elder"}, cfg.Import.CaretakerRoles)
	assert.Equal(t, "Comments", cfg.Import.Columns.Notes)
	// Defaults still apply for unset values
	assert.Equal(t, "Last Name", cfg.Import.Columns.LastName)

	opts := cfg.Import.IngestOptions()
	assert.Equal(t, "Care List", opts.SheetName)
	assert.Equal(t, "Comments", opts.Columns.Notes)

	loc, err := cfg.Import.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ACTSIX_STORE_DRIVER", "postgres")
	t.Setenv("ACTSIX_LOG_LEVEL", "warn")
	t.Setenv("ACTSIX_IMPORT_DRY_RUN", "true")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Import.DryRun)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the defaults validation relies on.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "http"
	cfg.API.BaseURL = "http://localhost:3001"
	cfg.API.RatePerSec = 5
	cfg.API.Retry.MaxAttempts = 3
	cfg.Server.Port = 3001
	return cfg
}

func TestValidateImport(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("import"))

	cfg.API.BaseURL = ""
	cfg.API.RatePerSec = -1
	cfg.Import.Timezone = "Nowhere/Special"
	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url is required")
	assert.Contains(t, err.Error(), "api.rate_per_sec must be >= 0")
	assert.Contains(t, err.Error(), "import.timezone is invalid")
}

func TestValidateImport_LocalStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("import"))

	cfg.Store.Driver = "postgres"
	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/actsix"
	assert.NoError(t, cfg.Validate("import"))
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve requires store.driver")

	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err = cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateMigrate(t *testing.T) {
	cfg := validDefaults()
	assert.Error(t, cfg.Validate("migrate"))

	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("migrate"))
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mongo"
	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mongo" is not supported`)
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
