package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves the test into an empty directory so no config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Empty(t, cfg.Rules.Path)
	assert.Empty(t, cfg.Attribution.Sheet)
	assert.Equal(t, "month_first", cfg.Attribution.DateOrder)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 32, cfg.Server.MaxBodyMB)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.Equal(t, "Lead", cfg.Salesforce.LeadObject)
	assert.InDelta(t, 5.0, cfg.Salesforce.RateLimit, 0.001)
	assert.InDelta(t, 3.0, cfg.Notion.RateLimit, 0.001)
	assert.Equal(t, 60, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
batch:
  workers: 8
rules:
  path: rules/2026-01.yaml
attribution:
  sheet: Leads
notion:
  lead_db: db-123
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "rules/2026-01.yaml", cfg.Rules.Path)
	assert.Equal(t, "Leads", cfg.Attribution.Sheet)
	assert.Equal(t, "db-123", cfg.Notion.LeadDB)
	// Defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
batch:
  workers: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("LEADS_LOG_LEVEL", "warn")
	t.Setenv("LEADS_BATCH_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADS_SERVER_PORT", "3000")
	t.Setenv("LEADS_NOTION_TOKEN", "ntn_secret")
	t.Setenv("LEADS_SALESFORCE_LEAD_OBJECT", "Prospecto__c")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "ntn_secret", cfg.Notion.Token)
	assert.Equal(t, "Prospecto__c", cfg.Salesforce.LeadObject)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	assert.ErrorContains(t, err, "config: read file")
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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Batch.Workers = 1
	cfg.Fetch.TimeoutSecs = 60
	cfg.Server.Port = 8080
	cfg.Server.MaxBodyMB = 32
	cfg.Salesforce.LeadObject = "Lead"
	return cfg
}

func TestValidateClassify(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("classify"))
}

func TestValidate_DateOrder(t *testing.T) {
	cfg := validDefaults()
	cfg.Attribution.DateOrder = "day_first"
	assert.NoError(t, cfg.Validate("classify"))

	cfg.Attribution.DateOrder = "dd/mm"
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `attribution.date_order must be month_first or day_first, got "dd/mm"`)
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateSalesforce_MissingFields(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("salesforce")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "salesforce.client_id is required")
	assert.Contains(t, err.Error(), "salesforce.username is required")
	assert.Contains(t, err.Error(), "salesforce.key_path is required")

	cfg.Salesforce.ClientID = "client"
	cfg.Salesforce.Username = "ops@example.com"
	cfg.Salesforce.KeyPath = "/etc/sf/key.pem"
	assert.NoError(t, cfg.Validate("salesforce"))
}

func TestValidateNotion(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("notion")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "notion.token is required")
	assert.Contains(t, err.Error(), "notion.lead_db is required")

	cfg.Notion.Token = "ntn_token"
	cfg.Notion.LeadDB = "lead-db-id"
	assert.NoError(t, cfg.Validate("notion"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Workers = 0
	err := cfg.Validate("classify")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.workers must be between 1 and 64")

	cfg.Batch.Workers = 65
	assert.Error(t, cfg.Validate("classify"))

	cfg.Batch.Workers = 64
	assert.NoError(t, cfg.Validate("classify"))
}
