package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/core/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seatplanner_config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_MinimalConfig(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/seats"}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_RosterFileWithoutDatabase(t *testing.T) {
	cfg := &Config{RosterFile: "roster.yaml"}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_NeedsDatabaseOrRosterFile(t *testing.T) {
	err := Validate(&Config{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := &Config{
		DatabaseURL:     "postgres://localhost/seats",
		DefaultWorkDays: "INVALID_RRULE_SYNTAX",
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestValidate_ComplexValidRRule(t *testing.T) {
	cfg := &Config{
		DatabaseURL:     "postgres://localhost/seats",
		DefaultWorkDays: "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR",
	}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_InvalidEnforcement(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/seats",
		Allocation: AllocationConfig{
			Enforcement: Enforcement{Gender: "sometimes"},
		},
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid enforcement for gender")
}

func TestValidate_PeriodEndBeforeStart(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/seats",
		Allocation: AllocationConfig{
			PeriodStart: "2025-03-01",
			PeriodEnd:   "2025-02-01",
		},
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "before periodStart")
}

func TestValidate_SheetsNeedsSpreadsheetID(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/seats",
		Sheets:      &SheetsConfig{EmployeesTab: "People"},
	}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestEngineConfig_Defaults(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://localhost/seats"}

	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)

	assert.Equal(t, allocator.DefaultConfig(), engineCfg)
}

func TestEngineConfig_Overrides(t *testing.T) {
	cfg := &Config{
		DatabaseURL: "postgres://localhost/seats",
		Allocation: AllocationConfig{
			MaxIterations:      25,
			AdjacencyThreshold: 3,
			Enforcement:        Enforcement{Gender: "preferred", Schedule: "hard"},
			PeriodStart:        "2025-03-03",
			PeriodEnd:          "2025-03-28",
		},
	}

	engineCfg, err := cfg.EngineConfig()
	require.NoError(t, err)

	assert.Equal(t, 25, engineCfg.MaxIterations)
	assert.Equal(t, 3.0, engineCfg.AdjacencyThreshold)
	assert.Equal(t, model.SeverityPrefer, engineCfg.Policy.Gender)
	assert.Equal(t, model.SeverityMust, engineCfg.Policy.Religious)
	assert.Equal(t, model.SeverityMust, engineCfg.Policy.Schedule)
	assert.Equal(t, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), engineCfg.PeriodStart)
	assert.Equal(t, time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC), engineCfg.PeriodEnd)
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/seats"
defaultWorkDays: "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"
sheets:
  rosterSheetID: "sheet123"
  employeesTab: "People"
allocation:
  maxIterations: 20
  holdAsPending: true
  enforcement:
    religious: "soft"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/seats", cfg.DatabaseURL)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR", cfg.DefaultWorkDays)
	require.NotNil(t, cfg.Sheets)
	assert.Equal(t, "sheet123", cfg.Sheets.RosterSheetID)
	assert.Equal(t, "People", cfg.Sheets.EmployeesTab)
	assert.Empty(t, cfg.Sheets.SeatsTab)
	assert.Equal(t, 20, cfg.Allocation.MaxIterations)
	assert.True(t, cfg.Allocation.HoldAsPending)
	assert.Equal(t, "soft", cfg.Allocation.Enforcement.Religious)
}

func TestLoadFromPath_MinimalConfig(t *testing.T) {
	path := writeConfig(t, `
rosterFile: "roster.yaml"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "roster.yaml", cfg.RosterFile)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Nil(t, cfg.Sheets)
}

func TestLoadFromPath_InvalidPeriod(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/seats"
allocation:
  periodStart: "03/01/2025"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
databaseURL: "postgres://localhost/seats"
  invalid indentation
rosterFile: "roster.yaml"
`)

	_, err := LoadFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "test-project",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost"]
  }
}`), 0644))

	cfg, err := LoadOAuthClientFromPath(valid)
	require.NoError(t, err)
	assert.Equal(t, "test-client-id.apps.googleusercontent.com", cfg.Installed.ClientID)
	assert.Equal(t, []string{"http://localhost"}, cfg.Installed.RedirectURIs)

	missingSecret := filepath.Join(dir, "missing.json")
	require.NoError(t, os.WriteFile(missingSecret, []byte(`{
  "installed": {
    "client_id": "test-client-id",
    "project_id": "test-project",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "redirect_uris": ["http://localhost"]
  }
}`), 0644))

	_, err = LoadOAuthClientFromPath(missingSecret)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	_, err = LoadOAuthClientFromPath(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}
