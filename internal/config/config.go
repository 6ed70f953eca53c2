package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/core/model"
)

const dateLayout = "2006-01-02"

// Enforcement sets the severity of each built-in rule category.
// Empty values keep the default (must).
type Enforcement struct {
	Gender        string `yaml:"gender,omitempty"`
	Religious     string `yaml:"religious,omitempty"`
	Accessibility string `yaml:"accessibility,omitempty"`
	Schedule      string `yaml:"schedule,omitempty"`
}

// AllocationConfig tunes batch runs
type AllocationConfig struct {
	MaxIterations      int         `yaml:"maxIterations,omitempty" validate:"omitempty,min=1,max=1000"`
	AdjacencyThreshold float64     `yaml:"adjacencyThreshold,omitempty" validate:"omitempty,gt=0"`
	Enforcement        Enforcement `yaml:"enforcement,omitempty"`
	PeriodStart        string      `yaml:"periodStart,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd          string      `yaml:"periodEnd,omitempty" validate:"omitempty,datetime=2006-01-02"`
	// HoldAsPending commits batch allocations as pending instead of active
	HoldAsPending bool `yaml:"holdAsPending,omitempty"`
}

// SheetsConfig locates the roster spreadsheet
type SheetsConfig struct {
	RosterSheetID  string `yaml:"rosterSheetID" validate:"required"`
	EmployeesTab   string `yaml:"employeesTab,omitempty"`
	ResourcesTab   string `yaml:"resourcesTab,omitempty"`
	SeatsTab       string `yaml:"seatsTab,omitempty"`
	AllocationsTab string `yaml:"allocationsTab,omitempty"`
}

// Config represents the application configuration
type Config struct {
	// DatabaseURL is a Postgres connection string. Without it the CLI works
	// against an in-memory store seeded from RosterFile.
	DatabaseURL string `yaml:"databaseURL,omitempty" validate:"required_without=RosterFile"`
	RosterFile  string `yaml:"rosterFile,omitempty"`
	// DefaultWorkDays is the RRULE used for employees without a schedule
	DefaultWorkDays string           `yaml:"defaultWorkDays,omitempty"`
	Sheets          *SheetsConfig    `yaml:"sheets,omitempty" validate:"omitempty"`
	Allocation      AllocationConfig `yaml:"allocation,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates seatplanner_config.<env>.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the rrule syntax and the enforcement words
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.DefaultWorkDays != "" {
		if _, err := rrule.StrToRRule(cfg.DefaultWorkDays); err != nil {
			return fmt.Errorf("invalid rrule in defaultWorkDays: %w", err)
		}
	}

	if _, err := cfg.Allocation.policy(); err != nil {
		return err
	}

	start, end, err := cfg.Allocation.period()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("allocation periodEnd %s is before periodStart %s", cfg.Allocation.PeriodEnd, cfg.Allocation.PeriodStart)
	}

	return nil
}

// EngineConfig converts the allocation section into an engine configuration
func (c *Config) EngineConfig() (allocator.Config, error) {
	policy, err := c.Allocation.policy()
	if err != nil {
		return allocator.Config{}, err
	}
	start, end, err := c.Allocation.period()
	if err != nil {
		return allocator.Config{}, err
	}

	cfg := allocator.DefaultConfig()
	if c.Allocation.MaxIterations > 0 {
		cfg.MaxIterations = c.Allocation.MaxIterations
	}
	if c.Allocation.AdjacencyThreshold > 0 {
		cfg.AdjacencyThreshold = c.Allocation.AdjacencyThreshold
	}
	cfg.Policy = policy
	cfg.PeriodStart = start
	cfg.PeriodEnd = end
	return cfg, nil
}

func (a AllocationConfig) policy() (allocator.Policy, error) {
	policy := allocator.DefaultPolicy()
	fields := []struct {
		name  string
		value string
		dst   *model.Severity
	}{
		{"gender", a.Enforcement.Gender, &policy.Gender},
		{"religious", a.Enforcement.Religious, &policy.Religious},
		{"accessibility", a.Enforcement.Accessibility, &policy.Accessibility},
		{"schedule", a.Enforcement.Schedule, &policy.Schedule},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		severity, err := model.ParseSeverity(f.value)
		if err != nil {
			return allocator.Policy{}, fmt.Errorf("invalid enforcement for %s: %w", f.name, err)
		}
		*f.dst = severity
	}
	return policy, nil
}

func (a AllocationConfig) period() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if a.PeriodStart != "" {
		if start, err = time.Parse(dateLayout, a.PeriodStart); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid periodStart: %w", err)
		}
	}
	if a.PeriodEnd != "" {
		if end, err = time.Parse(dateLayout, a.PeriodEnd); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid periodEnd: %w", err)
		}
	}
	return start, end, nil
}

// findConfigFile searches for seatplanner_config.<env>.yaml in current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "seatplanner_config." + env + ".yaml"

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
