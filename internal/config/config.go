package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// NotificationConfig configures the best-effort gmail dispatcher
type NotificationConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Sender          string `yaml:"sender,omitempty" validate:"required_if=Enabled true,omitempty,email"`
	CredentialsFile string `yaml:"credentialsFile,omitempty" validate:"required_if=Enabled true"`
	TokenFile       string `yaml:"tokenFile,omitempty" validate:"required_if=Enabled true"`
	RatePerMinute   int    `yaml:"ratePerMinute,omitempty" validate:"omitempty,min=1"`
}

// RotationConfig configures hotline rotation draft generation
type RotationConfig struct {
	TieBreak       string `yaml:"tieBreak,omitempty" validate:"omitempty,oneof=sequential random"`
	ConflictPolicy string `yaml:"conflictPolicy,omitempty" validate:"omitempty,oneof=skip fail"`
	StartTime      string `yaml:"startTime,omitempty"`
	EndTime        string `yaml:"endTime,omitempty"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`

	// CoverageThreshold is the percentage below which a plan is flagged
	CoverageThreshold int `yaml:"coverageThreshold,omitempty" validate:"omitempty,min=1,max=100"`

	// DefaultMinStaff is used for teams without a capacity requirement
	DefaultMinStaff int `yaml:"defaultMinStaff,omitempty" validate:"omitempty,min=1"`

	// BulkConflictPolicy decides what bulk generation does when a draft
	// collides with an existing ledger entry
	BulkConflictPolicy string `yaml:"bulkConflictPolicy,omitempty" validate:"omitempty,oneof=skip overwrite fail"`

	// HolidayAPIBaseURL and HolidayCountry configure the public-holiday API.
	// Leaving the country empty disables API lookups.
	HolidayAPIBaseURL string `yaml:"holidayAPIBaseURL,omitempty" validate:"omitempty,url"`
	HolidayCountry    string `yaml:"holidayCountry,omitempty" validate:"omitempty,len=2"`

	// HolidayRules are RRULE strings for company holidays not covered by the
	// public calendar
	HolidayRules []string `yaml:"holidayRules,omitempty"`

	Notifications NotificationConfig `yaml:"notifications,omitempty"`
	Rotation      RotationConfig     `yaml:"rotation,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from staffrota_config.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
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

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks holiday rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, rule := range cfg.HolidayRules {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in holidayRules[%d]: %w", i, err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.CoverageThreshold == 0 {
		cfg.CoverageThreshold = 90
	}
	if cfg.DefaultMinStaff == 0 {
		cfg.DefaultMinStaff = 1
	}
	if cfg.BulkConflictPolicy == "" {
		cfg.BulkConflictPolicy = "skip"
	}
	if cfg.HolidayAPIBaseURL == "" {
		cfg.HolidayAPIBaseURL = "https://date.nager.at"
	}
	if cfg.Notifications.RatePerMinute == 0 {
		cfg.Notifications.RatePerMinute = 30
	}
	if cfg.Rotation.TieBreak == "" {
		cfg.Rotation.TieBreak = "sequential"
	}
	if cfg.Rotation.ConflictPolicy == "" {
		cfg.Rotation.ConflictPolicy = "skip"
	}
	if cfg.Rotation.StartTime == "" {
		cfg.Rotation.StartTime = "09:00"
	}
	if cfg.Rotation.EndTime == "" {
		cfg.Rotation.EndTime = "17:00"
	}
}

// findConfigFile searches for staffrota_config.yaml in the current directory
// and the home directory
func findConfigFile() (string, error) {
	configFileName := "staffrota_config.yaml"

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

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
