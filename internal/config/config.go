// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type ScheduleConfig struct {
	// What to do when the slot schedule cannot be fetched for a court:
	// "assume_free" serves the default full-day catalog, "block" fails hard.
	OnFetchError        string `yaml:"on_fetch_error"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
}

type ReservationsConfig struct {
	Timezone             string `yaml:"timezone"`
	PendingExpiryMinutes int    `yaml:"pending_expiry_minutes"`
	ReminderHoursBefore  int    `yaml:"reminder_hours_before"`
}

type PaymentsConfig struct {
	Currency       string `yaml:"currency"`
	CulqiPublicKey string `yaml:"-"` // Loaded from environment
	CulqiSecretKey string `yaml:"-"` // Loaded from environment
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database     DatabaseConfig     `yaml:"database"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Reservations ReservationsConfig `yaml:"reservations"`
	Payments     PaymentsConfig     `yaml:"payments"`
	Email        EmailConfig        `yaml:"email"`

	Features struct {
		EnableDebug bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.Payments.CulqiPublicKey = os.Getenv("CULQI_PUBLIC_KEY")
	cfg.Payments.CulqiSecretKey = os.Getenv("CULQI_SECRET_KEY")
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Schedule.OnFetchError == "" {
		c.Schedule.OnFetchError = "assume_free"
	}
	if c.Schedule.FetchTimeoutSeconds <= 0 {
		c.Schedule.FetchTimeoutSeconds = 5
	}
	if c.Reservations.Timezone == "" {
		c.Reservations.Timezone = "America/Lima"
	}
	if c.Reservations.PendingExpiryMinutes <= 0 {
		c.Reservations.PendingExpiryMinutes = 30
	}
	if c.Reservations.ReminderHoursBefore <= 0 {
		c.Reservations.ReminderHoursBefore = 24
	}
	if c.Payments.Currency == "" {
		c.Payments.Currency = "PEN"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Schedule.OnFetchError {
	case "assume_free", "block":
	default:
		return fmt.Errorf("unsupported schedule fetch policy: %s", c.Schedule.OnFetchError)
	}

	return nil
}
