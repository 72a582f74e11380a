// Package config loads and validates service configuration from a YAML file
// with environment variable overrides for secrets. Validation is fail-fast:
// a config missing any required field aborts startup before any job is
// scheduled, and all missing fields are reported at once.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the file and environment leave a field empty.
const (
	DefaultBaseURL        = "https://common-api.wildberries.ru"
	DefaultTariffEndpoint = "/api/v1/tariffs/box"
	DefaultFetchSchedule  = "0 * * * *"
	DefaultUpdateSchedule = "15 * * * *"
	DefaultTimezone       = "Europe/Moscow"
)

// WBConfig holds upstream tariff API settings.
type WBConfig struct {
	APIKey         string `yaml:"apiKey"`
	BaseURL        string `yaml:"baseUrl"`
	TariffEndpoint string `yaml:"tariffEndpoint"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// DSN builds a pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// SheetTarget identifies one spreadsheet publication target.
type SheetTarget struct {
	SpreadsheetID   string `yaml:"spreadsheetId"`
	Range           string `yaml:"range"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// SchedulerConfig holds the two job trigger expressions and the timezone
// they are evaluated in.
type SchedulerConfig struct {
	FetchTariffs string `yaml:"fetchTariffs"`
	UpdateSheets string `yaml:"updateSheets"`
	Timezone     string `yaml:"timezone"`
}

// MetricsConfig holds the optional Prometheus listen address.
// Empty disables the metrics endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root service configuration.
type Config struct {
	WB        WBConfig        `yaml:"wb"`
	Database  DatabaseConfig  `yaml:"database"`
	Sheets    []SheetTarget   `yaml:"googleSheets"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, then validates. Returns an error aggregating every missing
// required field.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides secret-bearing fields from the environment. File
// values stay when the variable is unset.
func (c *Config) applyEnv() {
	if v := os.Getenv("WB_API_KEY"); v != "" {
		c.WB.APIKey = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.WB.BaseURL == "" {
		c.WB.BaseURL = DefaultBaseURL
	}
	if c.WB.TariffEndpoint == "" {
		c.WB.TariffEndpoint = DefaultTariffEndpoint
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Scheduler.FetchTariffs == "" {
		c.Scheduler.FetchTariffs = DefaultFetchSchedule
	}
	if c.Scheduler.UpdateSheets == "" {
		c.Scheduler.UpdateSheets = DefaultUpdateSchedule
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = DefaultTimezone
	}
	for i := range c.Sheets {
		if c.Sheets[i].Range == "" {
			c.Sheets[i].Range = "A1:Z1000"
		}
	}
}

// Validate checks every required field and aggregates all failures.
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.WB.APIKey) == "" {
		result = multierror.Append(result, fmt.Errorf("wb api key is required"))
	}
	if strings.TrimSpace(c.WB.BaseURL) == "" {
		result = multierror.Append(result, fmt.Errorf("wb base url is required"))
	}
	if strings.TrimSpace(c.WB.TariffEndpoint) == "" {
		result = multierror.Append(result, fmt.Errorf("wb tariff endpoint is required"))
	}
	if strings.TrimSpace(c.Database.Database) == "" {
		result = multierror.Append(result, fmt.Errorf("database name is required"))
	}
	if strings.TrimSpace(c.Database.User) == "" {
		result = multierror.Append(result, fmt.Errorf("database user is required"))
	}

	if len(c.Sheets) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one google sheets target is required"))
	}
	for i, target := range c.Sheets {
		if strings.TrimSpace(target.SpreadsheetID) == "" {
			result = multierror.Append(result, fmt.Errorf("sheets target %d: spreadsheet id is required", i))
		}
		if strings.TrimSpace(target.CredentialsFile) == "" {
			result = multierror.Append(result, fmt.Errorf("sheets target %d: credentials file is required", i))
		}
	}

	if strings.TrimSpace(c.Scheduler.FetchTariffs) == "" {
		result = multierror.Append(result, fmt.Errorf("fetch tariffs schedule is required"))
	}
	if strings.TrimSpace(c.Scheduler.UpdateSheets) == "" {
		result = multierror.Append(result, fmt.Errorf("update sheets schedule is required"))
	}

	return result.ErrorOrNil()
}
