package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. TALLY_DATABASE_DSN.
const EnvPrefix = "TALLY"

// DateFormat is the layout of dates in tally.yaml and on the command line.
const DateFormat = "2006-01-02"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Reporting ReportingConfig `yaml:"reporting"`
	Log       LogConfig       `yaml:"log"`
}

// DatabaseConfig selects the datastore.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`    // sqlite or postgres
	DSN      string `yaml:"dsn"`       // file path for sqlite, connection string for postgres
	LogLevel string `yaml:"log_level"` // silent, error, warn, info
}

// ReportingConfig holds reporting defaults.
type ReportingConfig struct {
	HostCurrency string `yaml:"host_currency"`
	Epoch        string `yaml:"epoch"` // "YYYY-MM-DD", start of the platform's history
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// EpochTime parses Reporting.Epoch as a UTC date.
func (c *Config) EpochTime() (time.Time, error) {
	t, err := time.Parse(DateFormat, c.Reporting.Epoch)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing reporting.epoch %q: %w", c.Reporting.Epoch, err)
	}
	return t, nil
}

// Load reads a tally.yaml file from disk. Environment variables prefixed with
// TALLY_ override file values (TALLY_DATABASE_DSN overrides database.dsn).
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Database: DatabaseConfig{
			Driver:   v.GetString("database.driver"),
			DSN:      v.GetString("database.dsn"),
			LogLevel: v.GetString("database.log_level"),
		},
		Reporting: ReportingConfig{
			HostCurrency: strings.ToUpper(v.GetString("reporting.host_currency")),
			Epoch:        v.GetString("reporting.epoch"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.log_level", d.Database.LogLevel)
	v.SetDefault("reporting.host_currency", d.Reporting.HostCurrency)
	v.SetDefault("reporting.epoch", d.Reporting.Epoch)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "tally.db",
			LogLevel: "warn",
		},
		Reporting: ReportingConfig{
			HostCurrency: "USD",
			Epoch:        "2015-01-01",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}
