package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Assessment AssessmentConfig `json:"assessment"`
	Logging    LoggingConfig    `json:"logging"`
	Reports    ReportsConfig    `json:"reports"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Mode is the gin mode: debug, release or test
	Mode string `json:"mode"`
}

// AssessmentConfig configures the assessment registry
type AssessmentConfig struct {
	// OwnerID is the only identity allowed to verify assessments
	OwnerID string `json:"owner_id"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// ReportsConfig
type ReportsConfig struct {
	// SummarySchedule is a cron spec (with seconds). Empty disables the job.
	SummarySchedule string `json:"summary_schedule"`
	Title           string `json:"title"`
}

// LoadConfig loads configuration from file and environment variables.
// A .env file in the working directory is applied before the environment
// overrides; a missing .env is not an error.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	_ = godotenv.Load()
	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Reports: ReportsConfig{
			SummarySchedule: "0 */15 * * * *",
			Title:           "CarbonScribe Impact Ledger",
		},
	}
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}
	if owner := os.Getenv("ASSESSMENT_OWNER_ID"); owner != "" {
		config.Assessment.OwnerID = owner
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dev := os.Getenv("LOG_DEVELOPMENT"); dev != "" {
		if d, err := strconv.ParseBool(dev); err == nil {
			config.Logging.Development = d
		}
	}
	if schedule, ok := os.LookupEnv("REPORTS_SUMMARY_SCHEDULE"); ok {
		config.Reports.SummarySchedule = schedule
	}
}

// Validate checks the settings the services cannot start without
func (c *Config) Validate() error {
	if c.Assessment.OwnerID == "" {
		return errors.New("assessment owner id is required (ASSESSMENT_OWNER_ID)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Reports.SummarySchedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Reports.SummarySchedule); err != nil {
			return fmt.Errorf("invalid summary schedule %q: %w", c.Reports.SummarySchedule, err)
		}
	}
	return nil
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
