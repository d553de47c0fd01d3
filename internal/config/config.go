package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config holds all settings of the phonebook commands. Everything is
// taken from environment variables and has a working default, so both
// commands run without any configuration.
type Config struct {
	// Port is the listen port of the REST service.
	Port int `env:"PORT" envDefault:"8080"`
	// DataDir is where batch import/export files are looked up.
	DataDir string `env:"DATA_DIR" envDefault:"data"`
	// AuditLogPath is the audit trail file.
	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"audit_log.txt"`
	// GinLogging turns HTTP request logging off when set to "off".
	GinLogging string `env:"GIN_LOGGING" envDefault:"on"`
	// LogLevel is the diagnostic log level: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// NoColor disables colored output in the interactive CLI.
	NoColor bool `env:"NO_COLOR"`
}

// New parses the configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
