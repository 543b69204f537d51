package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// HTTPConfig contains HTTP API related settings.
type HTTPConfig struct {
	Enable bool   `yaml:"enable" envconfig:"ENABLE"`
	Addr   string `yaml:"addr" envconfig:"ADDR"`
	APIKey string `yaml:"api_key" envconfig:"API_KEY"`
}

// PolicyConfig controls the built-in rule engine.
type PolicyConfig struct {
	// RulesPath points at a yaml rule file. Empty means no rule engine is
	// installed and the broker runs with its fail-open defaults.
	RulesPath string `yaml:"rules_path" envconfig:"RULES_PATH"`
}

// Config is the root configuration structure.
type Config struct {
	// LogLevel controls structured logging verbosity (DEBUG, INFO, WARN, ERROR).
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// HTTP server settings.
	HTTP HTTPConfig `yaml:"http" envconfig:"HTTP"`

	// Policy settings.
	Policy PolicyConfig `yaml:"policy" envconfig:"POLICY"`
}

// Load reads configuration from the specified path, or defaults if path is
// empty. Priority: Env Vars > Config File > Defaults.
func Load(path string) (*Config, error) {
	// Try loading .env files (ignore error if not present)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			defaultPath := filepath.Join(home, ".permd", "config.yaml")
			if _, err := os.Stat(defaultPath); err == nil {
				path = defaultPath
			}
		}

		localPath := "permd.yaml"
		if _, err := os.Stat(localPath); err == nil {
			path = localPath
		}
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Process Env Vars (PERMD_ prefix); overrides file values.
	if err := envconfig.Process("PERMD", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}

	// Apply Defaults
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}

	return cfg, nil
}
