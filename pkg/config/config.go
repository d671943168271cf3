package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file values
const (
	EnvConfigPath = "NEWSLETTER_CONFIG"
	EnvBaseURL    = "NEWSLETTER_BASE_URL"
	EnvAPIKey     = "NEWSLETTER_API_KEY"
	EnvOutputDir  = "NEWSLETTER_OUTPUT_DIR"
	EnvLogLevel   = "NEWSLETTER_LOG_LEVEL"
)

type Config struct {
	// CLI
	CLI struct {
		BaseURL        string `toml:"base_url"` // generation backend root
		APIKey         string `toml:"api_key"`
		RequestTimeout int    `toml:"request_timeout"` // seconds, for one-shot requests
		OutputDir      string `toml:"output_dir"`
		LogLevel       string `toml:"log_level"`
		LogDir         string `toml:"log_dir"`
	} `toml:"cli"`

	// Dev API
	API struct {
		Host           string `toml:"host"`
		Port           int    `toml:"port"`
		APIKey         string `toml:"api_key"` // empty disables auth
		StepIntervalMS int    `toml:"step_interval_ms"`
		FailMarker     string `toml:"fail_marker"` // URLs containing it fail
	} `toml:"api"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.CLI.BaseURL = "http://localhost:8000"
	cfg.CLI.RequestTimeout = 30
	cfg.CLI.OutputDir = "newsletters"
	cfg.CLI.LogLevel = "info"
	cfg.CLI.LogDir = "tmp"
	cfg.API.Host = "0.0.0.0"
	cfg.API.Port = 8000
	cfg.API.StepIntervalMS = 500
	cfg.API.FailMarker = "fail"
	return cfg
}

// RequestTimeout returns the one-shot request timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.CLI.RequestTimeout) * time.Second
}

// StepInterval returns the dev API progress tick
func (c *Config) StepInterval() time.Duration {
	return time.Duration(c.API.StepIntervalMS) * time.Millisecond
}

// Addr is the dev API listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return expandHome(p)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", "newsletter")
	return filepath.Join(configDir, "config.toml"), nil
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return strings.Replace(p, "~", homeDir, 1), nil
}

// LoadDotEnv loads .env.local and .env from the working directory, if
// present. Variables already set in the environment win.
func LoadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// Load reads configuration from ~/.config/newsletter/config.toml.
// Creates the file with defaults if it doesn't exist.
func Load() (*Config, error) {
	LoadDotEnv()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		applyEnv(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFile reads the config file without environment overrides, falling
// back to defaults when it does not exist.
func LoadFile() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML and fills in defaults for missing values
func Parse(data []byte) (*Config, error) {
	// Keys absent from the file keep their defaults; an explicit empty
	// fail_marker disables simulated failures.
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	def := DefaultConfig()
	if cfg.CLI.BaseURL == "" {
		cfg.CLI.BaseURL = def.CLI.BaseURL
	}
	if cfg.CLI.RequestTimeout <= 0 {
		cfg.CLI.RequestTimeout = def.CLI.RequestTimeout
	}
	if cfg.CLI.OutputDir == "" {
		cfg.CLI.OutputDir = def.CLI.OutputDir
	}
	if cfg.CLI.LogLevel == "" {
		cfg.CLI.LogLevel = def.CLI.LogLevel
	}
	if cfg.CLI.LogDir == "" {
		cfg.CLI.LogDir = def.CLI.LogDir
	}
	if cfg.API.Host == "" {
		cfg.API.Host = def.API.Host
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = def.API.Port
	}
	if cfg.API.StepIntervalMS <= 0 {
		cfg.API.StepIntervalMS = def.API.StepIntervalMS
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Overrides are
// never written back by Save.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.CLI.BaseURL = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.CLI.APIKey = v
		if cfg.API.APIKey == "" {
			cfg.API.APIKey = v
		}
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.CLI.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.CLI.LogLevel = v
	}
}

// Save writes the configuration to the config file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Set assigns one value addressed as section.key
func (c *Config) Set(keyPath, value string) error {
	parts := strings.Split(keyPath, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid key format: expected 'section.key'")
	}
	section, key := parts[0], parts[1]

	switch section {
	case "cli":
		switch key {
		case "base_url":
			c.CLI.BaseURL = value
		case "api_key":
			c.CLI.APIKey = value
		case "request_timeout":
			n, err := parsePositive(key, value)
			if err != nil {
				return err
			}
			c.CLI.RequestTimeout = n
		case "output_dir":
			c.CLI.OutputDir = value
		case "log_level":
			c.CLI.LogLevel = value
		case "log_dir":
			c.CLI.LogDir = value
		default:
			return fmt.Errorf("unknown cli key: %s", key)
		}
	case "api":
		switch key {
		case "host":
			c.API.Host = value
		case "port":
			n, err := parsePositive(key, value)
			if err != nil {
				return err
			}
			c.API.Port = n
		case "api_key":
			c.API.APIKey = value
		case "step_interval_ms":
			n, err := parsePositive(key, value)
			if err != nil {
				return err
			}
			c.API.StepIntervalMS = n
		case "fail_marker":
			c.API.FailMarker = value
		default:
			return fmt.Errorf("unknown api key: %s", key)
		}
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
	return nil
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s value: %s", key, value)
	}
	return n, nil
}
