package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath is checked for a config file location when no --config
// flag is given.
const EnvConfigPath = "AKSOPS_CONFIG"

// Environment overrides applied on top of the config file. Command
// flags still take precedence over both.
const (
	EnvContext   = "AKSOPS_CONTEXT"
	EnvNamespace = "AKSOPS_NAMESPACE"
)

// DefaultFileName is looked up in the working directory as a last resort.
const DefaultFileName = "aksops.yaml"

// Load reads and parses an aksops configuration file.
func Load(path string) (Config, error) {
	var cfg Config

	// Clean the path to prevent directory traversal attacks
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 - Config file path is trusted (from admin/user)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables
// if set.
func applyEnvOverrides(cfg *Config) {
	if context := os.Getenv(EnvContext); context != "" {
		cfg.Cluster.Context = context
	}
	if namespace := os.Getenv(EnvNamespace); namespace != "" {
		cfg.Defaults.Namespace = namespace
	}
}

// Locate resolves the config file path from the flag value, the
// AKSOPS_CONFIG environment variable, or ./aksops.yaml, in that order.
// Returns an empty string when no config file can be found.
func Locate(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.Defaults.Namespace == "" {
		cfg.Defaults.Namespace = "default"
	}
	if cfg.Defaults.ChartPath == "" {
		cfg.Defaults.ChartPath = "chart"
	}
	if cfg.Defaults.Timeout == "" {
		cfg.Defaults.Timeout = "5m"
	}
	if cfg.KeyVault.NamePrefix == "" {
		cfg.KeyVault.NamePrefix = "kv-"
	}
}
