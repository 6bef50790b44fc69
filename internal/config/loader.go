package config

import (
	"fmt"
	"strings"
)

// Load reads the configuration file at path, applies DNSANCHOR_*
// environment overrides, and validates the result. When path is empty the
// DNSANCHOR_CONFIG environment variable names the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv("DNSANCHOR_CONFIG")
	}
	if path == "" {
		return nil, fmt.Errorf("no config file given (pass --config or set DNSANCHOR_CONFIG)")
	}

	fileCfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := fileCfg.ToConfig()
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if envErrs := applyEnvOverrides(cfg); len(envErrs) > 0 {
		return nil, fmt.Errorf("environment overrides: %s", strings.Join(envErrs, "; "))
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
