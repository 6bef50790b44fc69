package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the runtime configuration for consistency. All problems
// are collected and reported together so the operator can fix a broken file
// in one round trip.
func Validate(cfg *Config) error {
	var errs []string

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logging.format: invalid value %q (must be json or text)", cfg.LogFormat))
	}

	if cfg.Domain == "" {
		errs = append(errs, "domain is required")
	}

	if !cfg.IPv4 && !cfg.IPv6 {
		errs = append(errs, "at least one address family must be enabled (ipv4 or ipv6)")
	}

	if cfg.Interval < time.Second {
		errs = append(errs, fmt.Sprintf("interval: must be at least 1s, got %s", cfg.Interval))
	}

	if cfg.HealthPort < 1 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", cfg.HealthPort))
	}

	switch {
	case cfg.Cloudflare == nil && cfg.RFC2136 == nil:
		errs = append(errs, "a provider block is required (provider.cloudflare or provider.rfc2136)")

	case cfg.Cloudflare != nil && cfg.RFC2136 != nil:
		errs = append(errs, "exactly one provider block may be set, found both provider.cloudflare and provider.rfc2136")

	case cfg.Cloudflare != nil:
		if err := cfg.Cloudflare.Validate(); err != nil {
			errs = append(errs, err.Error())
		}

	case cfg.RFC2136 != nil:
		if err := cfg.RFC2136.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
