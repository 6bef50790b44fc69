package config

import (
	"fmt"
	"strconv"
)

// applyEnvOverrides overlays DNSANCHOR_* environment variables onto a
// config loaded from file. Environment values win over file values.
// Returns a list of parse errors (may be empty).
func applyEnvOverrides(cfg *Config) []string {
	var errs []string

	if v := getEnv("DNSANCHOR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("DNSANCHOR_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := getEnv("DNSANCHOR_DOMAIN"); v != "" {
		cfg.Domain = v
	}

	if v := getEnv("DNSANCHOR_IPV4"); v != "" {
		cfg.IPv4 = parseBool(v, cfg.IPv4)
	}
	if v := getEnv("DNSANCHOR_IPV6"); v != "" {
		cfg.IPv6 = parseBool(v, cfg.IPv6)
	}

	if v := getEnv("DNSANCHOR_INTERVAL"); v != "" {
		interval, err := parseInterval(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DNSANCHOR_INTERVAL: %v", err))
		} else {
			cfg.Interval = interval
		}
	}

	if v := getEnv("DNSANCHOR_HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DNSANCHOR_HEALTH_PORT: invalid integer %q", v))
		} else {
			cfg.HealthPort = port
		}
	}

	// Secrets support the _FILE pattern so they can live in Docker secrets
	// instead of the config file or plain environment.
	if v := getEnvWithFileFallback("DNSANCHOR_API_TOKEN"); v != "" && cfg.Cloudflare != nil {
		cfg.Cloudflare.APIToken = v
	}
	if v := getEnvWithFileFallback("DNSANCHOR_TSIG_SECRET"); v != "" && cfg.RFC2136 != nil {
		cfg.RFC2136.TSIGSecret = v
	}

	return errs
}
