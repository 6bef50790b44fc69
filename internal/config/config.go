// Package config handles loading and validation of dnsanchor configuration.
//
// Configuration is read from a YAML or TOML file, with ${VAR} environment
// interpolation inside string values, followed by DNSANCHOR_* environment
// overrides. Secrets support the Docker secrets _FILE pattern.
package config

import (
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
	"gitlab.bluewillows.net/root/dnsanchor/providers/cloudflare"
	"gitlab.bluewillows.net/root/dnsanchor/providers/rfc2136"
)

// Configuration defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// DefaultInterval is the delay between reconciliation passes.
	DefaultInterval = 60 * time.Second

	// DefaultHealthPort serves health and metrics endpoints.
	DefaultHealthPort = 8080

	// DefaultIPv4 / DefaultIPv6 select which address families are managed
	// when the file does not say.
	DefaultIPv4 = true
	DefaultIPv6 = false
)

// Config holds the complete runtime configuration.
type Config struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Domain is the fully qualified record name being kept up to date.
	Domain string

	// IPv4 / IPv6 select the managed address families.
	IPv4 bool
	IPv6 bool

	// Interval is the delay between the end of one reconciliation pass and
	// the start of the next.
	Interval time.Duration

	// HealthPort is the port for health and metrics endpoints.
	HealthPort int

	// Resolver settings. Empty endpoint lists fall back to the built-in
	// public IP echo services.
	EndpointsIPv4   []string
	EndpointsIPv6   []string
	ResolverTimeout time.Duration

	// Provider configuration. Exactly one must be set.
	Cloudflare *cloudflare.Config
	RFC2136    *rfc2136.Config
}

// Families returns the managed address families in deterministic order.
func (c *Config) Families() []provider.Family {
	var families []provider.Family
	if c.IPv4 {
		families = append(families, provider.FamilyIPv4)
	}
	if c.IPv6 {
		families = append(families, provider.FamilyIPv6)
	}
	return families
}

// ProviderType returns the configured provider type name, or "" when none
// is configured.
func (c *Config) ProviderType() string {
	switch {
	case c.Cloudflare != nil:
		return "cloudflare"
	case c.RFC2136 != nil:
		return "rfc2136"
	default:
		return ""
	}
}
