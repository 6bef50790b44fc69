package rfc2136

import (
	"fmt"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/dnsupdate"
)

// Default configuration values.
const (
	// DefaultTTL is the TTL written on replaced records.
	DefaultTTL = 60

	// DefaultTimeout is the timeout for DNS exchanges in seconds.
	DefaultTimeout = 10
)

// Config holds RFC 2136 provider configuration. It wraps dnsupdate.Config
// and adds provider-level settings.
type Config struct {
	// Server is the DNS server address (required). Accepts "host",
	// "host:port", or a "udp://" / "tcp://" URI selecting the transport.
	Server string `yaml:"server" toml:"server"`

	// Zone is the DNS zone the updates are scoped to (required).
	Zone string `yaml:"zone" toml:"zone"`

	// TSIGKeyName is the TSIG key name (required).
	TSIGKeyName string `yaml:"tsig_key_name" toml:"tsig_key_name"`

	// TSIGSecret is the base64-encoded TSIG shared secret (required).
	TSIGSecret string `yaml:"tsig_secret" toml:"tsig_secret"`

	// TSIGAlgorithm selects the HMAC algorithm (default: hmac-sha256).
	// Supported: hmac-md5, hmac-sha256, hmac-sha512.
	TSIGAlgorithm string `yaml:"tsig_algorithm" toml:"tsig_algorithm"`

	// Timeout is the timeout for DNS exchanges in seconds (default: 10).
	Timeout int `yaml:"timeout" toml:"timeout"`

	// TTL is the TTL written on replaced records (default: 60).
	TTL int `yaml:"ttl" toml:"ttl"`
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server == "" {
		errs = append(errs, "server is required")
	}

	if c.Zone == "" {
		errs = append(errs, "zone is required")
	}

	if c.TSIGKeyName == "" {
		errs = append(errs, "tsig_key_name is required")
	}

	if c.TSIGSecret == "" {
		errs = append(errs, "tsig_secret is required")
	}

	if c.TTL < 0 {
		errs = append(errs, "ttl must be non-negative")
	}

	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("rfc2136 config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ToDNSUpdateConfig converts this config to dnsupdate.Config.
func (c *Config) ToDNSUpdateConfig() *dnsupdate.Config {
	ttl := c.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &dnsupdate.Config{
		Server:        c.Server,
		Zone:          c.Zone,
		TSIGKeyName:   c.TSIGKeyName,
		TSIGSecret:    c.TSIGSecret,
		TSIGAlgorithm: c.TSIGAlgorithm,
		Timeout:       time.Duration(timeout) * time.Second,
		TTL:           ttl,
	}
}
