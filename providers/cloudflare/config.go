package cloudflare

import (
	"fmt"
	"strings"
)

// Config holds Cloudflare provider configuration.
type Config struct {
	// APIToken is a scoped API token with Zone.DNS edit permission (required).
	APIToken string `yaml:"api_token" toml:"api_token"`

	// Zone is the zone name the managed domain lives in (required).
	Zone string `yaml:"zone" toml:"zone"`

	// APIEndpoint overrides the API base URL. Defaults to the public v4 API.
	APIEndpoint string `yaml:"api_endpoint" toml:"api_endpoint"`
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.APIToken == "" {
		errs = append(errs, "api_token is required")
	}

	if c.Zone == "" {
		errs = append(errs, "zone is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("cloudflare config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
