package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitlab.bluewillows.net/root/dnsanchor/providers/cloudflare"
	"gitlab.bluewillows.net/root/dnsanchor/providers/rfc2136"
)

// FileConfig mirrors the configuration file structure. The same shape is
// accepted as YAML or TOML, selected by file extension.
type FileConfig struct {
	Logging *FileLoggingConfig `yaml:"logging,omitempty" toml:"logging"`

	// Domain is the record name being kept up to date.
	Domain string `yaml:"domain" toml:"domain"`

	// IPv4 / IPv6 select the managed families. Pointers distinguish unset
	// from explicit false.
	IPv4 *bool `yaml:"ipv4,omitempty" toml:"ipv4"`
	IPv6 *bool `yaml:"ipv6,omitempty" toml:"ipv6"`

	// Interval between passes, in Go duration format ("60s", "5m") or a
	// bare number of seconds.
	Interval string `yaml:"interval,omitempty" toml:"interval"`

	Server   *FileServerConfig   `yaml:"server,omitempty" toml:"server"`
	Resolver *FileResolverConfig `yaml:"resolver,omitempty" toml:"resolver"`

	Provider *FileProviderConfig `yaml:"provider,omitempty" toml:"provider"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text
}

// FileServerConfig holds health/metrics server settings.
type FileServerConfig struct {
	Port int `yaml:"port,omitempty" toml:"port"`
}

// FileResolverConfig holds external IP resolver settings.
type FileResolverConfig struct {
	EndpointsIPv4 []string `yaml:"endpoints_ipv4,omitempty" toml:"endpoints_ipv4"`
	EndpointsIPv6 []string `yaml:"endpoints_ipv6,omitempty" toml:"endpoints_ipv6"`
	Timeout       string   `yaml:"timeout,omitempty" toml:"timeout"`
}

// FileProviderConfig holds the DNS backend configuration. Exactly one
// sub-block must be present.
type FileProviderConfig struct {
	Cloudflare *cloudflare.Config `yaml:"cloudflare,omitempty" toml:"cloudflare"`
	RFC2136    *rfc2136.Config    `yaml:"rfc2136,omitempty" toml:"rfc2136"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable
// values. Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateEnvVars interpolates environment variables in all string
// fields of the file config.
func (c *FileConfig) interpolateEnvVars() {
	c.Domain = InterpolateEnvVars(c.Domain)
	c.Interval = InterpolateEnvVars(c.Interval)

	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}

	if c.Resolver != nil {
		for i := range c.Resolver.EndpointsIPv4 {
			c.Resolver.EndpointsIPv4[i] = InterpolateEnvVars(c.Resolver.EndpointsIPv4[i])
		}
		for i := range c.Resolver.EndpointsIPv6 {
			c.Resolver.EndpointsIPv6[i] = InterpolateEnvVars(c.Resolver.EndpointsIPv6[i])
		}
		c.Resolver.Timeout = InterpolateEnvVars(c.Resolver.Timeout)
	}

	if c.Provider != nil {
		if cf := c.Provider.Cloudflare; cf != nil {
			cf.APIToken = InterpolateEnvVars(cf.APIToken)
			cf.Zone = InterpolateEnvVars(cf.Zone)
			cf.APIEndpoint = InterpolateEnvVars(cf.APIEndpoint)
		}
		if r := c.Provider.RFC2136; r != nil {
			r.Server = InterpolateEnvVars(r.Server)
			r.Zone = InterpolateEnvVars(r.Zone)
			r.TSIGKeyName = InterpolateEnvVars(r.TSIGKeyName)
			r.TSIGSecret = InterpolateEnvVars(r.TSIGSecret)
			r.TSIGAlgorithm = InterpolateEnvVars(r.TSIGAlgorithm)
		}
	}
}

// LoadFile reads and parses a configuration file. Files ending in .toml are
// parsed as TOML, everything else as YAML. Environment variables in ${VAR}
// format are interpolated after parsing.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// parseInterval accepts a Go duration string or a bare number of seconds.
func parseInterval(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	return 0, fmt.Errorf("invalid duration %q (use format like 60s, 5m)", s)
}

// ToConfig converts the file config to the runtime Config, applying
// defaults. Values from the file take precedence over defaults; environment
// overrides are applied later by Load.
func (c *FileConfig) ToConfig() (*Config, error) {
	cfg := &Config{
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
		Domain:     c.Domain,
		IPv4:       DefaultIPv4,
		IPv6:       DefaultIPv6,
		Interval:   DefaultInterval,
		HealthPort: DefaultHealthPort,
	}

	if c.Logging != nil {
		if c.Logging.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Logging.Level)
		}
		if c.Logging.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Logging.Format)
		}
	}

	if c.IPv4 != nil {
		cfg.IPv4 = *c.IPv4
	}
	if c.IPv6 != nil {
		cfg.IPv6 = *c.IPv6
	}

	if c.Interval != "" {
		interval, err := parseInterval(c.Interval)
		if err != nil {
			return nil, fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = interval
	}

	if c.Server != nil && c.Server.Port > 0 {
		cfg.HealthPort = c.Server.Port
	}

	if c.Resolver != nil {
		cfg.EndpointsIPv4 = c.Resolver.EndpointsIPv4
		cfg.EndpointsIPv6 = c.Resolver.EndpointsIPv6
		if c.Resolver.Timeout != "" {
			timeout, err := parseInterval(c.Resolver.Timeout)
			if err != nil {
				return nil, fmt.Errorf("resolver.timeout: %w", err)
			}
			cfg.ResolverTimeout = timeout
		}
	}

	if c.Provider != nil {
		cfg.Cloudflare = c.Provider.Cloudflare
		cfg.RFC2136 = c.Provider.RFC2136
	}

	return cfg, nil
}
