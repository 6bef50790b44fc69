package dnsupdate

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Default configuration values.
const (
	// DefaultPort is the standard DNS port.
	DefaultPort = "53"

	// DefaultTimeout is the default timeout for DNS exchanges.
	DefaultTimeout = 10 * time.Second

	// DefaultTTL is the TTL applied to records written by Replace.
	DefaultTTL = 60

	// DefaultTSIGAlgorithm is the default TSIG algorithm if none specified.
	DefaultTSIGAlgorithm = dns.HmacSHA256
)

// Transport names accepted in server URIs.
const (
	TransportUDP = "udp"
	TransportTCP = "tcp"
)

// Config holds RFC 2136 dynamic update client configuration.
type Config struct {
	// Server is the authoritative server URI. The scheme selects the
	// transport: "udp://host:port" or "tcp://host:port". Scheme defaults
	// to udp and port to 53 when omitted. IPv6 literals use brackets,
	// e.g. "udp://[2001:db8::1]:53".
	Server string

	// Zone is the DNS zone to update (required).
	Zone string

	// TSIGKeyName is the TSIG key name used to sign every message (required).
	TSIGKeyName string

	// TSIGSecret is the base64-encoded TSIG shared secret (required).
	TSIGSecret string

	// TSIGAlgorithm is the TSIG algorithm (default: hmac-sha256).
	// Supported: hmac-md5, hmac-sha256, hmac-sha512.
	TSIGAlgorithm string

	// Timeout bounds each DNS exchange (default: 10s).
	Timeout time.Duration

	// TTL is applied to records written by Replace (default: 60).
	TTL int
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server == "" {
		errs = append(errs, "server is required")
	} else if _, _, err := ParseServerURI(c.Server); err != nil {
		errs = append(errs, fmt.Sprintf("invalid server URI: %v", err))
	}

	if c.Zone == "" {
		errs = append(errs, "zone is required")
	}

	if c.TSIGKeyName == "" {
		errs = append(errs, "tsig key name is required")
	}

	if c.TSIGSecret == "" {
		errs = append(errs, "tsig secret is required")
	}

	if c.TSIGAlgorithm != "" {
		alg := c.GetTSIGAlgorithm()
		if alg != dns.HmacMD5 && alg != dns.HmacSHA256 && alg != dns.HmacSHA512 {
			errs = append(errs, fmt.Sprintf("unsupported tsig algorithm: %s (supported: hmac-md5, hmac-sha256, hmac-sha512)", c.TSIGAlgorithm))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if c.TTL < 0 {
		errs = append(errs, "ttl must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("dnsupdate config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetZone returns the zone in FQDN form with a trailing dot.
func (c *Config) GetZone() string {
	return dns.Fqdn(c.Zone)
}

// GetTimeout returns the configured timeout or the default.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// GetTTL returns the configured record TTL or the default.
func (c *Config) GetTTL() uint32 {
	if c.TTL > 0 {
		return uint32(c.TTL)
	}
	return DefaultTTL
}

// GetTSIGAlgorithm returns the TSIG algorithm in miekg/dns format.
func (c *Config) GetTSIGAlgorithm() string {
	if c.TSIGAlgorithm == "" {
		return DefaultTSIGAlgorithm
	}

	alg := strings.ToLower(strings.TrimSpace(c.TSIGAlgorithm))

	switch alg {
	case "hmac-md5", "md5", "hmac-md5.sig-alg.reg.int.":
		return dns.HmacMD5
	case "hmac-sha256", "sha256":
		return dns.HmacSHA256
	case "hmac-sha512", "sha512":
		return dns.HmacSHA512
	default:
		return alg // Validation will catch invalid values.
	}
}

// ParseServerURI splits a server URI into a transport network ("udp" or
// "tcp") and a host:port address suitable for dns.Client.Exchange.
//
// Accepted forms: "udp://host:port", "tcp://host:port", "host:port",
// "host", and IPv6 literals in brackets. Scheme defaults to udp, port to 53.
func ParseServerURI(uri string) (network, addr string, err error) {
	network = TransportUDP
	rest := uri

	switch {
	case strings.HasPrefix(uri, "udp://"):
		rest = strings.TrimPrefix(uri, "udp://")
	case strings.HasPrefix(uri, "tcp://"):
		network = TransportTCP
		rest = strings.TrimPrefix(uri, "tcp://")
	case strings.Contains(uri, "://"):
		return "", "", fmt.Errorf("unsupported scheme in %q (use udp:// or tcp://)", uri)
	}

	if rest == "" {
		return "", "", fmt.Errorf("empty server address in %q", uri)
	}

	host, port, splitErr := net.SplitHostPort(rest)
	if splitErr != nil {
		// No port present; net.SplitHostPort also fails for a bare IPv6
		// literal without brackets, which we reject as ambiguous.
		if strings.Count(rest, ":") > 0 && !strings.HasPrefix(rest, "[") {
			return "", "", fmt.Errorf("ambiguous address %q: IPv6 literals need brackets", rest)
		}
		host = strings.Trim(rest, "[]")
		port = DefaultPort
	}

	if host == "" {
		return "", "", fmt.Errorf("empty host in %q", uri)
	}

	return network, net.JoinHostPort(host, port), nil
}
