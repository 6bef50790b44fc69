package dnsupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miekg/dns"
)

// Sentinel errors for RFC 2136 operations.
var (
	// ErrQueryFailed is returned when a DNS QUERY exchange fails.
	ErrQueryFailed = errors.New("dns query failed")

	// ErrUpdateFailed is returned when the DNS UPDATE operation fails.
	ErrUpdateFailed = errors.New("dns update failed")

	// ErrConnectionFailed is returned when the server cannot be reached.
	ErrConnectionFailed = errors.New("connection to dns server failed")

	// ErrVerificationFailed is returned when the TSIG signature on a server
	// response does not verify under the configured key.
	ErrVerificationFailed = errors.New("response tsig verification failed")

	// ErrRefused is returned when the server refuses the update by policy.
	ErrRefused = errors.New("update refused by server")

	// ErrNotAuth is returned when the server is not authoritative for the
	// zone or rejected the signing key.
	ErrNotAuth = errors.New("server rejected update authorization")

	// ErrPrerequisiteFailed is returned when the update prerequisite no
	// longer holds, i.e. the record changed under us since the last fetch.
	ErrPrerequisiteFailed = errors.New("update prerequisite not satisfied")

	// ErrServerFailure is returned on SERVFAIL responses.
	ErrServerFailure = errors.New("server failure")

	// ErrZoneMismatch is returned when a record name is outside the
	// configured zone.
	ErrZoneMismatch = errors.New("record name does not match configured zone")
)

// Client exchanges TSIG-signed QUERY and UPDATE messages with one
// authoritative server.
type Client struct {
	config  *Config
	tsig    *TSIG
	logger  *slog.Logger
	network string
	addr    string
	udp     *dns.Client
	tcp     *dns.Client
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the DNS update client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new RFC 2136 dynamic update client.
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tsig, err := TSIGFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("invalid TSIG configuration: %w", err)
	}

	network, addr, err := ParseServerURI(config.Server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URI: %w", err)
	}

	c := &Client{
		config:  config,
		tsig:    tsig,
		logger:  slog.Default(),
		network: network,
		addr:    addr,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.udp = &dns.Client{Net: TransportUDP, Timeout: config.GetTimeout()}
	c.tcp = &dns.Client{Net: TransportTCP, Timeout: config.GetTimeout()}
	tsig.ApplyToClient(c.udp)
	tsig.ApplyToClient(c.tcp)

	c.logger.Debug("rfc2136 client initialized",
		slog.String("server", addr),
		slog.String("transport", network),
		slog.String("zone", config.GetZone()),
		slog.String("tsig_key", tsig.Name),
		slog.String("tsig_algorithm", AlgorithmName(tsig.Algorithm)),
	)

	return c, nil
}

// Zone returns the configured zone in FQDN form.
func (c *Client) Zone() string {
	return c.config.GetZone()
}

// Server returns the resolved server address.
func (c *Client) Server() string {
	return c.addr
}

// TTL returns the TTL applied to records written by Replace.
func (c *Client) TTL() uint32 {
	return c.config.GetTTL()
}

// Ping verifies connectivity to the server by querying the zone's SOA record.
func (c *Client) Ping(ctx context.Context) error {
	msg := new(dns.Msg)
	msg.SetQuestion(c.config.GetZone(), dns.TypeSOA)
	msg.RecursionDesired = false

	resp, err := c.exchange(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if resp.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("%w: server returned %s", ErrConnectionFailed, dns.RcodeToString[resp.Rcode])
	}

	return nil
}

// Query retrieves existing records of a given type for a name using a
// standard DNS query. NXDOMAIN and an empty answer section both yield an
// empty slice with no error; transport failures are errors.
func (c *Client) Query(ctx context.Context, name string, qtype uint16) ([]Record, error) {
	fqdn := dns.Fqdn(name)

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = false

	c.logger.Debug("querying dns records",
		slog.String("name", fqdn),
		slog.String("type", dns.TypeToString[qtype]),
	)

	resp, err := c.exchange(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	if resp.Rcode == dns.RcodeNameError {
		return []Record{}, nil
	}

	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: server returned %s", ErrQueryFailed, dns.RcodeToString[resp.Rcode])
	}

	records := make([]Record, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		record, err := RecordFromRR(rr)
		if err != nil {
			c.logger.Warn("failed to parse dns record",
				slog.String("rr", rr.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// Replace atomically replaces the RRset for (record.Name, record.Type) with
// the single given record, in one signed UPDATE message: delete the existing
// RRset, insert the new record.
//
// When prev is non-nil, a prerequisite asserts that the RRset still holds
// exactly the previously observed value, so a concurrent mutation makes the
// server reject the update with NXRRSET instead of being silently overwritten.
func (c *Client) Replace(ctx context.Context, record Record, prev *Record) error {
	if err := c.validateName(record.Name); err != nil {
		return err
	}

	rr, err := record.ToRR()
	if err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	msg := new(dns.Msg)
	msg.SetUpdate(c.config.GetZone())

	if prev != nil {
		prevRR, err := prev.ToRR()
		if err != nil {
			return fmt.Errorf("invalid prerequisite record: %w", err)
		}
		msg.Used([]dns.RR{prevRR})
	}

	msg.RemoveRRset([]dns.RR{rr})
	msg.Insert([]dns.RR{rr})

	c.tsig.ApplyToMessage(msg)

	c.logger.Debug("sending dns update",
		slog.String("name", record.Name),
		slog.String("type", record.TypeString()),
		slog.String("addr", record.Addr.String()),
		slog.Bool("prerequisite", prev != nil),
	)

	resp, err := c.exchange(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	return CheckResponse(resp)
}

// exchange sends a signed message and returns the verified response.
// UDP exchanges fall back to TCP when the response is truncated, per
// standard DNS transport rules.
func (c *Client) exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	client := c.udp
	if c.network == TransportTCP {
		client = c.tcp
	}

	resp, rtt, err := client.ExchangeContext(ctx, msg, c.addr)
	if err != nil {
		if IsVerificationError(err) {
			return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		}
		return nil, err
	}

	if resp.Truncated && c.network == TransportUDP {
		c.logger.Debug("response truncated, retrying over tcp",
			slog.String("server", c.addr),
		)
		resp, rtt, err = c.tcp.ExchangeContext(ctx, msg, c.addr)
		if err != nil {
			if IsVerificationError(err) {
				return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
			}
			return nil, err
		}
	}

	// The library only verifies a TSIG that is present on the reply. An
	// unsigned reply to a signed request is invalid (RFC 8945, section 5.4)
	// and must not be trusted, or a spoofed answer could pass as success.
	if msg.IsTsig() != nil && resp.IsTsig() == nil {
		return nil, fmt.Errorf("%w: reply carries no tsig record", ErrVerificationFailed)
	}

	c.logger.Debug("dns exchange complete",
		slog.String("server", c.addr),
		slog.Duration("rtt", rtt),
		slog.String("rcode", dns.RcodeToString[resp.Rcode]),
	)

	return resp, nil
}

// CheckResponse maps a DNS response code from an UPDATE exchange to an error.
func CheckResponse(resp *dns.Msg) error {
	if resp == nil {
		return fmt.Errorf("%w: no response from server", ErrUpdateFailed)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		return nil

	case dns.RcodeServerFailure:
		return ErrServerFailure

	case dns.RcodeRefused:
		return ErrRefused

	case dns.RcodeNotAuth:
		return ErrNotAuth

	case dns.RcodeNXRrset:
		return ErrPrerequisiteFailed

	case dns.RcodeNotZone:
		return ErrZoneMismatch

	default:
		return fmt.Errorf("%w: server returned %s", ErrUpdateFailed, dns.RcodeToString[resp.Rcode])
	}
}

// validateName checks that a record name falls within the configured zone.
func (c *Client) validateName(name string) error {
	if name == "" {
		return errors.New("record name is required")
	}

	fqdn := strings.ToLower(dns.Fqdn(name))
	zone := strings.ToLower(c.config.GetZone())
	if !strings.HasSuffix(fqdn, zone) {
		return fmt.Errorf("%w: %s not in zone %s", ErrZoneMismatch, fqdn, zone)
	}

	return nil
}

// Close releases any resources held by the client. Connections are not
// persistent, so this is a no-op.
func (c *Client) Close() error {
	return nil
}
