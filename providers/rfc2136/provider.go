package rfc2136

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
)

// Provider implements provider.Provider against an RFC 2136 server.
type Provider struct {
	name   string
	client *dnsupdate.Client
	logger *slog.Logger
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithLogger sets a custom logger for the provider.
func WithLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a new RFC 2136 provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	client, err := dnsupdate.NewClient(config.ToDNSUpdateConfig(), dnsupdate.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("creating dnsupdate client: %w", err)
	}
	p.client = client

	return p, nil
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "rfc2136".
func (p *Provider) Type() string {
	return "rfc2136"
}

// Zone returns the configured DNS zone in FQDN form.
func (p *Provider) Zone() string {
	return p.client.Zone()
}

// Ping checks connectivity to the DNS server via a SOA query.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return provider.WrapError(p.name, "ping", classify(err))
	}
	return nil
}

// Fetch reads the current address of the family's RRset for domain. An
// empty or NXDOMAIN answer yields an absent snapshot with no error.
func (p *Provider) Fetch(ctx context.Context, domain string, family provider.Family) (provider.Snapshot, error) {
	qtype, err := queryType(family)
	if err != nil {
		return provider.Snapshot{}, provider.WrapError(p.name, "fetch", err)
	}

	records, err := p.client.Query(ctx, domain, qtype)
	if err != nil {
		return provider.Snapshot{}, provider.WrapError(p.name, "fetch", classify(err))
	}

	if len(records) == 0 {
		return provider.Snapshot{}, nil
	}

	snap := provider.Observed(records[0].Addr)
	if len(records) > 1 {
		snap.Multiple = true
		p.logger.Warn("rrset holds multiple addresses, using first",
			slog.String("domain", domain),
			slog.String("family", string(family)),
			slog.Int("count", len(records)),
		)
	}

	return snap, nil
}

// Apply replaces the existing RRset for domain with addr in a single signed
// UPDATE. The record must already exist: applying against an absent snapshot
// is a permanent error, never a create.
func (p *Provider) Apply(ctx context.Context, domain string, family provider.Family, addr netip.Addr, prev provider.Snapshot) error {
	if !prev.Present {
		return provider.WrapError(p.name, "apply",
			fmt.Errorf("%w: no %s record for %s", provider.ErrRecordAbsent, family.RecordType(), domain))
	}

	qtype, err := queryType(family)
	if err != nil {
		return provider.WrapError(p.name, "apply", err)
	}

	if !family.Matches(addr) {
		return provider.WrapError(p.name, "apply",
			fmt.Errorf("address %s does not belong to family %s", addr, family))
	}

	record := dnsupdate.Record{
		Name: dns.Fqdn(domain),
		Type: qtype,
		TTL:  p.client.TTL(),
		Addr: addr,
	}

	// The prerequisite asserts the entire RRset (RFC 2136, section 3.2.5).
	// A single-record assertion against a larger set fails with NXRRSET on
	// every attempt, so in that case the replace runs unguarded and
	// collapses the set to one record.
	var prevRecord *dnsupdate.Record
	if !prev.Multiple {
		prevRecord = &dnsupdate.Record{
			Name: dns.Fqdn(domain),
			Type: qtype,
			TTL:  p.client.TTL(),
			Addr: prev.Addr,
		}
	}

	if err := p.client.Replace(ctx, record, prevRecord); err != nil {
		return provider.WrapError(p.name, "apply", classify(err))
	}

	p.logger.Info("dns record replaced",
		slog.String("domain", domain),
		slog.String("type", family.RecordType()),
		slog.String("old", prev.Addr.String()),
		slog.String("new", addr.String()),
	)

	return nil
}

// queryType maps an address family to its DNS record type.
func queryType(family provider.Family) (uint16, error) {
	switch family {
	case provider.FamilyIPv4:
		return dns.TypeA, nil
	case provider.FamilyIPv6:
		return dns.TypeAAAA, nil
	default:
		return 0, fmt.Errorf("unsupported address family %q", family)
	}
}

// classify maps dnsupdate sentinel errors onto the shared provider error
// taxonomy so callers can tell permanent rejections from transient faults.
func classify(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, dnsupdate.ErrVerificationFailed):
		return fmt.Errorf("%w: %w", provider.ErrTSIGVerification, err)

	case errors.Is(err, dnsupdate.ErrNotAuth):
		return fmt.Errorf("%w: %w", provider.ErrUnauthorized, err)

	case errors.Is(err, dnsupdate.ErrRefused):
		return fmt.Errorf("%w: %w", provider.ErrRefused, err)

	case errors.Is(err, dnsupdate.ErrZoneMismatch):
		return fmt.Errorf("%w: %w", provider.ErrZoneInvalid, err)

	case errors.Is(err, dnsupdate.ErrServerFailure),
		errors.Is(err, dnsupdate.ErrConnectionFailed):
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)

	default:
		// Prerequisite races, timeouts and other transport faults stay
		// transient and are retried on the next pass.
		return err
	}
}

// Verify interface compliance at compile time.
var _ provider.Provider = (*Provider)(nil)
