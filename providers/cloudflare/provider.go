package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"sync"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
)

// Provider implements provider.Provider against the Cloudflare DNS API.
type Provider struct {
	name   string
	zone   string
	client *Client
	logger *slog.Logger

	// zoneID is resolved lazily on first use and cached. A failed lookup
	// is not cached so transient API faults heal on the next pass.
	zoneMu sync.Mutex
	zoneID string
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

// WithProviderHTTPClient sets a custom HTTP client for API calls.
func WithProviderHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		if p.client != nil && httpClient != nil {
			p.client.httpClient = httpClient
		}
	}
}

// New creates a new Cloudflare provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		zone:   strings.TrimSuffix(config.Zone, "."),
		logger: slog.Default(),
	}

	clientOpts := []ClientOption{}
	if config.APIEndpoint != "" {
		clientOpts = append(clientOpts, WithAPIEndpoint(config.APIEndpoint))
	}
	p.client = NewClient(config.APIToken, clientOpts...)

	for _, opt := range opts {
		opt(p)
	}
	p.client.logger = p.logger

	return p, nil
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "cloudflare".
func (p *Provider) Type() string {
	return "cloudflare"
}

// Zone returns the configured zone name.
func (p *Provider) Zone() string {
	return p.zone
}

// Ping verifies the API token is accepted by the backend.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.VerifyToken(ctx); err != nil {
		return provider.WrapError(p.name, "ping", err)
	}
	return nil
}

// Fetch reads the current address of the record for (domain, family).
// A missing record yields an absent snapshot with no error.
func (p *Provider) Fetch(ctx context.Context, domain string, family provider.Family) (provider.Snapshot, error) {
	record, err := p.findRecord(ctx, domain, family)
	if err != nil {
		return provider.Snapshot{}, provider.WrapError(p.name, "fetch", err)
	}

	if record == nil {
		return provider.Snapshot{}, nil
	}

	addr, err := netip.ParseAddr(record.Content)
	if err != nil {
		return provider.Snapshot{}, provider.WrapError(p.name, "fetch",
			fmt.Errorf("record %s holds malformed address %q: %w", record.Name, record.Content, err))
	}

	return provider.Observed(addr.Unmap()), nil
}

// Apply rewrites the content of the existing record for (domain, family).
// The record must already exist: a missing record is a permanent error,
// never a create.
func (p *Provider) Apply(ctx context.Context, domain string, family provider.Family, addr netip.Addr, prev provider.Snapshot) error {
	if !prev.Present {
		return provider.WrapError(p.name, "apply",
			fmt.Errorf("%w: no %s record for %s", provider.ErrRecordAbsent, family.RecordType(), domain))
	}

	if !family.Matches(addr) {
		return provider.WrapError(p.name, "apply",
			fmt.Errorf("address %s does not belong to family %s", addr, family))
	}

	record, err := p.findRecord(ctx, domain, family)
	if err != nil {
		return provider.WrapError(p.name, "apply", err)
	}

	if record == nil {
		// Deleted between fetch and apply.
		return provider.WrapError(p.name, "apply",
			fmt.Errorf("%w: no %s record for %s", provider.ErrRecordAbsent, family.RecordType(), domain))
	}

	if err := p.client.UpdateRecord(ctx, record, addr.Unmap().String()); err != nil {
		return provider.WrapError(p.name, "apply", err)
	}

	p.logger.Info("dns record updated",
		slog.String("domain", domain),
		slog.String("type", family.RecordType()),
		slog.String("old", prev.Addr.String()),
		slog.String("new", addr.String()),
	)

	return nil
}

// findRecord resolves the zone ID and locates the record for the domain and
// family, or nil when it does not exist.
func (p *Provider) findRecord(ctx context.Context, domain string, family provider.Family) (*dnsRecord, error) {
	zoneID, err := p.getZoneID(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(domain, ".")
	return p.client.FindRecord(ctx, zoneID, family.RecordType(), name)
}

// getZoneID returns the cached zone ID, resolving it on first use.
func (p *Provider) getZoneID(ctx context.Context) (string, error) {
	p.zoneMu.Lock()
	defer p.zoneMu.Unlock()

	if p.zoneID != "" {
		return p.zoneID, nil
	}

	zoneID, err := p.client.GetZoneID(ctx, p.zone)
	if err != nil {
		return "", err
	}

	p.zoneID = zoneID
	return zoneID, nil
}

// Verify interface compliance at compile time.
var _ provider.Provider = (*Provider)(nil)
