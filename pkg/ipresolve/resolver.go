// Package ipresolve determines the host's current public IP address by
// querying external IP-echo services over HTTP.
//
// Each endpoint must return status 200 with a valid IPv4 or IPv6 address as
// the first line of the response body. Endpoints are tried in order; the
// resolver falls through to the next endpoint on any failure and only fails
// once every endpoint has been exhausted.
package ipresolve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/httputil"
	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
)

// DefaultEndpoints are the IP-echo services queried when none are configured.
// The icanhazip hosts resolve to family-specific addresses, so each answers
// for exactly one family.
var (
	DefaultEndpointsIPv4 = []string{
		"https://ipv4.icanhazip.com",
		"https://api.ipify.org",
	}
	DefaultEndpointsIPv6 = []string{
		"https://ipv6.icanhazip.com",
		"https://api6.ipify.org",
	}
)

// DefaultEndpointTimeout bounds each individual endpoint request so one
// unreachable service cannot stall a reconciliation pass.
const DefaultEndpointTimeout = 10 * time.Second

// ErrExhausted is returned when every configured endpoint failed.
var ErrExhausted = errors.New("all ip lookup endpoints failed")

// Resolver looks up the host's public address for a given family.
type Resolver struct {
	endpoints       map[provider.Family][]string
	endpointTimeout time.Duration
	httpClient      *http.Client
	logger          *slog.Logger
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithEndpoints overrides the endpoint list for a family.
func WithEndpoints(family provider.Family, endpoints []string) Option {
	return func(r *Resolver) {
		if len(endpoints) > 0 {
			r.endpoints[family] = endpoints
		}
	}
}

// WithEndpointTimeout sets the per-endpoint request timeout.
func WithEndpointTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.endpointTimeout = timeout
		}
	}
}

// New creates a Resolver with the default endpoints.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		endpoints: map[provider.Family][]string{
			provider.FamilyIPv4: DefaultEndpointsIPv4,
			provider.FamilyIPv6: DefaultEndpointsIPv6,
		},
		endpointTimeout: DefaultEndpointTimeout,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.httpClient == nil {
		r.httpClient = httputil.NewClient(&httputil.ClientConfig{
			Timeout: r.endpointTimeout,
		})
	}

	return r
}

// Resolve returns the host's current public address for the given family.
// Endpoints are tried in order until one answers with a well-formed address
// of the requested family.
func (r *Resolver) Resolve(ctx context.Context, family provider.Family) (netip.Addr, error) {
	endpoints := r.endpoints[family]
	if len(endpoints) == 0 {
		return netip.Addr{}, fmt.Errorf("no ip lookup endpoints configured for %s", family)
	}

	var errs []error
	for _, endpoint := range endpoints {
		addr, err := r.lookup(ctx, endpoint, family)
		if err != nil {
			// A canceled pass should not burn through the remaining endpoints.
			if ctx.Err() != nil {
				return netip.Addr{}, ctx.Err()
			}
			r.logger.Debug("ip lookup endpoint failed, trying next",
				slog.String("endpoint", endpoint),
				slog.String("family", family.String()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", endpoint, err))
			continue
		}

		r.logger.Debug("resolved public address",
			slog.String("endpoint", endpoint),
			slog.String("family", family.String()),
			slog.String("address", addr.String()),
		)
		return addr, nil
	}

	return netip.Addr{}, fmt.Errorf("%w for %s: %w", ErrExhausted, family, errors.Join(errs...))
}

// lookup queries a single endpoint with a bounded timeout.
func (r *Resolver) lookup(ctx context.Context, endpoint string, family provider.Family) (netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, r.endpointTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("http request returned %s", resp.Status)
	}

	line, _ := bufio.NewReader(resp.Body).ReadString('\n')
	addr, err := netip.ParseAddr(strings.TrimSpace(line))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parsing address from response body: %w", err)
	}

	if !family.Matches(addr) {
		return netip.Addr{}, fmt.Errorf("endpoint returned %s address %s, wanted %s",
			otherFamily(family), addr, family)
	}

	return addr.Unmap(), nil
}

func otherFamily(f provider.Family) provider.Family {
	if f == provider.FamilyIPv4 {
		return provider.FamilyIPv6
	}
	return provider.FamilyIPv4
}
