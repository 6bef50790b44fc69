package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"

	"gitlab.bluewillows.net/root/dnsanchor/internal/metrics"
	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
)

// Resolver discovers the machine's current external address for a family.
// Satisfied by ipresolve.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, family provider.Family) (netip.Addr, error)
}

// Reconciler drives one domain towards its current external address across
// the managed address families. Each pass is stateless: the published record
// is re-fetched every time, so manual DNS edits are picked up and corrected
// on the next pass.
type Reconciler struct {
	resolver Resolver
	provider provider.Provider
	domain   string
	families []provider.Family
	logger   *slog.Logger
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Reconciler for the given domain and families.
func New(resolver Resolver, prov provider.Provider, domain string, families []provider.Family, opts ...Option) (*Reconciler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if prov == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	if len(families) == 0 {
		return nil, fmt.Errorf("at least one address family is required")
	}

	r := &Reconciler{
		resolver: resolver,
		provider: prov,
		domain:   domain,
		families: families,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Reconcile runs one pass: every managed family is reconciled concurrently,
// and the pass completes when all families have finished. A failure in one
// family never blocks the other.
func (r *Reconciler) Reconcile(ctx context.Context) *Result {
	result := NewResult()
	result.Families = make([]FamilyResult, len(r.families))

	r.logger.Debug("starting reconciliation pass",
		slog.String("domain", r.domain),
		slog.Int("families", len(r.families)),
	)

	var wg sync.WaitGroup
	for i, family := range r.families {
		i, family := i, family
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Families[i] = r.reconcileFamily(ctx, family)
		}()
	}
	wg.Wait()

	result.Complete()

	metrics.ReconcilePasses.Inc()
	metrics.PassDuration.Observe(result.Duration().Seconds())
	for _, fr := range result.Families {
		metrics.ReconcileOutcomes.WithLabelValues(string(fr.Family), string(fr.Outcome)).Inc()
	}

	return result
}

// reconcileFamily performs resolve, fetch, compare, apply for one family.
func (r *Reconciler) reconcileFamily(ctx context.Context, family provider.Family) FamilyResult {
	fr := FamilyResult{Family: family}

	addr, err := r.resolver.Resolve(ctx, family)
	if err != nil {
		metrics.ResolveFailures.WithLabelValues(string(family)).Inc()
		fr.Outcome = OutcomeFailed
		fr.Err = fmt.Errorf("resolving external address: %w", err)
		r.logFailure(fr)
		return fr
	}
	fr.Addr = addr

	snap, err := r.provider.Fetch(ctx, r.domain, family)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(r.provider.Name(), provider.Classify(err)).Inc()
		fr.Outcome = OutcomeFailed
		fr.Err = fmt.Errorf("fetching record: %w", err)
		r.logFailure(fr)
		return fr
	}
	fr.Previous = snap

	if !snap.Present {
		// The record must pre-exist; creation is out of scope and needs
		// an operator.
		err := provider.WrapError(r.provider.Name(), "fetch",
			fmt.Errorf("%w: no %s record for %s", provider.ErrRecordAbsent, family.RecordType(), r.domain))
		metrics.ProviderErrors.WithLabelValues(r.provider.Name(), provider.ClassPermanent).Inc()
		fr.Outcome = OutcomeFailed
		fr.Err = err
		r.logFailure(fr)
		return fr
	}

	if snap.Addr.Unmap() == addr.Unmap() {
		fr.Outcome = OutcomeUnchanged
		r.logger.Debug("record up to date",
			slog.String("domain", r.domain),
			slog.String("family", string(family)),
			slog.String("addr", addr.String()),
		)
		return fr
	}

	if err := r.provider.Apply(ctx, r.domain, family, addr, snap); err != nil {
		metrics.ProviderErrors.WithLabelValues(r.provider.Name(), provider.Classify(err)).Inc()
		fr.Outcome = OutcomeFailed
		fr.Err = fmt.Errorf("applying record: %w", err)
		r.logFailure(fr)
		return fr
	}

	fr.Outcome = OutcomeUpdated
	r.logger.Info("record updated",
		slog.String("domain", r.domain),
		slog.String("family", string(family)),
		slog.String("old", snap.Addr.String()),
		slog.String("new", addr.String()),
	)
	return fr
}

// logFailure logs permanent failures at Error since they need an operator,
// transient ones at Warn since the next pass retries.
func (r *Reconciler) logFailure(fr FamilyResult) {
	level := slog.LevelWarn
	if fr.Permanent() {
		level = slog.LevelError
	}
	r.logger.Log(context.Background(), level, "reconciliation failed",
		slog.String("domain", r.domain),
		slog.String("family", string(fr.Family)),
		slog.String("class", provider.Classify(fr.Err)),
		slog.String("error", fr.Err.Error()),
	)
}
