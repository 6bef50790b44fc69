// Package reconciler implements the core loop that compares the machine's
// external address with the published DNS record and rewrites the record
// when they differ.
package reconciler

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
)

// Outcome is the per-family result of one reconciliation.
type Outcome string

const (
	// OutcomeUnchanged means the record already held the current address.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeUpdated means the record was rewritten to the current address.
	OutcomeUpdated Outcome = "updated"

	// OutcomeFailed means the family could not be reconciled.
	OutcomeFailed Outcome = "failed"
)

// FamilyResult holds the outcome of reconciling one address family.
type FamilyResult struct {
	// Family is the address family this result describes.
	Family provider.Family

	// Outcome classifies what happened.
	Outcome Outcome

	// Addr is the resolved external address, when resolution succeeded.
	Addr netip.Addr

	// Previous is the record value observed before any change.
	Previous provider.Snapshot

	// Err is set when Outcome is OutcomeFailed.
	Err error
}

// Permanent reports whether the failure will not clear without operator
// intervention.
func (fr FamilyResult) Permanent() bool {
	return fr.Outcome == OutcomeFailed && provider.IsPermanent(fr.Err)
}

// String returns a human-readable representation of the family result.
func (fr FamilyResult) String() string {
	switch fr.Outcome {
	case OutcomeFailed:
		return fmt.Sprintf("[%s] %s: %v (%s)", fr.Outcome, fr.Family, fr.Err, provider.Classify(fr.Err))
	case OutcomeUpdated:
		return fmt.Sprintf("[%s] %s: %s -> %s", fr.Outcome, fr.Family, fr.Previous.Addr, fr.Addr)
	default:
		return fmt.Sprintf("[%s] %s: %s", fr.Outcome, fr.Family, fr.Addr)
	}
}

// Result holds the complete result of one reconciliation pass.
type Result struct {
	// StartTime is when the pass started.
	StartTime time.Time

	// EndTime is when the pass completed.
	EndTime time.Time

	// Families holds one entry per managed address family.
	Families []FamilyResult
}

// NewResult creates a Result with the start time set to now.
func NewResult() *Result {
	return &Result{StartTime: time.Now()}
}

// Complete marks the pass finished with the end time set to now.
func (r *Result) Complete() {
	r.EndTime = time.Now()
}

// Duration returns the total pass duration.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// Failed returns the family results that failed.
func (r *Result) Failed() []FamilyResult {
	var failed []FamilyResult
	for _, fr := range r.Families {
		if fr.Outcome == OutcomeFailed {
			failed = append(failed, fr)
		}
	}
	return failed
}

// HasErrors reports whether any family failed.
func (r *Result) HasErrors() bool {
	return len(r.Failed()) > 0
}

// Updated returns the family results that rewrote the record.
func (r *Result) Updated() []FamilyResult {
	var updated []FamilyResult
	for _, fr := range r.Families {
		if fr.Outcome == OutcomeUpdated {
			updated = append(updated, fr)
		}
	}
	return updated
}

// Summary returns a one-line-per-family summary of the pass.
func (r *Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pass complete in %s", r.Duration().Round(time.Millisecond))
	for _, fr := range r.Families {
		fmt.Fprintf(&sb, "; %s", fr.String())
	}
	return sb.String()
}
