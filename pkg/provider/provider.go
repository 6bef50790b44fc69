// Package provider defines the interface that all DNS backends must implement.
package provider

import (
	"context"
	"net/netip"
)

// Family represents an IP address family and selects the DNS record type
// used for it.
type Family string

const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// RecordType returns the DNS record type for this family ("A" or "AAAA").
func (f Family) RecordType() string {
	if f == FamilyIPv6 {
		return "AAAA"
	}
	return "A"
}

// Matches reports whether addr belongs to this family.
// IPv4-mapped IPv6 addresses count as IPv4.
func (f Family) Matches(addr netip.Addr) bool {
	if f == FamilyIPv6 {
		return addr.Is6() && !addr.Is4In6()
	}
	return addr.Is4() || addr.Is4In6()
}

func (f Family) String() string {
	return string(f)
}

// Snapshot is the currently published value of a DNS record as observed by a
// Fetch, or Absent when no such record exists.
type Snapshot struct {
	Addr    netip.Addr
	Present bool

	// Multiple reports that the observed RRset held more than one record;
	// Addr is the first of them. Backends that guard updates with a
	// prerequisite on the previous value cannot assert a set they only
	// partially observed.
	Multiple bool
}

// Absent returns a Snapshot for a record that does not exist.
func Absent() Snapshot {
	return Snapshot{}
}

// Observed returns a Snapshot holding the given address.
func Observed(addr netip.Addr) Snapshot {
	return Snapshot{Addr: addr, Present: true}
}

// Provider defines the interface for DNS backends.
// Each backend (Cloudflare, RFC 2136) must satisfy this interface.
type Provider interface {
	// Name returns the provider instance name (e.g., "cloudflare").
	Name() string

	// Type returns the provider type (e.g., "cloudflare", "rfc2136").
	Type() string

	// Ping checks connectivity to the backend.
	Ping(ctx context.Context) error

	// Fetch returns the current value of the record for (domain, family).
	// It must not mutate any record.
	Fetch(ctx context.Context, domain string, family Family) (Snapshot, error)

	// Apply sets the record for (domain, family) to addr. The record must
	// already exist: backends never create records, only replace the value
	// of an existing one. prev is the snapshot observed before the update
	// and may be used as a prerequisite to guard against blind overwrite.
	Apply(ctx context.Context, domain string, family Family, addr netip.Addr, prev Snapshot) error
}
