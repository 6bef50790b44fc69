package dnsupdate

import (
	"fmt"
	"net/netip"

	"github.com/miekg/dns"
)

// Record represents an address record for RFC 2136 operations.
// Only A and AAAA records are handled; dnsanchor manages nothing else.
type Record struct {
	// Name is the DNS name, normalized to FQDN form with a trailing dot.
	Name string

	// Type is dns.TypeA or dns.TypeAAAA.
	Type uint16

	// TTL is the time-to-live in seconds.
	TTL uint32

	// Addr is the record's address value.
	Addr netip.Addr
}

// NewARecord creates an A record.
func NewARecord(name string, addr netip.Addr, ttl uint32) Record {
	return Record{Name: dns.Fqdn(name), Type: dns.TypeA, TTL: ttl, Addr: addr}
}

// NewAAAARecord creates an AAAA record.
func NewAAAARecord(name string, addr netip.Addr, ttl uint32) Record {
	return Record{Name: dns.Fqdn(name), Type: dns.TypeAAAA, TTL: ttl, Addr: addr}
}

// TypeString returns the string representation of the record type.
func (r Record) TypeString() string {
	if name, ok := dns.TypeToString[r.Type]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", r.Type)
}

// ToRR converts the Record to a dns.RR, validating that the address matches
// the record type.
func (r Record) ToRR() (dns.RR, error) {
	header := dns.RR_Header{
		Name:   dns.Fqdn(r.Name),
		Rrtype: r.Type,
		Class:  dns.ClassINET,
		Ttl:    r.TTL,
	}

	switch r.Type {
	case dns.TypeA:
		addr := r.Addr.Unmap()
		if !addr.Is4() {
			return nil, fmt.Errorf("invalid IPv4 address for A record: %s", r.Addr)
		}
		v4 := addr.As4()
		return &dns.A{Hdr: header, A: v4[:]}, nil

	case dns.TypeAAAA:
		if !r.Addr.Is6() || r.Addr.Is4In6() {
			return nil, fmt.Errorf("invalid IPv6 address for AAAA record: %s", r.Addr)
		}
		v6 := r.Addr.As16()
		return &dns.AAAA{Hdr: header, AAAA: v6[:]}, nil

	default:
		return nil, fmt.Errorf("unsupported record type: %s", r.TypeString())
	}
}

// RecordFromRR creates a Record from a dns.RR. Only A and AAAA resource
// records convert; anything else is an error.
func RecordFromRR(rr dns.RR) (Record, error) {
	header := rr.Header()
	record := Record{
		Name: header.Name,
		Type: header.Rrtype,
		TTL:  header.Ttl,
	}

	switch v := rr.(type) {
	case *dns.A:
		addr, ok := netip.AddrFromSlice(v.A)
		if !ok {
			return record, fmt.Errorf("malformed A rdata for %s", header.Name)
		}
		record.Addr = addr.Unmap()

	case *dns.AAAA:
		addr, ok := netip.AddrFromSlice(v.AAAA)
		if !ok {
			return record, fmt.Errorf("malformed AAAA rdata for %s", header.Name)
		}
		record.Addr = addr

	default:
		return record, fmt.Errorf("unsupported record type: %s", dns.TypeToString[header.Rrtype])
	}

	return record, nil
}
