// Package rfc2136 implements the provider interface for authoritative DNS
// servers that accept RFC 2136 dynamic updates authenticated with TSIG
// (BIND, Knot, PowerDNS and friends).
//
// The provider reads the current address with a plain DNS query against the
// authoritative server and rewrites it with a single signed UPDATE message
// that replaces the whole RRset. It never creates records: the record for
// the managed domain must already exist in the zone.
package rfc2136
