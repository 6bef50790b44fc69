// Package dnsupdate implements the RFC 2136 dynamic update protocol with
// TSIG message authentication for dnsanchor's rfc2136 provider.
//
// The package is split into a stateless TSIG codec (tsig.go), record
// conversion helpers (record.go), and a Client (client.go) that builds,
// signs, and exchanges UPDATE and QUERY messages with an authoritative
// server over UDP or TCP.
package dnsupdate
