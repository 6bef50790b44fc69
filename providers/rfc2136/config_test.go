package rfc2136

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Server:      "udp://192.0.2.1:53",
		Zone:        "example.com",
		TSIGKeyName: "anchor-key.",
		TSIGSecret:  "c2VjcmV0",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing server", func(c *Config) { c.Server = "" }, "server is required"},
		{"missing zone", func(c *Config) { c.Zone = "" }, "zone is required"},
		{"missing key name", func(c *Config) { c.TSIGKeyName = "" }, "tsig_key_name is required"},
		{"missing secret", func(c *Config) { c.TSIGSecret = "" }, "tsig_secret is required"},
		{"negative ttl", func(c *Config) { c.TTL = -1 }, "ttl must be non-negative"},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, "timeout must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_ToDNSUpdateConfig_Defaults(t *testing.T) {
	cfg := Config{
		Server:      "192.0.2.1",
		Zone:        "example.com",
		TSIGKeyName: "anchor-key.",
		TSIGSecret:  "c2VjcmV0",
	}

	dc := cfg.ToDNSUpdateConfig()
	if dc.TTL != DefaultTTL {
		t.Errorf("TTL = %d, want %d", dc.TTL, DefaultTTL)
	}
	if dc.Timeout != DefaultTimeout*time.Second {
		t.Errorf("Timeout = %v, want %v", dc.Timeout, DefaultTimeout*time.Second)
	}
}

func TestConfig_ToDNSUpdateConfig_Explicit(t *testing.T) {
	cfg := Config{
		Server:      "tcp://192.0.2.1:5300",
		Zone:        "example.com",
		TSIGKeyName: "anchor-key.",
		TSIGSecret:  "c2VjcmV0",
		Timeout:     3,
		TTL:         300,
	}

	dc := cfg.ToDNSUpdateConfig()
	if dc.TTL != 300 {
		t.Errorf("TTL = %d, want 300", dc.TTL)
	}
	if dc.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", dc.Timeout)
	}
	if dc.Server != "tcp://192.0.2.1:5300" {
		t.Errorf("Server = %q", dc.Server)
	}
}
