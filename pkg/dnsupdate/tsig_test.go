package dnsupdate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/miekg/dns"
)

func TestNewTSIG(t *testing.T) {
	tests := []struct {
		name      string
		keyName   string
		secret    string
		algorithm string
		wantErr   bool
	}{
		{"valid sha256", "anchor-key", "c2VjcmV0", "hmac-sha256", false},
		{"valid sha512", "anchor-key.", "c2VjcmV0", "hmac-sha512", false},
		{"valid md5 legacy", "anchor-key", "c2VjcmV0", "hmac-md5", false},
		{"empty name", "", "c2VjcmV0", "hmac-sha256", true},
		{"invalid base64", "anchor-key", "not base64!!!", "hmac-sha256", true},
		{"unsupported algorithm", "anchor-key", "c2VjcmV0", "hmac-sha1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tsig, err := NewTSIG(tt.keyName, tt.secret, tt.algorithm)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tsig.Name != "anchor-key." {
				t.Errorf("Name = %q, want anchor-key. (FQDN normalized)", tsig.Name)
			}
		})
	}
}

func TestTSIG_ApplyToClient(t *testing.T) {
	tsig, err := NewTSIG("anchor-key", "c2VjcmV0", "hmac-sha256")
	if err != nil {
		t.Fatalf("NewTSIG failed: %v", err)
	}

	client := &dns.Client{}
	tsig.ApplyToClient(client)

	if got := client.TsigSecret["anchor-key."]; got != "c2VjcmV0" {
		t.Errorf("TsigSecret[anchor-key.] = %q, want c2VjcmV0", got)
	}
}

func TestTSIG_ApplyToMessage(t *testing.T) {
	tsig, err := NewTSIG("anchor-key", "c2VjcmV0", "hmac-sha256")
	if err != nil {
		t.Fatalf("NewTSIG failed: %v", err)
	}

	msg := new(dns.Msg)
	msg.SetUpdate("example.com.")
	tsig.ApplyToMessage(msg)

	rr := msg.IsTsig()
	if rr == nil {
		t.Fatal("expected TSIG record on message")
	}
	if rr.Hdr.Name != "anchor-key." {
		t.Errorf("TSIG key name = %q, want anchor-key.", rr.Hdr.Name)
	}
	if rr.Algorithm != dns.HmacSHA256 {
		t.Errorf("TSIG algorithm = %q, want %q", rr.Algorithm, dns.HmacSHA256)
	}
}

func TestIsVerificationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad mac", dns.ErrAuth, true},
		{"bad signature", dns.ErrSig, true},
		{"time skew", dns.ErrTime, true},
		{"unknown key", dns.ErrKey, true},
		{"bad key algorithm", dns.ErrKeyAlg, true},
		{"no secret", dns.ErrSecret, true},
		{"wrapped", fmt.Errorf("exchange: %w", dns.ErrAuth), true},
		{"id mismatch", dns.ErrId, false},
		{"other", errors.New("timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVerificationError(tt.err); got != tt.want {
				t.Errorf("IsVerificationError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestAlgorithmName(t *testing.T) {
	if got := AlgorithmName(dns.HmacSHA256); got != "HMAC-SHA256" {
		t.Errorf("AlgorithmName = %q, want HMAC-SHA256", got)
	}
	if got := AlgorithmName("custom."); got != "custom." {
		t.Errorf("AlgorithmName passthrough = %q, want custom.", got)
	}
}
