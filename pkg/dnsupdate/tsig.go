package dnsupdate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// TSIG is a stateless codec for RFC 8945 transaction signatures. It holds
// key material only; signing happens over message bytes at exchange time.
type TSIG struct {
	// Name is the key name in FQDN form (e.g., "anchor-key.").
	Name string

	// Secret is the base64-encoded shared secret.
	Secret string

	// Algorithm is the TSIG algorithm in miekg/dns form (e.g., dns.HmacSHA256).
	Algorithm string
}

// tsigFudge is the permitted clock skew, in seconds, between signing and
// verification.
const tsigFudge = 300

// NewTSIG creates a TSIG codec from the given parameters.
// The secret must be base64-encoded.
func NewTSIG(name, secret, algorithm string) (*TSIG, error) {
	if name == "" {
		return nil, errors.New("tsig key name is required")
	}
	name = dns.Fqdn(name)

	if _, err := base64.StdEncoding.DecodeString(secret); err != nil {
		return nil, fmt.Errorf("tsig secret is not valid base64: %w", err)
	}

	alg := normalizeAlgorithm(algorithm)
	if !isValidAlgorithm(alg) {
		return nil, fmt.Errorf("unsupported tsig algorithm: %s", algorithm)
	}

	return &TSIG{
		Name:      name,
		Secret:    secret,
		Algorithm: alg,
	}, nil
}

// TSIGFromConfig creates a TSIG codec from a Config.
func TSIGFromConfig(config *Config) (*TSIG, error) {
	return NewTSIG(config.TSIGKeyName, config.TSIGSecret, config.GetTSIGAlgorithm())
}

// ApplyToClient registers the shared secret with a dns.Client so that
// responses are verified against the same key.
func (t *TSIG) ApplyToClient(client *dns.Client) {
	client.TsigSecret = map[string]string{t.Name: t.Secret}
}

// ApplyToMessage appends the TSIG meta-record to a fully constructed message.
// The MAC itself is computed over the wire bytes when the message is sent.
func (t *TSIG) ApplyToMessage(msg *dns.Msg) {
	msg.SetTsig(t.Name, t.Algorithm, tsigFudge, time.Now().Unix())
}

// IsVerificationError reports whether err indicates a TSIG verification
// failure on a server response: a bad signature, an unknown key, an
// unsupported algorithm, or excessive time skew.
func IsVerificationError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, dns.ErrAuth) ||
		errors.Is(err, dns.ErrSig) ||
		errors.Is(err, dns.ErrTime) ||
		errors.Is(err, dns.ErrKey) ||
		errors.Is(err, dns.ErrKeyAlg) ||
		errors.Is(err, dns.ErrSecret)
}

// normalizeAlgorithm normalizes algorithm strings to miekg/dns format.
func normalizeAlgorithm(alg string) string {
	if alg == "" {
		return DefaultTSIGAlgorithm
	}

	normalized := strings.ToLower(strings.TrimSpace(alg))

	switch normalized {
	case "hmac-md5", "md5":
		return dns.HmacMD5
	case "hmac-sha256", "sha256":
		return dns.HmacSHA256
	case "hmac-sha512", "sha512":
		return dns.HmacSHA512
	default:
		return alg
	}
}

// isValidAlgorithm checks if the algorithm is supported.
func isValidAlgorithm(alg string) bool {
	switch alg {
	case dns.HmacMD5, dns.HmacSHA256, dns.HmacSHA512:
		return true
	default:
		return false
	}
}

// AlgorithmName returns a human-readable name for an algorithm.
func AlgorithmName(alg string) string {
	switch alg {
	case dns.HmacMD5:
		return "HMAC-MD5"
	case dns.HmacSHA256:
		return "HMAC-SHA256"
	case dns.HmacSHA512:
		return "HMAC-SHA512"
	default:
		return alg
	}
}
