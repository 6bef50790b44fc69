package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
domain: home.example.com
provider:
  cloudflare:
    api_token: tok
    zone: example.com
`

func TestLoad_Minimal(t *testing.T) {
	path := writeTempConfig(t, "config.yml", minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Domain != "home.example.com" {
		t.Errorf("Domain = %q", cfg.Domain)
	}
	if cfg.Interval != DefaultInterval {
		t.Errorf("Interval = %v, want default %v", cfg.Interval, DefaultInterval)
	}
	if !cfg.IPv4 || cfg.IPv6 {
		t.Errorf("families = v4:%v v6:%v, want defaults v4:true v6:false", cfg.IPv4, cfg.IPv6)
	}
	if cfg.ProviderType() != "cloudflare" {
		t.Errorf("ProviderType() = %q, want cloudflare", cfg.ProviderType())
	}
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeTempConfig(t, "config.yml", minimalYAML)
	t.Setenv("DNSANCHOR_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Domain != "home.example.com" {
		t.Errorf("Domain = %q", cfg.Domain)
	}
}

func TestLoad_NoPath(t *testing.T) {
	t.Setenv("DNSANCHOR_CONFIG", "")
	if _, err := Load(""); err == nil {
		t.Error("expected error when no config path is given")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "config.yml", minimalYAML)
	t.Setenv("DNSANCHOR_DOMAIN", "other.example.com")
	t.Setenv("DNSANCHOR_INTERVAL", "2m")
	t.Setenv("DNSANCHOR_IPV6", "true")
	t.Setenv("DNSANCHOR_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Domain != "other.example.com" {
		t.Errorf("Domain = %q, env override should win", cfg.Domain)
	}
	if cfg.Interval != 2*time.Minute {
		t.Errorf("Interval = %v, want 2m", cfg.Interval)
	}
	if !cfg.IPv6 {
		t.Error("IPv6 override not applied")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_SecretFromFile(t *testing.T) {
	secretPath := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(secretPath, []byte("file-token\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	path := writeTempConfig(t, "config.yml", minimalYAML)
	t.Setenv("DNSANCHOR_API_TOKEN_FILE", secretPath)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cloudflare.APIToken != "file-token" {
		t.Errorf("APIToken = %q, want trimmed file contents", cfg.Cloudflare.APIToken)
	}
}

func TestLoad_BothProviders(t *testing.T) {
	path := writeTempConfig(t, "config.yml", `
domain: home.example.com
provider:
  cloudflare:
    api_token: tok
    zone: example.com
  rfc2136:
    server: 192.0.2.1
    zone: example.com
    tsig_key_name: anchor-key.
    tsig_secret: c2VjcmV0
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for two provider blocks")
	}
	if !strings.Contains(err.Error(), "exactly one provider block") {
		t.Errorf("error = %v, want exactly-one-provider message", err)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	path := writeTempConfig(t, "config.yml", minimalYAML)
	t.Setenv("DNSANCHOR_HEALTH_PORT", "not-a-port")

	if _, err := Load(path); err == nil {
		t.Error("expected error for bad DNSANCHOR_HEALTH_PORT")
	}
}
