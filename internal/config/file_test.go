package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeTempConfig(t, "config.yml", `
domain: home.example.com
ipv6: true
interval: 5m
logging:
  level: debug
  format: text
server:
  port: 9090
provider:
  rfc2136:
    server: udp://192.0.2.53:53
    zone: example.com
    tsig_key_name: anchor-key.
    tsig_secret: c2VjcmV0
`)

	fileCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	cfg, err := fileCfg.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig failed: %v", err)
	}

	if cfg.Domain != "home.example.com" {
		t.Errorf("Domain = %q", cfg.Domain)
	}
	if !cfg.IPv4 {
		t.Error("IPv4 should default to true")
	}
	if !cfg.IPv6 {
		t.Error("IPv6 = false, want true from file")
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want 5m", cfg.Interval)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Errorf("logging = %s/%s, want debug/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.HealthPort != 9090 {
		t.Errorf("HealthPort = %d, want 9090", cfg.HealthPort)
	}
	if cfg.RFC2136 == nil {
		t.Fatal("RFC2136 provider config missing")
	}
	if cfg.RFC2136.Server != "udp://192.0.2.53:53" {
		t.Errorf("RFC2136.Server = %q", cfg.RFC2136.Server)
	}
	if cfg.Cloudflare != nil {
		t.Error("Cloudflare config should be nil")
	}
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeTempConfig(t, "config.toml", `
domain = "home.example.com"
interval = "90s"

[provider.cloudflare]
api_token = "tok"
zone = "example.com"
`)

	fileCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	cfg, err := fileCfg.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig failed: %v", err)
	}

	if cfg.Domain != "home.example.com" {
		t.Errorf("Domain = %q", cfg.Domain)
	}
	if cfg.Interval != 90*time.Second {
		t.Errorf("Interval = %v, want 90s", cfg.Interval)
	}
	if cfg.Cloudflare == nil || cfg.Cloudflare.APIToken != "tok" {
		t.Errorf("Cloudflare config not loaded: %+v", cfg.Cloudflare)
	}
}

func TestLoadFile_BareSecondsInterval(t *testing.T) {
	path := writeTempConfig(t, "config.yml", `
domain: home.example.com
interval: "60"
provider:
  cloudflare:
    api_token: tok
    zone: example.com
`)

	fileCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	cfg, err := fileCfg.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig failed: %v", err)
	}
	if cfg.Interval != 60*time.Second {
		t.Errorf("Interval = %v, want 60s", cfg.Interval)
	}
}

func TestLoadFile_EnvInterpolation(t *testing.T) {
	t.Setenv("TEST_ANCHOR_TOKEN", "secret-token")
	t.Setenv("TEST_ANCHOR_ZONE", "")

	path := writeTempConfig(t, "config.yml", `
domain: home.example.com
provider:
  cloudflare:
    api_token: ${TEST_ANCHOR_TOKEN}
    zone: ${TEST_ANCHOR_ZONE:-example.com}
`)

	fileCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if got := fileCfg.Provider.Cloudflare.APIToken; got != "secret-token" {
		t.Errorf("APIToken = %q, want interpolated secret-token", got)
	}
	if got := fileCfg.Provider.Cloudflare.Zone; got != "example.com" {
		t.Errorf("Zone = %q, want default example.com", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFile_MalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "config.yml", "domain: [unterminated")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestConfig_Families(t *testing.T) {
	tests := []struct {
		name string
		ipv4 bool
		ipv6 bool
		want int
	}{
		{"v4 only", true, false, 1},
		{"v6 only", false, true, 1},
		{"both", true, true, 2},
		{"none", false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{IPv4: tt.ipv4, IPv6: tt.ipv6}
			if got := len(cfg.Families()); got != tt.want {
				t.Errorf("len(Families()) = %d, want %d", got, tt.want)
			}
		})
	}
}
