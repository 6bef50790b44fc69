package ipresolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/provider"
)

// echoServer returns an httptest server that answers every request with body.
func echoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolver_Resolve_Success(t *testing.T) {
	server := echoServer(t, http.StatusOK, "192.0.2.1\n")

	r := New(WithEndpoints(provider.FamilyIPv4, []string{server.URL}))
	addr, err := r.Resolve(context.Background(), provider.FamilyIPv4)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if addr.String() != "192.0.2.1" {
		t.Errorf("addr = %s, want 192.0.2.1", addr)
	}
}

func TestResolver_Resolve_TrimsBody(t *testing.T) {
	server := echoServer(t, http.StatusOK, "  2001:db8::1  \nsecond line ignored\n")

	r := New(WithEndpoints(provider.FamilyIPv6, []string{server.URL}))
	addr, err := r.Resolve(context.Background(), provider.FamilyIPv6)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if addr.String() != "2001:db8::1" {
		t.Errorf("addr = %s, want 2001:db8::1", addr)
	}
}

func TestResolver_Resolve_FallsThroughOnError(t *testing.T) {
	bad := echoServer(t, http.StatusInternalServerError, "oops")
	malformed := echoServer(t, http.StatusOK, "not an address\n")
	good := echoServer(t, http.StatusOK, "198.51.100.7\n")

	r := New(WithEndpoints(provider.FamilyIPv4, []string{bad.URL, malformed.URL, good.URL}))
	addr, err := r.Resolve(context.Background(), provider.FamilyIPv4)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if addr.String() != "198.51.100.7" {
		t.Errorf("addr = %s, want 198.51.100.7", addr)
	}
}

func TestResolver_Resolve_WrongFamilyFallsThrough(t *testing.T) {
	v6 := echoServer(t, http.StatusOK, "2001:db8::1\n")
	v4 := echoServer(t, http.StatusOK, "203.0.113.9\n")

	r := New(WithEndpoints(provider.FamilyIPv4, []string{v6.URL, v4.URL}))
	addr, err := r.Resolve(context.Background(), provider.FamilyIPv4)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if addr.String() != "203.0.113.9" {
		t.Errorf("addr = %s, want 203.0.113.9", addr)
	}
}

func TestResolver_Resolve_Exhausted(t *testing.T) {
	bad1 := echoServer(t, http.StatusServiceUnavailable, "")
	bad2 := echoServer(t, http.StatusOK, "garbage\n")

	r := New(WithEndpoints(provider.FamilyIPv4, []string{bad1.URL, bad2.URL}))
	_, err := r.Resolve(context.Background(), provider.FamilyIPv4)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("error %v should match ErrExhausted", err)
	}
}

func TestResolver_Resolve_ContextCanceled(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(slow.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := New(WithEndpoints(provider.FamilyIPv4, []string{slow.URL, slow.URL}))
	_, err := r.Resolve(ctx, provider.FamilyIPv4)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error %v should be context.DeadlineExceeded", err)
	}
}

func TestResolver_Resolve_NoEndpoints(t *testing.T) {
	r := New(WithEndpoints(provider.FamilyIPv4, nil))
	// Defaults still apply when override is empty; drop them directly instead.
	r.endpoints[provider.FamilyIPv4] = nil

	_, err := r.Resolve(context.Background(), provider.FamilyIPv4)
	if err == nil {
		t.Fatal("expected error for missing endpoints")
	}
}

func TestResolver_Resolve_Unmaps4In6(t *testing.T) {
	server := echoServer(t, http.StatusOK, "::ffff:192.0.2.55\n")

	r := New(WithEndpoints(provider.FamilyIPv4, []string{server.URL}))
	addr, err := r.Resolve(context.Background(), provider.FamilyIPv4)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if addr.String() != "192.0.2.55" {
		t.Errorf("addr = %s, want 192.0.2.55", addr)
	}
}
