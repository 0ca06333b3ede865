package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_Valid(t *testing.T) {
	cfg := AuthConfig{Secret: "s3cret", TokenTTLMinutes: 60}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid auth config should pass: %v", err)
	}
	if got := cfg.TokenTTL(); got != time.Hour {
		t.Errorf("ttl = %v, want 1h", got)
	}
}

func TestAuthConfig_EmptySecret(t *testing.T) {
	cfg := AuthConfig{Secret: "", TokenTTLMinutes: 60}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("empty secret should fail")
	}
	if !strings.Contains(err.Error(), "secret is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_ZeroTTLDefaults(t *testing.T) {
	cfg := AuthConfig{Secret: "s3cret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero ttl should default: %v", err)
	}
	if cfg.TokenTTLMinutes != 12*60 {
		t.Errorf("ttl minutes = %d, want %d", cfg.TokenTTLMinutes, 12*60)
	}
}

func TestAuthConfig_NegativeTTL(t *testing.T) {
	cfg := AuthConfig{Secret: "s3cret", TokenTTLMinutes: -5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative ttl should fail")
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	cfg := HTTPConfig{Port: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 0 should fail")
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 70000 should fail")
	}
	cfg.Port = 8080
	if err := cfg.Validate(); err != nil {
		t.Fatalf("port 8080 should pass: %v", err)
	}
	if cfg.Address() != ":8080" {
		t.Errorf("address = %q", cfg.Address())
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Secret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch the empty secret")
	}
	cfg.Auth.Secret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with secret should pass: %v", err)
	}
}
