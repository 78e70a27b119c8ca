package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CHANGE_FEED", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.RequestTimeout != 10*time.Second || cfg.ChangeFeed != ChangeFeedLocal {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if diff := cmp.Diff([]string{"*"}, cfg.AllowedOrigins); diff != "" {
		t.Errorf("AllowedOrigins (-want +got):\n%s", diff)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("TrustedProxies = %v, want none", cfg.TrustedProxies)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("PUBLIC_BASE_URL", "https://placar.example.com/")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("PIN_LOGIN_RATE", "1.5")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10, fd00::1/64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 9090 || cfg.RequestTimeout != 3*time.Second || cfg.PinLoginRate != 1.5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PublicBaseURL != "https://placar.example.com" {
		t.Errorf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if diff := cmp.Diff([]string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins); diff != "" {
		t.Errorf("AllowedOrigins (-want +got):\n%s", diff)
	}
	proxies := make([]string, 0, len(cfg.TrustedProxies))
	for _, p := range cfg.TrustedProxies {
		proxies = append(proxies, p.String())
	}
	if diff := cmp.Diff([]string{"10.0.0.0/8", "192.0.2.10/32", "fd00::/64"}, proxies); diff != "" {
		t.Errorf("TrustedProxies (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET_KEY": ""}},
		{"bad port", map[string]string{"SERVER_PORT": "70000"}},
		{"port not a number", map[string]string{"SERVER_PORT": "http"}},
		{"postgres feed without db", map[string]string{"CHANGE_FEED": "postgres", "DATABASE_URL": ""}},
		{"nats feed without url", map[string]string{"CHANGE_FEED": "nats", "NATS_URL": ""}},
		{"unknown feed", map[string]string{"CHANGE_FEED": "kafka"}},
		{"zero burst", map[string]string{"PIN_LOGIN_BURST": "0"}},
		{"bad proxy", map[string]string{"TRUSTED_PROXIES": "10.0.0.0/8,proxy.local"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadClientRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadClient(); err == nil {
		t.Error("expected error without DATABASE_URL")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/beach")
	t.Setenv("COURT_SESSION_FILE", "/tmp/court.json")
	cfg, err := LoadClient()
	if err != nil || cfg.SessionPath != "/tmp/court.json" {
		t.Errorf("LoadClient = %+v, %v", cfg, err)
	}
}
