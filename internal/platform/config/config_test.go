package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "vitrine" || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.EventBus != "memory" || cfg.AuthMode != "header" {
		t.Fatalf("unexpected transport defaults: %+v", cfg)
	}
	if cfg.StatusCacheTTL != 10*time.Minute {
		t.Fatalf("expected 10m status cache ttl, got %s", cfg.StatusCacheTTL)
	}
	if !cfg.InMemory() {
		t.Fatalf("expected in-memory mode without postgres dsn")
	}
	if !cfg.EnableBulkCompletionConsumer {
		t.Fatalf("expected bulk completion consumer enabled by default")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("VITRINE_HTTP_PORT", "9090")
	t.Setenv("VITRINE_EVENT_BUS", "REDIS")
	t.Setenv("VITRINE_STATUS_CACHE_TTL", "30s")
	t.Setenv("VITRINE_ENABLE_BULK_COMPLETION_CONSUMER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected port override, got %s", cfg.HTTPPort)
	}
	if cfg.EventBus != "redis" {
		t.Fatalf("expected normalized redis bus, got %s", cfg.EventBus)
	}
	if cfg.StatusCacheTTL != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %s", cfg.StatusCacheTTL)
	}
	if cfg.EnableBulkCompletionConsumer {
		t.Fatalf("expected consumer disabled")
	}
}

func TestLoadFileWithEnvironmentOnTop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitrine.yaml")
	content := "service_name: vitrine-staging\npostgres_dsn: postgres://localhost/vitrine\nauth_mode: oidc\noidc_issuer: https://id.example.com/\noidc_client_id: vitrine-web\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("VITRINE_SERVICE_NAME", "vitrine-override")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.ServiceName != "vitrine-override" {
		t.Fatalf("expected env to win over file, got %s", cfg.ServiceName)
	}
	if cfg.InMemory() {
		t.Fatalf("expected postgres mode")
	}
	if cfg.OIDCIssuer != "https://id.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.OIDCIssuer)
	}
}

func TestLoadRejectsIncompleteOIDC(t *testing.T) {
	t.Setenv("VITRINE_AUTH_MODE", "oidc")
	if _, err := Load(); err == nil {
		t.Fatalf("expected oidc config error")
	}
}
