package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  mode: release
database:
  path: /tmp/test.db
jwt:
  secret: super-secret
  expire_hours: 48
sweep:
  schedule: "30 7 * * *"
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("mode = %q", cfg.Server.Mode)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.JWT.Secret != "super-secret" || cfg.JWT.ExpireHours != 48 {
		t.Errorf("jwt config = %+v", cfg.JWT)
	}
	if cfg.Sweep.Schedule != "30 7 * * *" || cfg.Sweep.Enabled {
		t.Errorf("sweep config = %+v", cfg.Sweep)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: super-secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.JWT.ExpireHours != 24 {
		t.Errorf("expire hours = %d, want default 24", cfg.JWT.ExpireHours)
	}
	if cfg.Sweep.Schedule != "0 8 * * *" || !cfg.Sweep.Enabled {
		t.Errorf("sweep config = %+v, want daily 08:00 enabled", cfg.Sweep)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: from-file
`)
	t.Setenv("MEUBOLSO_JWT_SECRET", "from-env")
	t.Setenv("MEUBOLSO_SERVER_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("secret = %q, want env override", cfg.JWT.Secret)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing jwt.secret")
	}
}
