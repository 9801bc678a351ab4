package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, expected 3000", cfg.Port)
	}
	if cfg.SessionMaxAge != 3600 {
		t.Errorf("SessionMaxAge = %d, expected 3600", cfg.SessionMaxAge)
	}
	if cfg.SessionBackend != SessionBackendRedis {
		t.Errorf("SessionBackend = %q, expected redis", cfg.SessionBackend)
	}
	if !cfg.RolesEnabled {
		t.Error("RolesEnabled = false, expected true")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MEMBERHUB_PORT", "8080")
	t.Setenv("MEMBERHUB_SESSION_BACKEND", "cookie")
	t.Setenv("MEMBERHUB_ROLES_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, expected 8080", cfg.Port)
	}
	if cfg.SessionBackend != SessionBackendCookie {
		t.Errorf("SessionBackend = %q, expected cookie", cfg.SessionBackend)
	}
	if cfg.RolesEnabled {
		t.Error("RolesEnabled = true, expected false")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MEMBERHUB_SESSION_BACKEND", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown session backend")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("MEMBERHUB_PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}
