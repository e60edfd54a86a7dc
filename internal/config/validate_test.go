package config

import "testing"

func TestValidateRejectsMissingDatabaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Control.ListenAddr = ":8090"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing database.url")
	}
}

func TestValidateRejectsMismatchedProxyCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.URL = "postgres://localhost/scoutd"
	cfg.Proxy.DataImpulseUsername = "user"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for username without password")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.URL = "postgres://localhost/scoutd"
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected defaults plus a database url to validate, got %v", err)
	}
}
