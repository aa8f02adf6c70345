package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/hms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("pool sizes = %d/%d, want 20/5", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.DefaultHospital != "default" {
		t.Errorf("DefaultHospital = %q, want default", cfg.DefaultHospital)
	}
	if !cfg.IsDev() {
		t.Error("IsDev() = false in default config")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/hms")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DEFAULT_HOSPITAL", "stmarys")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false with ENV=production")
	}
	if cfg.DefaultHospital != "stmarys" {
		t.Errorf("DefaultHospital = %q, want stmarys", cfg.DefaultHospital)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev needs nothing", Config{Env: "development"}, false},
		{"production without auth", Config{Env: "production"}, true},
		{"production with issuer", Config{Env: "production", AuthIssuer: "https://auth.example.org"}, false},
		{"production with signing key", Config{Env: "production", AuthSigningKey: "secret"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
