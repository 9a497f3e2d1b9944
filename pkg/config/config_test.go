package config

import (
	"strings"
	"testing"
)

func productionConfig() *Config {
	return &Config{
		DatabaseURL:        "postgres://items:secret@db:5432/items?sslmode=require",
		Environment:        EnvProduction,
		LogLevel:           "info",
		CORSAllowedOrigins: "https://items.example.com",
	}
}

func TestValidateForProduction_NonProductionNoop(t *testing.T) {
	cfg := &Config{Environment: EnvDevelopment, LogLevel: "debug", CORSAllowedOrigins: "*"}
	if err := ValidateForProduction(cfg); err != nil {
		t.Fatalf("expected nil for development config, got %v", err)
	}
}

func TestValidateForProduction_Valid(t *testing.T) {
	if err := ValidateForProduction(productionConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateForProduction_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, "LOG_LEVEL"},
		{"wildcard cors", func(c *Config) { c.CORSAllowedOrigins = " * " }, "CORS_ALLOWED_ORIGINS"},
		{"sqlite database", func(c *Config) { c.DatabaseURL = "sqlite://items.db" }, "DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := productionConfig()
			tt.mutate(cfg)
			err := ValidateForProduction(cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := &Config{Port: 3001, Environment: EnvProduction}
	if cfg.Addr() != ":3001" {
		t.Errorf("Addr: got %q, want %q", cfg.Addr(), ":3001")
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true")
	}
	cfg.Environment = EnvTesting
	if cfg.IsProduction() {
		t.Error("expected IsProduction to be false for testing")
	}
}
