// Package config provides configuration management for the QuantDesk application.
package config

import (
	"os"
	"strings"
	"testing"
)

const (
	validConfigPath     = "testdata/valid_config.yaml"
	expansionConfigPath = "testdata/expansion_config.yaml"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}
	return cfg
}

func TestLoadConfigSuccess(t *testing.T) {
	cfg := loadValid(t)

	if cfg.App.Name != "quantdesk" {
		t.Errorf("expected app name 'quantdesk', got '%s'", cfg.App.Name)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got '%s'", cfg.App.Environment)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected database port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Analytics.PeriodsPerYear != 252 {
		t.Errorf("expected 252 periods per year, got %d", cfg.Analytics.PeriodsPerYear)
	}
	if len(cfg.Report.Watchlist) != 2 {
		t.Errorf("expected 2 watchlist symbols, got %d", len(cfg.Report.Watchlist))
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	if _, err := Load("testdata/nonexistent_config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Database.Password != "expanded_secret_value" {
		t.Errorf("expected expanded password, got '%s'", cfg.Database.Password)
	}
}

func TestValidateSuccess(t *testing.T) {
	cfg := loadValid(t)
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidateBadEnvironment(t *testing.T) {
	cfg := loadValid(t)
	cfg.App.Environment = "invalid"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for bad environment")
	}
	if !strings.Contains(err.Error(), "development, staging, production") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateBadRebalance(t *testing.T) {
	cfg := loadValid(t)
	cfg.Portfolio.DefaultRebalance = "hourly"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for bad rebalance frequency")
	}
}

func TestValidateBadConfidence(t *testing.T) {
	cfg := loadValid(t)
	cfg.Analytics.ConfidenceLevel = 1.5

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for confidence outside (0,1)")
	}
}

func TestValidateIdleConnectionsCrossField(t *testing.T) {
	cfg := loadValid(t)
	cfg.Database.MaxIdleConnections = cfg.Database.MaxConnections + 1

	if err := Validate(cfg); err == nil {
		t.Fatal("expected cross-field validation error for idle connections")
	}
}

func TestValidateProductionRequiresSSL(t *testing.T) {
	cfg := loadValid(t)
	cfg.App.Environment = "production"
	cfg.Database.SSLMode = "disable"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected production SSL validation error")
	}
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults("testdata/nonexistent_config.yaml")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.App.Environment != "development" {
		t.Errorf("expected default environment, got '%s'", cfg.App.Environment)
	}
	if cfg.Portfolio.MaxSharpeIterations != 10000 {
		t.Errorf("expected default optimizer iterations, got %d", cfg.Portfolio.MaxSharpeIterations)
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := loadValid(t)
	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("expected postgres DSN, got '%s'", dsn)
	}
	if !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("expected sslmode in DSN, got '%s'", dsn)
	}
}
