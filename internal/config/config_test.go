package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresClinicAPIURL(t *testing.T) {
	os.Unsetenv("CLINIC_API_URL")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when CLINIC_API_URL is missing")
	}
}

func TestLoad_WithClinicAPIURL(t *testing.T) {
	os.Setenv("CLINIC_API_URL", "https://api.clinic.example")
	defer os.Unsetenv("CLINIC_API_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ClinicAPIURL != "https://api.clinic.example" {
		t.Errorf("expected CLINIC_API_URL to be set, got %s", cfg.ClinicAPIURL)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}

	if cfg.ReadRetryCount != 2 {
		t.Errorf("expected default read retry count 2, got %d", cfg.ReadRetryCount)
	}

	if cfg.CacheStaleSecs != 30 {
		t.Errorf("expected default staleness window 30s, got %d", cfg.CacheStaleSecs)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Validate(t *testing.T) {
	c := &Config{Env: "development", ClinicAPIURL: "http://localhost:3000", HTTPTimeoutSecs: 30}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.ClinicAPIURL = "ftp://files.example"
	if err := c.Validate(); err == nil {
		t.Error("expected error for non-http scheme")
	}

	c.ClinicAPIURL = "http://api.clinic.example"
	c.Env = "production"
	if err := c.Validate(); err == nil {
		t.Error("expected error for plain http in production")
	}

	c.Env = "development"
	c.ReadRetryCount = -1
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative retry count")
	}
}
