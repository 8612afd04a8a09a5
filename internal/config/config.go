package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	ClinicAPIURL      string   `mapstructure:"CLINIC_API_URL"`
	HTTPTimeoutSecs   int      `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	ReadRetryCount    int      `mapstructure:"READ_RETRY_COUNT"`
	CacheStaleSecs    int      `mapstructure:"CACHE_STALE_SECONDS"`
	SessionTTLMinutes int      `mapstructure:"SESSION_TTL_MINUTES"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("READ_RETRY_COUNT", 2)
	v.SetDefault("CACHE_STALE_SECONDS", 30)
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("CLINIC_API_URL")
	v.BindEnv("HTTP_TIMEOUT_SECONDS")
	v.BindEnv("READ_RETRY_COUNT")
	v.BindEnv("CACHE_STALE_SECONDS")
	v.BindEnv("SESSION_TTL_MINUTES")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.ClinicAPIURL == "" {
		return nil, fmt.Errorf("CLINIC_API_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the gateway is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ClinicAPIURL)
	if err != nil {
		return fmt.Errorf("CLINIC_API_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CLINIC_API_URL must be an http(s) URL, got %q", c.ClinicAPIURL)
	}
	if c.IsProduction() && u.Scheme != "https" {
		return fmt.Errorf("CLINIC_API_URL must use https in production")
	}
	if c.ReadRetryCount < 0 {
		return fmt.Errorf("READ_RETRY_COUNT must not be negative, got %d", c.ReadRetryCount)
	}
	if c.HTTPTimeoutSecs <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSecs)
	}
	if c.CacheStaleSecs < 0 {
		return fmt.Errorf("CACHE_STALE_SECONDS must not be negative, got %d", c.CacheStaleSecs)
	}
	return nil
}
