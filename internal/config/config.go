package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hance08/keasync/internal/constants"
)

// ErrMissingBilling is returned when the billing service is not configured.
var ErrMissingBilling = errors.New("billing service is not configured")

type Config struct {
	Database   DatabaseConfig `mapstructure:"database"`
	Defaults   DefaultsConfig `mapstructure:"defaults"`
	Billing    BillingConfig  `mapstructure:"billing"`
	Server     ServerConfig   `mapstructure:"server"`
	Log        LogConfig      `mapstructure:"log"`
	ConfigPath string         `mapstructure:"-"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type DefaultsConfig struct {
	Currency string `mapstructure:"currency"`
}

type BillingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Limit   int           `mapstructure:"limit"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func NewDefault() *Config {
	return &Config{
		Database: DatabaseConfig{Path: ""},
		Defaults: DefaultsConfig{Currency: "USD"},
		Billing: BillingConfig{
			Limit:   constants.DefaultBillingLimit,
			Timeout: constants.DefaultBillingTimeout,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8087"},
		Log:    LogConfig{Level: "info"},
	}
}

// Validate reports every missing billing setting at once.
func (c BillingConfig) Validate() error {
	var missing []string

	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, "billing.base_url (KEA_BILLING_BASE_URL)")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "billing.api_key (KEA_BILLING_API_KEY)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingBilling, strings.Join(missing, ", "))
	}
	return nil
}

// ClampLimit bounds a requested page size to what the billing feed accepts.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return constants.DefaultBillingLimit
	case limit > constants.MaxBillingLimit:
		return constants.MaxBillingLimit
	default:
		return limit
	}
}
