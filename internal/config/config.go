// Package config provides centralized configuration management.
//
// Configuration is assembled in three layers, later ones winning:
//  1. Built-in defaults
//  2. YAML file (config.yaml), with ${VAR} references expanded
//  3. Environment variables, including any loaded from a .env file
//
// Example usage:
//
//	cfg, err := config.Load("config.yaml")
//	dbPath := cfg.Storage.Path
//	fee := cfg.Payments.PlatformFeeCents
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the entire application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Payments PaymentsConfig `yaml:"payments"`
	Links    LinksConfig    `yaml:"links"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port       int    `yaml:"port"`
	StaticPath string `yaml:"static_path"`

	// PublicURL prefixes payment link URLs, e.g. https://zapsplit.app
	PublicURL string `yaml:"public_url"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// URL is the PostgreSQL connection string.
	URL string `yaml:"url"`
}

// AuthConfig holds creator session settings
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// PaymentsConfig holds gateway and pricing settings
type PaymentsConfig struct {
	StripeSecretKey  string `yaml:"stripe_secret_key"`
	Currency         string `yaml:"currency"`
	PlatformFeeCents int64  `yaml:"platform_fee_cents"`

	// TaxRatio is the share of the bill's tax-and-tip remainder treated as tax.
	TaxRatio float64 `yaml:"tax_ratio"`
}

// LinksConfig holds payment link settings
type LinksConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			StaticPath:      "./static",
			PublicURL:       "http://localhost:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "./data/zapsplit.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Payments: PaymentsConfig{
			Currency:         "aud",
			PlatformFeeCents: 50,
			TaxRatio:         0.5,
		},
		Links: LinksConfig{
			TTL: 7 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists; an empty path skips it), a .env file in the working directory and
// the environment.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file onto cfg. A missing file is not an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// Expand environment variables (e.g., ${STRIPE_SECRET_KEY})
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	setString(&c.Server.StaticPath, "STATIC_PATH")
	setString(&c.Server.PublicURL, "PUBLIC_URL")
	setString(&c.Storage.Driver, "DB_DRIVER")
	setString(&c.Storage.Path, "DB_PATH")
	setString(&c.Storage.URL, "DATABASE_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Payments.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Payments.Currency, "CURRENCY")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt64(&c.Payments.PlatformFeeCents, "PLATFORM_FEE_CENTS"); err != nil {
		return err
	}
	if err := setFloat(&c.Payments.TaxRatio, "TAX_RATIO"); err != nil {
		return err
	}
	if err := setDuration(&c.Auth.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	return setDuration(&c.Links.TTL, "LINK_TTL")
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Storage.URL == "" {
			errs = append(errs, errors.New("storage.url is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not sqlite or postgres", c.Storage.Driver))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Links.TTL <= 0 {
		errs = append(errs, errors.New("links.ttl must be positive"))
	}
	if c.Payments.Currency == "" {
		errs = append(errs, errors.New("payments.currency is required"))
	}
	if c.Payments.PlatformFeeCents < 0 {
		errs = append(errs, errors.New("payments.platform_fee_cents must not be negative"))
	}
	if math.IsNaN(c.Payments.TaxRatio) || c.Payments.TaxRatio < 0 || c.Payments.TaxRatio > 1 {
		errs = append(errs, fmt.Errorf("payments.tax_ratio %v must be between 0 and 1", c.Payments.TaxRatio))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
