package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"frameshop/internal/pricing"
)

// Config holds all frameshop configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Postgres PostgresConfig `yaml:"postgres"`
	NATS     NATSConfig     `yaml:"nats"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Sessions SessionsConfig `yaml:"sessions"`
	Cache    CacheConfig    `yaml:"cache"`
	Tracking TrackingConfig `yaml:"tracking"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type HTTPConfig struct {
	Address      string `yaml:"address"`
	ServerHeader string `yaml:"server_header"`
	Templates    string `yaml:"templates"`
}

// StorageConfig selects the repository backend: postgres or memory.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	SeedFile string `yaml:"seed_file"`
}

type PostgresConfig struct {
	Host         string `yaml:"host"`
	User         string `yaml:"user"`
	Pass         string `yaml:"pass"`
	Port         string `yaml:"port"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

func (o *PostgresConfig) ConnectionString() string {
	host := o.Host
	if host == "" {
		host = "@"
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s", o.User, o.Pass, host, o.Port, o.Name, sslMode)
}

type NATSConfig struct {
	URL string `yaml:"url"`
	// IntakeSubject orders pushed by other systems, stored as they arrive.
	IntakeSubject string `yaml:"intake_subject"`
	// EventsSubject order lifecycle events published by the shop.
	EventsSubject string `yaml:"events_subject"`
}

type RabbitMQConfig struct {
	URI      string `yaml:"uri"`
	Queue    string `yaml:"queue"`
	Workers  int    `yaml:"workers"`
	Prefetch int    `yaml:"prefetch"`
}

type PricingConfig struct {
	Currency              string              `yaml:"currency"`
	ShippingFee           int                 `yaml:"shipping_fee"`
	FreeShippingThreshold int                 `yaml:"free_shipping_threshold"`
	MaxFrames             int                 `yaml:"max_frames"`
	Promotions            []pricing.Promotion `yaml:"promotions"`
}

// Calculator converts the section into pricing settings.
func (p PricingConfig) Calculator() pricing.Config {
	return pricing.Config{
		Currency:              p.Currency,
		ShippingFee:           p.ShippingFee,
		FreeShippingThreshold: p.FreeShippingThreshold,
		Promotions:            p.Promotions,
	}
}

type SessionsConfig struct {
	TTL string `yaml:"ttl"`
}

type CacheConfig struct {
	OrderTTL string `yaml:"order_ttl"`
}

type TrackingConfig struct {
	Salt      string `yaml:"salt"`
	MinLength int    `yaml:"min_length"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns a configuration that runs locally against the
// in-memory storage.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":3000",
			ServerHeader: "Frameshop",
			Templates:    "./templates",
		},
		Storage: StorageConfig{Driver: "memory"},
		Postgres: PostgresConfig{
			Port:         "5432",
			MaxOpenConns: 12,
			MaxIdleConns: 4,
		},
		NATS: NATSConfig{
			IntakeSubject: "orders.intake",
			EventsSubject: "orders.events",
		},
		RabbitMQ: RabbitMQConfig{
			Queue:    "print-jobs",
			Workers:  4,
			Prefetch: 10,
		},
		Pricing: PricingConfig{
			Currency:              "EUR",
			ShippingFee:           695,
			FreeShippingThreshold: 7500,
			MaxFrames:             20,
		},
		Sessions: SessionsConfig{TTL: "2h"},
		Cache:    CacheConfig{OrderTTL: "1h"},
		Tracking: TrackingConfig{Salt: "frameshop", MinLength: 10},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err = yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	str := map[string]*string{
		"PG_HOST":          &c.Postgres.Host,
		"PG_USER":          &c.Postgres.User,
		"PG_PASS":          &c.Postgres.Pass,
		"PG_PORT":          &c.Postgres.Port,
		"PG_NAME":          &c.Postgres.Name,
		"NATS_URL":         &c.NATS.URL,
		"HTTP_ADDRESS":     &c.HTTP.Address,
		"RABBITMQ_URI":     &c.RabbitMQ.URI,
		"LOG_LEVEL":        &c.Logging.Level,
		"STORAGE_DRIVER":   &c.Storage.Driver,
		"TRACKING_SALT":    &c.Tracking.Salt,
		"FRAMESHOP_SEED":   &c.Storage.SeedFile,
		"FRAMESHOP_QUEUE":  &c.RabbitMQ.Queue,
		"FRAMESHOP_ASSETS": &c.HTTP.Templates,
	}
	for name, dst := range str {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("PRINT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RabbitMQ.Workers = n
		}
	}
}

// Validate rejects settings the shop cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Pricing.MaxFrames < 1 {
		errs = append(errs, errors.New("pricing.max_frames must be positive"))
	}
	if c.Pricing.ShippingFee < 0 || c.Pricing.FreeShippingThreshold < 0 {
		errs = append(errs, errors.New("pricing: fees must not be negative"))
	}
	if c.Pricing.Currency == "" {
		errs = append(errs, errors.New("pricing.currency is required"))
	}
	if _, err := pricing.NewPromotions(c.Pricing.Promotions); err != nil {
		errs = append(errs, fmt.Errorf("pricing.promotions: %w", err))
	}
	if _, err := time.ParseDuration(c.Sessions.TTL); err != nil {
		errs = append(errs, fmt.Errorf("sessions.ttl: %w", err))
	}
	if _, err := time.ParseDuration(c.Cache.OrderTTL); err != nil {
		errs = append(errs, fmt.Errorf("cache.order_ttl: %w", err))
	}
	if c.Tracking.MinLength < 0 {
		errs = append(errs, errors.New("tracking.min_length must not be negative"))
	}

	return errors.Join(errs...)
}

// SessionTTL parsed sessions.ttl; Validate guarantees it parses.
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Sessions.TTL)
	return d
}

// OrderCacheTTL parsed cache.order_ttl.
func (c *Config) OrderCacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.OrderTTL)
	return d
}
