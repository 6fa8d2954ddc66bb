package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Pricing policy names accepted in billing.policy.
const (
	PolicyHourly    = "hourly"
	PolicyPerMinute = "per_minute"
)

// Unknown-duration handling accepted in billing.unknown_duration.
const (
	UnknownDurationRefuse      = "refuse"
	UnknownDurationBillMinimum = "bill_minimum"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Registry   RegistryConfig   `yaml:"registry"`
	Database   DatabaseConfig   `yaml:"database"`
	Billing    BillingConfig    `yaml:"billing"`
	Account    AccountConfig    `yaml:"account"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the local HTTP API configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatewayConfig describes the remote place-status service.
type GatewayConfig struct {
	BaseURL        string               `yaml:"base_url"`
	TimeoutSeconds int                  `yaml:"timeout_seconds"`
	Timeout        time.Duration        `yaml:"-"`
	HTTPProxy      string               `yaml:"http_proxy"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig makes gateway calls fail fast after repeated failures.
type CircuitBreakerConfig struct {
	Enabled          bool `yaml:"enabled"`
	FailureThreshold int  `yaml:"failure_threshold"`
	Window           int  `yaml:"window"`
	OpenSeconds      int  `yaml:"open_seconds"`
}

// RegistryConfig controls background refresh of the place snapshot.
type RegistryConfig struct {
	PollIntervalSeconds int           `yaml:"poll_interval_seconds"`
	PollInterval        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the local store connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// BillingConfig selects the pricing policy. Policy has no default on purpose:
// deployments must pick one.
type BillingConfig struct {
	Policy          string `yaml:"policy"`
	PricePerHour    int    `yaml:"price_per_hour"`
	PricePerMinute  int    `yaml:"price_per_minute"`
	UnknownDuration string `yaml:"unknown_duration"`
}

// AccountConfig holds identity defaults.
type AccountConfig struct {
	StartingBalance int    `yaml:"starting_balance"`
	GuestName       string `yaml:"guest_name"`
}

// LedgerConfig controls trip history retention.
type LedgerConfig struct {
	ClearOnLogout bool `yaml:"clear_on_logout"`
	MaxRecords    int  `yaml:"max_records"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Default returns the configuration used for every key the file omits.
// Billing.Policy and Gateway.BaseURL have no default.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			RateLimitPerSec: 10,
			RateLimitBurst:  5,
			CacheTTLSeconds: 2,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Gateway: GatewayConfig{
			TimeoutSeconds: 10,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				Window:           10,
				OpenSeconds:      15,
			},
		},
		Registry: RegistryConfig{PollIntervalSeconds: 30},
		Database: DatabaseConfig{Driver: "sqlite"},
		Billing: BillingConfig{
			PricePerHour:    50,
			PricePerMinute:  2,
			UnknownDuration: UnknownDurationRefuse,
		},
		Account:    AccountConfig{StartingBalance: 150, GuestName: "Guest"},
		Push:       PushConfig{TTL: 3600},
		WorkerPool: WorkerPoolConfig{Size: 1},
	}
}

// Load reads the configuration from the given path. Keys present in the file,
// zero values included, override Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg.applyEnv()
	cfg.derive()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// derive fills values computed from other settings.
func (c *Config) derive() {
	c.Gateway.Timeout = time.Duration(c.Gateway.TimeoutSeconds) * time.Second
	if cb := &c.Gateway.CircuitBreaker; cb.Window < cb.FailureThreshold {
		cb.Window = 2 * cb.FailureThreshold
	}

	// Zero disables polling.
	c.Registry.PollInterval = 0
	if c.Registry.PollIntervalSeconds > 0 {
		c.Registry.PollInterval = time.Duration(c.Registry.PollIntervalSeconds) * time.Second
	}

	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "parking.db"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.RateLimitPerSec <= 0 || c.Server.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("server rate limit and burst must be positive"))
	}
	if c.Server.CacheTTLSeconds <= 0 {
		errs = append(errs, errors.New("server.cache_ttl_seconds must be positive"))
	}
	if c.Gateway.BaseURL == "" {
		errs = append(errs, errors.New("gateway.base_url is required"))
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("gateway.timeout_seconds must be positive"))
	}
	if cb := c.Gateway.CircuitBreaker; cb.Enabled && (cb.FailureThreshold <= 0 || cb.OpenSeconds <= 0) {
		errs = append(errs, errors.New("gateway.circuit_breaker threshold and open_seconds must be positive"))
	}
	if c.Registry.PollIntervalSeconds < 0 {
		errs = append(errs, errors.New("registry.poll_interval_seconds must not be negative"))
	}
	switch c.Billing.Policy {
	case PolicyHourly, PolicyPerMinute:
	case "":
		errs = append(errs, fmt.Errorf("billing.policy is required (%q or %q)", PolicyHourly, PolicyPerMinute))
	default:
		errs = append(errs, fmt.Errorf("billing.policy %q is not supported", c.Billing.Policy))
	}
	if c.Billing.PricePerHour <= 0 || c.Billing.PricePerMinute <= 0 {
		errs = append(errs, errors.New("billing prices must be positive"))
	}
	switch c.Billing.UnknownDuration {
	case UnknownDurationRefuse, UnknownDurationBillMinimum:
	default:
		errs = append(errs, fmt.Errorf("billing.unknown_duration %q is not supported", c.Billing.UnknownDuration))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Account.StartingBalance < 0 {
		errs = append(errs, errors.New("account.starting_balance must not be negative"))
	}
	if c.Ledger.MaxRecords < 0 {
		errs = append(errs, errors.New("ledger.max_records must not be negative"))
	}
	if c.WorkerPool.Size <= 0 {
		errs = append(errs, errors.New("worker_pool.size must be positive"))
	}
	return errors.Join(errs...)
}
