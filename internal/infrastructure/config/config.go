package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Sync     SyncConfig
	Webhook  WebhookConfig
	HTTP     HTTPConfig
	Provider ProviderCredentials
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// DSN returns the postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis connection settings. Redis is only needed when the
// sync run lock backend is "redis" (multi-instance deployments).
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address for the redis client
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SyncConfig holds reconciliation engine settings
type SyncConfig struct {
	// SchedulerEnabled turns the periodic intelligent sync trigger on
	SchedulerEnabled bool
	// Interval is the cadence of scheduled intelligent syncs
	Interval time.Duration
	// TerminalSampleSize bounds how many terminal orders an incremental
	// sync re-checks
	TerminalSampleSize int
	// IncrementalFreshPages is how many fresh pages an incremental sync
	// pulls looking for brand-new orders
	IncrementalFreshPages int
	// ProgressiveMaxRetries caps the retry loop of a progressive full sync
	ProgressiveMaxRetries int
	// LockBackend selects the run lock implementation: "memory" or "redis"
	LockBackend string
	// LockTTL bounds how long a redis run lock survives a crashed holder
	LockTTL time.Duration
}

// WebhookConfig holds notification dispatcher settings
type WebhookConfig struct {
	// Endpoint is the subscriber URL order events are posted to
	Endpoint string
	// Secret is the shared HMAC key for payload signing
	Secret string
	// MaxAttempts caps one delivery attempt series
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts
	RetryDelay time.Duration
	// AttemptTimeout bounds each individual HTTP attempt
	AttemptTimeout time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ProviderCredentials holds per-carrier credentials. An empty credential set
// leaves the carrier unconfigured; outside production an unconfigured carrier
// runs in simulation mode instead.
type ProviderCredentials struct {
	EuropeanFulfillment EuropeanFulfillmentCredentials
	Elogy               ElogyCredentials
	FHB                 FHBCredentials
}

// EuropeanFulfillmentCredentials is the credential set for European Fulfillment
type EuropeanFulfillmentCredentials struct {
	Email    string
	Password string
	BaseURL  string
}

// ElogyCredentials is the credential set for Elogy
type ElogyCredentials struct {
	APIKey      string
	WarehouseID string
	BaseURL     string
}

// FHBCredentials is the credential set for FHB Group
type FHBCredentials struct {
	Email     string
	Password  string
	APISecret string
	BaseURL   string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
//  1. Environment variables with OPS_ prefix (e.g., OPS_DATABASE_PASSWORD)
//  2. config.toml
//  3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("OPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Sync: SyncConfig{
			SchedulerEnabled:      v.GetBool("sync.scheduler_enabled"),
			Interval:              v.GetDuration("sync.interval"),
			TerminalSampleSize:    v.GetInt("sync.terminal_sample_size"),
			IncrementalFreshPages: v.GetInt("sync.incremental_fresh_pages"),
			ProgressiveMaxRetries: v.GetInt("sync.progressive_max_retries"),
			LockBackend:           v.GetString("sync.lock_backend"),
			LockTTL:               v.GetDuration("sync.lock_ttl"),
		},
		Webhook: WebhookConfig{
			Endpoint:       v.GetString("webhook.endpoint"),
			Secret:         v.GetString("webhook.secret"),
			MaxAttempts:    v.GetInt("webhook.max_attempts"),
			RetryDelay:     v.GetDuration("webhook.retry_delay"),
			AttemptTimeout: v.GetDuration("webhook.attempt_timeout"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Provider: ProviderCredentials{
			EuropeanFulfillment: EuropeanFulfillmentCredentials{
				Email:    v.GetString("provider.european_fulfillment.email"),
				Password: v.GetString("provider.european_fulfillment.password"),
				BaseURL:  v.GetString("provider.european_fulfillment.base_url"),
			},
			Elogy: ElogyCredentials{
				APIKey:      v.GetString("provider.elogy.api_key"),
				WarehouseID: v.GetString("provider.elogy.warehouse_id"),
				BaseURL:     v.GetString("provider.elogy.base_url"),
			},
			FHB: FHBCredentials{
				Email:     v.GetString("provider.fhb.email"),
				Password:  v.GetString("provider.fhb.password"),
				APISecret: v.GetString("provider.fhb.api_secret"),
				BaseURL:   v.GetString("provider.fhb.base_url"),
			},
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "commerceops-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "commerceops"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
	if cfg.Sync.TerminalSampleSize == 0 {
		cfg.Sync.TerminalSampleSize = 10
	}
	if cfg.Sync.IncrementalFreshPages == 0 {
		cfg.Sync.IncrementalFreshPages = 2
	}
	if cfg.Sync.ProgressiveMaxRetries == 0 {
		cfg.Sync.ProgressiveMaxRetries = 3
	}
	if cfg.Sync.LockBackend == "" {
		cfg.Sync.LockBackend = "memory"
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 30 * time.Minute
	}
	if cfg.Webhook.MaxAttempts == 0 {
		cfg.Webhook.MaxAttempts = 3
	}
	if cfg.Webhook.RetryDelay == 0 {
		cfg.Webhook.RetryDelay = 5 * time.Second
	}
	if cfg.Webhook.AttemptTimeout == 0 {
		cfg.Webhook.AttemptTimeout = 10 * time.Second
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
}

// validate checks configuration consistency
func (cfg *Config) validate() error {
	switch cfg.Sync.LockBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown sync.lock_backend %q", cfg.Sync.LockBackend)
	}
	if cfg.Webhook.MaxAttempts < 1 {
		return fmt.Errorf("config: webhook.max_attempts must be at least 1")
	}
	if cfg.IsProduction() && cfg.Webhook.Endpoint != "" && !strings.HasPrefix(cfg.Webhook.Endpoint, "https://") {
		return fmt.Errorf("config: webhook.endpoint must use https in production")
	}
	return nil
}

// IsProduction returns true when running in the production environment
func (cfg *Config) IsProduction() bool {
	return cfg.App.Env == "production"
}
