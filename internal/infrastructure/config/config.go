package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Tenancy   TenancyConfig
	Billing   BillingConfig
	Scheduler SchedulerConfig
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

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// TenancyConfig holds tenant resolution settings
type TenancyConfig struct {
	// BaseDomain is the apex domain tenant subdomains hang off.
	BaseDomain string

	// HeaderSecret signs the X-Tenant-ID header channel. Empty disables
	// header-based resolution.
	HeaderSecret string

	// CacheTTL bounds how long a resolved tenant may be served from cache.
	CacheTTL time.Duration
}

// BillingConfig holds subscription and external billing settings
type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string

	// CheckoutSuccessURL and CheckoutCancelURL are where the provider
	// sends the buyer back after a hosted checkout.
	CheckoutSuccessURL string
	CheckoutCancelURL  string

	TrialDays         int
	ReadOnlyGraceDays int

	SeatIncludedUnits int64
	SeatMonthlyCents  int64
	SeatAnnualCents   int64

	UsageIncludedUnits int64
	UsageOverageCents  int64
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled             bool
	SweepInterval       time.Duration
	CatalogSyncInterval time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with NEXORA_ prefix (e.g., NEXORA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
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
		// Missing config file is fine, defaults and env vars apply.
	}

	v.SetEnvPrefix("NEXORA")
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
			Enabled:  v.GetBool("redis.enabled"),
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
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Tenancy: TenancyConfig{
			BaseDomain:   v.GetString("tenancy.base_domain"),
			HeaderSecret: v.GetString("tenancy.header_secret"),
			CacheTTL:     v.GetDuration("tenancy.cache_ttl"),
		},
		Billing: BillingConfig{
			StripeSecretKey:     v.GetString("billing.stripe_secret_key"),
			StripeWebhookSecret: v.GetString("billing.stripe_webhook_secret"),
			CheckoutSuccessURL:  v.GetString("billing.checkout_success_url"),
			CheckoutCancelURL:   v.GetString("billing.checkout_cancel_url"),
			TrialDays:           v.GetInt("billing.trial_days"),
			ReadOnlyGraceDays:   v.GetInt("billing.read_only_grace_days"),
			SeatIncludedUnits:   v.GetInt64("billing.seat_included_units"),
			SeatMonthlyCents:    v.GetInt64("billing.seat_monthly_cents"),
			SeatAnnualCents:     v.GetInt64("billing.seat_annual_cents"),
			UsageIncludedUnits:  v.GetInt64("billing.usage_included_units"),
			UsageOverageCents:   v.GetInt64("billing.usage_overage_cents"),
		},
		Scheduler: SchedulerConfig{
			Enabled:             v.GetBool("scheduler.enabled"),
			SweepInterval:       v.GetDuration("scheduler.sweep_interval"),
			CatalogSyncInterval: v.GetDuration("scheduler.catalog_sync_interval"),
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
		cfg.App.Name = "nexora-backend"
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
		cfg.Database.DBName = "nexora"
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
		cfg.Database.ConnMaxLifetime = 30
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
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}

	if cfg.Tenancy.BaseDomain == "" {
		cfg.Tenancy.BaseDomain = "localhost"
	}
	if cfg.Tenancy.CacheTTL == 0 {
		cfg.Tenancy.CacheTTL = 5 * time.Minute
	}

	if cfg.Billing.CheckoutSuccessURL == "" {
		cfg.Billing.CheckoutSuccessURL = "https://" + cfg.Tenancy.BaseDomain + "/checkout/success"
	}
	if cfg.Billing.CheckoutCancelURL == "" {
		cfg.Billing.CheckoutCancelURL = "https://" + cfg.Tenancy.BaseDomain + "/checkout/cancelled"
	}
	if cfg.Billing.TrialDays == 0 {
		cfg.Billing.TrialDays = 14
	}
	if cfg.Billing.ReadOnlyGraceDays == 0 {
		cfg.Billing.ReadOnlyGraceDays = 30
	}
	if cfg.Billing.SeatIncludedUnits == 0 {
		cfg.Billing.SeatIncludedUnits = 5
	}
	if cfg.Billing.SeatMonthlyCents == 0 {
		cfg.Billing.SeatMonthlyCents = 1500
	}
	if cfg.Billing.SeatAnnualCents == 0 {
		cfg.Billing.SeatAnnualCents = 14400
	}
	if cfg.Billing.UsageIncludedUnits == 0 {
		cfg.Billing.UsageIncludedUnits = 1000
	}
	if cfg.Billing.UsageOverageCents == 0 {
		cfg.Billing.UsageOverageCents = 10
	}

	if cfg.Scheduler.SweepInterval == 0 {
		cfg.Scheduler.SweepInterval = 24 * time.Hour
	}
	if cfg.Scheduler.CatalogSyncInterval == 0 {
		cfg.Scheduler.CatalogSyncInterval = 6 * time.Hour
	}
}

// validate checks that configuration values are consistent
func (c *Config) validate() error {
	if c.App.Env == "production" && c.Tenancy.HeaderSecret == "" {
		return fmt.Errorf("tenancy.header_secret must be set in production")
	}
	if c.Scheduler.SweepInterval > 24*time.Hour {
		return fmt.Errorf("scheduler.sweep_interval must run at least daily")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

/// Addr returns the Redis address in host:port form
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
