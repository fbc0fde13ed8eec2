package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Marketplace MarketplaceConfig
	MercadoPago MercadoPagoConfig
	SuperFrete  SuperFreteConfig
	Scheduler   SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	BaseURL string // public base URL used for back/notification URLs
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

// RedisConfig holds Redis connection settings for the webhook dedupe cache
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
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// MarketplaceConfig holds marketplace policy settings
type MarketplaceConfig struct {
	AuctionPaymentWindowDays int     // winner must pay within this window
	SellerPostDays           int     // seller must post within this window after approval
	BuyerApprovalDays        int     // buyer-approval window after delivery
	PayoutHoldDays           int     // payout hold after delivery when no deadline recorded
	FeePercent               float64 // platform fee on the order amount
}

// MercadoPagoConfig holds payment provider settings
type MercadoPagoConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// SuperFreteConfig holds shipping-label provider settings
type SuperFreteConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// DefaultServiceID is the shipping service used when the order does not
	// pin one
	DefaultServiceID int
	// Service ids that require the recipient's document on the label
	DocumentRequiredServiceIDs []int
}

// SchedulerConfig holds the periodic auction-close trigger configuration
type SchedulerConfig struct {
	Enabled              bool
	AuctionCloseInterval time.Duration
	AuctionCloseBatch    int
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BAZARGO_ prefix (e.g. BAZARGO_DATABASE_PASSWORD)
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
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BAZARGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			BaseURL: v.GetString("app.base_url"),
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
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Marketplace: MarketplaceConfig{
			AuctionPaymentWindowDays: v.GetInt("marketplace.auction_payment_window_days"),
			SellerPostDays:           v.GetInt("marketplace.seller_post_days"),
			BuyerApprovalDays:        v.GetInt("marketplace.buyer_approval_days"),
			PayoutHoldDays:           v.GetInt("marketplace.payout_hold_days"),
			FeePercent:               v.GetFloat64("marketplace.fee_percent"),
		},
		MercadoPago: MercadoPagoConfig{
			BaseURL:     v.GetString("mercadopago.base_url"),
			AccessToken: v.GetString("mercadopago.access_token"),
			Timeout:     v.GetDuration("mercadopago.timeout"),
		},
		SuperFrete: SuperFreteConfig{
			BaseURL:                    v.GetString("superfrete.base_url"),
			Token:                      v.GetString("superfrete.token"),
			Timeout:                    v.GetDuration("superfrete.timeout"),
			DefaultServiceID:           v.GetInt("superfrete.default_service_id"),
			DocumentRequiredServiceIDs: v.GetIntSlice("superfrete.document_required_service_ids"),
		},
		Scheduler: SchedulerConfig{
			Enabled:              v.GetBool("scheduler.enabled"),
			AuctionCloseInterval: v.GetDuration("scheduler.auction_close_interval"),
			AuctionCloseBatch:    v.GetInt("scheduler.auction_close_batch"),
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
		cfg.App.Name = "bazargo-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:8080"
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
		cfg.Database.DBName = "bazargo"
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
		cfg.Database.ConnMaxIdleTime = 30
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
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Marketplace.AuctionPaymentWindowDays == 0 {
		cfg.Marketplace.AuctionPaymentWindowDays = 3
	}
	if cfg.Marketplace.SellerPostDays == 0 {
		cfg.Marketplace.SellerPostDays = 5
	}
	if cfg.Marketplace.BuyerApprovalDays == 0 {
		cfg.Marketplace.BuyerApprovalDays = 7
	}
	if cfg.Marketplace.PayoutHoldDays == 0 {
		cfg.Marketplace.PayoutHoldDays = 7
	}
	if cfg.Marketplace.FeePercent == 0 {
		cfg.Marketplace.FeePercent = 10
	}
	if cfg.MercadoPago.BaseURL == "" {
		cfg.MercadoPago.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.MercadoPago.Timeout == 0 {
		cfg.MercadoPago.Timeout = 30 * time.Second
	}
	if cfg.SuperFrete.BaseURL == "" {
		cfg.SuperFrete.BaseURL = "https://api.superfrete.com"
	}
	if cfg.SuperFrete.Timeout == 0 {
		cfg.SuperFrete.Timeout = 30 * time.Second
	}
	if cfg.SuperFrete.DefaultServiceID == 0 {
		// PAC
		cfg.SuperFrete.DefaultServiceID = 1
	}
	if len(cfg.SuperFrete.DocumentRequiredServiceIDs) == 0 {
		// Mini Envios requires the recipient's document
		cfg.SuperFrete.DocumentRequiredServiceIDs = []int{17}
	}
	if cfg.Scheduler.AuctionCloseInterval == 0 {
		cfg.Scheduler.AuctionCloseInterval = time.Minute
	}
	if cfg.Scheduler.AuctionCloseBatch == 0 {
		cfg.Scheduler.AuctionCloseBatch = 100
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Marketplace.FeePercent < 0 || c.Marketplace.FeePercent >= 100 {
		return fmt.Errorf("marketplace.fee_percent must be in [0, 100), got %f", c.Marketplace.FeePercent)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.MercadoPago.AccessToken == "" {
			return fmt.Errorf("mercadopago.access_token is required in production")
		}
		if c.SuperFrete.Token == "" {
			return fmt.Errorf("superfrete.token is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
