package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"

	pkgconfig "github.com/Penlika/CoffeeShopApp/pkg/config"
	"github.com/Penlika/CoffeeShopApp/pkg/database"
)

// Payment providers.
const (
	ProviderMock   = "mock"
	ProviderPayPal = "paypal"
)

// Config holds all configuration for the coffee shop service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"coffeeshop"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"coffeeshop"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"coffeeshop"`
	PostgresSSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns       int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns       int32  `env:"DB_MIN_CONNS" envDefault:"5"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 30 days)
	CartTTLHours int `env:"CART_TTL_HOURS" envDefault:"720"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Observability
	OTELEnabled      bool     `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint     string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate   float64  `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	PprofAllowedCIDR []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
	SlowQueryMS      int      `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Auth
	JWTSecret string `env:"JWT_SECRET"`

	// Payments
	PaymentProvider    string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	PaymentCurrency    string `env:"PAYMENT_CURRENCY" envDefault:"USD"`
	PayPalBaseURL      string `env:"PAYPAL_BASE_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	PayPalClientID     string `env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `env:"PAYPAL_CLIENT_SECRET"`
	PayPalReturnURL    string `env:"PAYPAL_RETURN_URL" envDefault:"coffeeshop://checkout/success"`
	PayPalCancelURL    string `env:"PAYPAL_CANCEL_URL" envDefault:"coffeeshop://checkout/cancel"`

	// HTTP edge
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from a local .env file, if present, and the
// environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithDotenv(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load coffeeshop config: %w", err)
	}
	cfg.PaymentProvider = strings.ToLower(strings.TrimSpace(cfg.PaymentProvider))
	cfg.PaymentCurrency = strings.ToUpper(strings.TrimSpace(cfg.PaymentCurrency))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate))
	}
	if c.DBMinConns > c.DBMaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns))
	}
	if c.CartTTLHours < 1 {
		errs = append(errs, fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTLHours))
	}
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET is required and must be at least 16 characters"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if _, err := currency.ParseISO(c.PaymentCurrency); err != nil {
		errs = append(errs, fmt.Errorf("PAYMENT_CURRENCY %q is not an ISO 4217 code", c.PaymentCurrency))
	}

	switch c.PaymentProvider {
	case ProviderMock:
	case ProviderPayPal:
		if c.PayPalClientID == "" || c.PayPalClientSecret == "" {
			errs = append(errs, errors.New("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required when PAYMENT_PROVIDER=paypal"))
		}
	default:
		errs = append(errs, fmt.Errorf("PAYMENT_PROVIDER must be %q or %q, got %q", ProviderMock, ProviderPayPal, c.PaymentProvider))
	}

	return errors.Join(errs...)
}

// Postgres returns the connection settings for database.NewPostgresPool.
func (c *Config) Postgres() *database.PostgresConfig {
	cfg := database.DefaultPostgresConfig()
	cfg.Host = c.PostgresHost
	cfg.Port = c.PostgresPort
	cfg.User = c.PostgresUser
	cfg.Password = c.PostgresPassword
	cfg.DBName = c.PostgresDB
	cfg.SSLMode = c.PostgresSSLMode
	cfg.MaxConns = c.DBMaxConns
	cfg.MinConns = c.DBMinConns
	return &cfg
}

// Redis returns the connection settings for database.NewRedisClient.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	cfg.Addr = c.RedisAddr
	cfg.Password = c.RedisPass
	cfg.DB = c.RedisDB
	return cfg
}

// CartTTL is the idle lifetime of a cart.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// SlowQueryThreshold is the duration above which queries are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}
