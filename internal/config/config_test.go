package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "coffeeshop", cfg.PostgresDB)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*24*time.Hour, cfg.CartTTL())
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, ProviderMock, cfg.PaymentProvider)
	assert.Equal(t, "USD", cfg.PaymentCurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowQueryThreshold())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.PprofAllowedCIDR)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PAYMENT_CURRENCY", " eur ")
	t.Setenv("PAYMENT_PROVIDER", "PayPal")
	t.Setenv("PAYPAL_CLIENT_ID", "client")
	t.Setenv("PAYPAL_CLIENT_SECRET", "secret")
	t.Setenv("PPROF_ALLOWED_CIDRS", "10.0.0.0/8,127.0.0.1/32")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "EUR", cfg.PaymentCurrency)
	assert.Equal(t, ProviderPayPal, cfg.PaymentProvider)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1/32"}, cfg.PprofAllowedCIDR)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET is required"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET is required"},
		{"port zero", map[string]string{"HTTP_PORT": "0"}, "invalid HTTP port"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"pool sizes", map[string]string{"DB_MIN_CONNS": "30"}, "DB_MIN_CONNS (30) must not exceed DB_MAX_CONNS (25)"},
		{"currency", map[string]string{"PAYMENT_CURRENCY": "DOLLARS"}, "not an ISO 4217 code"},
		{"provider", map[string]string{"PAYMENT_PROVIDER": "stripe"}, "PAYMENT_PROVIDER must be"},
		{"paypal without credentials", map[string]string{"PAYMENT_PROVIDER": "paypal"}, "PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required"},
		{"cart ttl", map[string]string{"CART_TTL_HOURS": "0"}, "CART_TTL_HOURS must be positive"},
		{"rate limit", map[string]string{"RATE_LIMIT_RPS": "0"}, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"},
		{"non-numeric port", map[string]string{"HTTP_PORT": "http"}, "load coffeeshop config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_StoreSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, int32(25), pg.MaxConns)
	assert.Equal(t, time.Hour, pg.MaxConnLifetime)

	rc := cfg.Redis()
	assert.Equal(t, 3, rc.DB)
	assert.Equal(t, "localhost:6379", rc.Addr)
}
