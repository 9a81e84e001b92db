package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, "/api/orders", cfg.Backend.OrdersPath)
	assert.Equal(t, "owner", cfg.Backend.OwnerParam)
	assert.Equal(t, "http://127.0.0.1:5000/api/orders", cfg.Backend.OrdersURL())
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.NotEmpty(t, cfg.Web.SessionSecret)
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://orders.example.com/")
	t.Setenv("BACKEND_ORDERS_PATH", "v2/orders/")
	t.Setenv("BACKEND_OWNER_PARAM", "vendor")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("OBS_LOG_LEVEL", " DEBUG ")
	t.Setenv("OBS_PROMETHEUS_PATH", "prom")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "https://orders.example.com/v2/orders", cfg.Backend.OrdersURL())
	assert.Equal(t, "vendor", cfg.Backend.OwnerParam)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "/prom", cfg.Observability.PrometheusPath)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{"relative backend url", "BACKEND_BASE_URL", "/api"},
		{"unknown owner param", "BACKEND_OWNER_PARAM", "client"},
		{"unknown cache driver", "CACHE_DRIVER", "memcached"},
		{"negative port", "HTTP_PORT", "-1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestEnvReaderList(t *testing.T) {
	env := newEnvReader()
	t.Setenv("KAFKA_BROKERS", "a:9092, ,b:9092")
	assert.Equal(t, []string{"a:9092", "b:9092"}, env.List("KAFKA_BROKERS", nil))

	t.Setenv("KAFKA_BROKERS", " , ")
	assert.Equal(t, []string{"x"}, env.List("KAFKA_BROKERS", []string{"x"}))
	assert.NoError(t, env.Err())
}

func TestEnvReaderCollectsMalformedValues(t *testing.T) {
	vals := map[string]string{"HTTP_PORT": "eighty", "CACHE_ENABLED": "sometimes", "BACKEND_TIMEOUT": " "}
	env := &envReader{lookup: func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}}

	assert.Equal(t, 3000, env.Int("HTTP_PORT", 3000))
	assert.True(t, env.Bool("CACHE_ENABLED", true))
	assert.Equal(t, time.Second, env.Duration("BACKEND_TIMEOUT", time.Second))

	err := env.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `HTTP_PORT="eighty" is not a valid integer`)
	assert.Contains(t, err.Error(), `CACHE_ENABLED="sometimes" is not a valid boolean`)
	assert.NotContains(t, err.Error(), "BACKEND_TIMEOUT")
}

func TestNewRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}
