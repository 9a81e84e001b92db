package config

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// HTTP holds console HTTP server configuration.
type HTTP struct {
	Host string
	Port int
}

// Backend describes the external order tracking REST service.
type Backend struct {
	BaseURL    string
	OrdersPath string
	OwnerParam string
	Timeout    time.Duration
}

// OrdersURL joins the base URL and the orders resource path.
func (b Backend) OrdersURL() string {
	return strings.TrimRight(b.BaseURL, "/") + b.OrdersPath
}

// Web holds browser facing settings of the console.
type Web struct {
	SessionSecret string
	SecureCookies bool
}

// Catalog points at the optional status/owner catalog file.
type Catalog struct {
	File string
}

// Cache configures the per-session view state store.
type Cache struct {
	Enabled    bool
	Driver     string
	DefaultTTL time.Duration
	Redis      Redis
}

// Redis contains redis-specific connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Messaging configures the audit event bus.
type Messaging struct {
	Driver        string
	Enabled       bool
	Kafka         Kafka
	ConsumerGroup string
	Workers       Worker
}

// Kafka holds Kafka connection details.
type Kafka struct {
	Brokers        []string
	ClientID       string
	Topic          string
	CommitInterval time.Duration
	MinBytes       int
	MaxBytes       int
	ConnectTimeout time.Duration
}

// Worker configures background worker concurrency and polling.
type Worker struct {
	Enabled      bool
	PollInterval time.Duration
	Concurrency  int
}

// Observability contains logging, tracing, and metrics configuration.
type Observability struct {
	ServiceName     string
	Environment     string
	LogLevel        string
	LogEncoding     string
	LogFile         string
	EnableTracing   bool
	TraceExporter   string
	TraceEndpoint   string
	TraceInsecure   bool
	EnableMetrics   bool
	MetricsExporter string
	PrometheusPath  string
}

// Config wraps all application configuration knobs.
type Config struct {
	HTTP          HTTP
	Backend       Backend
	Web           Web
	Catalog       Catalog
	Cache         Cache
	Messaging     Messaging
	Observability Observability
}

// Module wires the configuration loader into the Fx graph.
var Module = fx.Provide(New)

var loadEnvOnce sync.Once

// New builds a Config from environment variables or defaults.
func New() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	env := newEnvReader()
	cfg := Config{
		HTTP: HTTP{
			Host: env.String("HTTP_HOST", "0.0.0.0"),
			Port: env.Int("HTTP_PORT", 3000),
		},
		Backend: Backend{
			BaseURL:    env.String("BACKEND_BASE_URL", "http://127.0.0.1:5000"),
			OrdersPath: env.String("BACKEND_ORDERS_PATH", "/api/orders"),
			OwnerParam: env.String("BACKEND_OWNER_PARAM", "owner"),
			Timeout:    env.Duration("BACKEND_TIMEOUT", 10*time.Second),
		},
		Web: Web{
			SessionSecret: env.String("WEB_SESSION_SECRET", ""),
			SecureCookies: env.Bool("WEB_SECURE_COOKIES", false),
		},
		Catalog: Catalog{
			File: env.String("CATALOG_FILE", ""),
		},
		Cache: Cache{
			Enabled:    env.Bool("CACHE_ENABLED", true),
			Driver:     env.String("CACHE_DRIVER", "memory"),
			DefaultTTL: env.Duration("CACHE_DEFAULT_TTL", time.Hour),
			Redis: Redis{
				Addr:     env.String("REDIS_ADDR", "127.0.0.1:6379"),
				Password: env.String("REDIS_PASSWORD", ""),
				DB:       env.Int("REDIS_DB", 0),
			},
		},
		Messaging: Messaging{
			Driver:  env.String("MESSAGING_DRIVER", "kafka"),
			Enabled: env.Bool("MESSAGING_ENABLED", false),
			Kafka: Kafka{
				Brokers:        env.List("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
				ClientID:       env.String("KAFKA_CLIENT_ID", "ordertrack-console"),
				Topic:          env.String("KAFKA_TOPIC", "orders.audit"),
				CommitInterval: env.Duration("KAFKA_COMMIT_INTERVAL", time.Second),
				MinBytes:       env.Int("KAFKA_MIN_BYTES", 10e3),
				MaxBytes:       env.Int("KAFKA_MAX_BYTES", 10e6),
				ConnectTimeout: env.Duration("KAFKA_CONNECT_TIMEOUT", 5*time.Second),
			},
			ConsumerGroup: env.String("KAFKA_CONSUMER_GROUP", "ordertrack-audit"),
			Workers: Worker{
				Enabled:      env.Bool("WORKER_ENABLED", true),
				PollInterval: env.Duration("WORKER_POLL_INTERVAL", time.Second),
				Concurrency:  env.Int("WORKER_CONCURRENCY", 1),
			},
		},
		Observability: Observability{
			ServiceName:     env.String("OBS_SERVICE_NAME", "ordertrack-console"),
			Environment:     env.String("OBS_ENVIRONMENT", "local"),
			LogLevel:        env.String("OBS_LOG_LEVEL", "info"),
			LogEncoding:     env.String("OBS_LOG_ENCODING", "json"),
			LogFile:         env.String("OBS_LOG_FILE", ""),
			EnableTracing:   env.Bool("OBS_ENABLE_TRACING", false),
			TraceExporter:   env.String("OBS_TRACE_EXPORTER", "stdout"),
			TraceEndpoint:   env.String("OBS_OTLP_ENDPOINT", "localhost:4317"),
			TraceInsecure:   env.Bool("OBS_OTLP_INSECURE", true),
			EnableMetrics:   env.Bool("OBS_ENABLE_METRICS", true),
			MetricsExporter: env.String("OBS_METRICS_EXPORTER", "prometheus"),
			PrometheusPath:  env.String("OBS_PROMETHEUS_PATH", "/metrics"),
		},
	}
	if err := env.Err(); err != nil {
		return Config{}, err
	}

	return normalize(cfg)
}

func normalize(cfg Config) (Config, error) {
	if cfg.HTTP.Port <= 0 {
		return Config{}, fmt.Errorf("invalid HTTP port: %d", cfg.HTTP.Port)
	}

	cfg.Backend.BaseURL = strings.TrimSpace(cfg.Backend.BaseURL)
	if cfg.Backend.BaseURL == "" {
		return Config{}, fmt.Errorf("missing BACKEND_BASE_URL")
	}
	if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid BACKEND_BASE_URL: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.OrdersPath == "" {
		cfg.Backend.OrdersPath = "/api/orders"
	} else if !strings.HasPrefix(cfg.Backend.OrdersPath, "/") {
		cfg.Backend.OrdersPath = "/" + cfg.Backend.OrdersPath
	}
	cfg.Backend.OrdersPath = strings.TrimRight(cfg.Backend.OrdersPath, "/")
	switch cfg.Backend.OwnerParam {
	case "owner", "vendor":
		// supported
	case "":
		cfg.Backend.OwnerParam = "owner"
	default:
		return Config{}, fmt.Errorf("unsupported BACKEND_OWNER_PARAM: %s", cfg.Backend.OwnerParam)
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}

	if cfg.Web.SessionSecret == "" {
		cfg.Web.SessionSecret = "ordertrack-console-secret-change-me"
	}

	if !cfg.Cache.Enabled {
		cfg.Cache.Driver = "noop"
	}

	switch cfg.Cache.Driver {
	case "memory", "redis", "noop":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}

	if cfg.Cache.Driver == "redis" && cfg.Cache.Redis.Addr == "" {
		return Config{}, fmt.Errorf("missing REDIS_ADDR for redis cache")
	}

	if cfg.Cache.DefaultTTL <= 0 {
		cfg.Cache.DefaultTTL = time.Hour
	}

	cfg.Observability.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Observability.LogLevel))
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	cfg.Observability.LogEncoding = strings.ToLower(strings.TrimSpace(cfg.Observability.LogEncoding))
	if cfg.Observability.LogEncoding == "" {
		cfg.Observability.LogEncoding = "json"
	}
	cfg.Observability.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.TraceExporter))
	if cfg.Observability.TraceExporter == "" {
		cfg.Observability.TraceExporter = "stdout"
	}
	cfg.Observability.MetricsExporter = strings.ToLower(strings.TrimSpace(cfg.Observability.MetricsExporter))
	if cfg.Observability.MetricsExporter == "" {
		cfg.Observability.MetricsExporter = "prometheus"
	}

	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	} else if !strings.HasPrefix(cfg.Observability.PrometheusPath, "/") {
		cfg.Observability.PrometheusPath = "/" + cfg.Observability.PrometheusPath
	}

	if !cfg.Messaging.Enabled {
		cfg.Messaging.Driver = "noop"
	}

	switch cfg.Messaging.Driver {
	case "kafka", "noop":
		// supported
	default:
		return Config{}, fmt.Errorf("unsupported messaging driver: %s", cfg.Messaging.Driver)
	}

	if cfg.Messaging.Driver == "kafka" {
		if len(cfg.Messaging.Kafka.Brokers) == 0 {
			return Config{}, fmt.Errorf("KAFKA_BROKERS must be provided")
		}
		if cfg.Messaging.Kafka.Topic == "" {
			return Config{}, fmt.Errorf("KAFKA_TOPIC must be provided")
		}
		if cfg.Messaging.ConsumerGroup == "" {
			return Config{}, fmt.Errorf("KAFKA_CONSUMER_GROUP must be provided")
		}
	}

	if cfg.Messaging.Workers.Concurrency <= 0 {
		cfg.Messaging.Workers.Concurrency = 1
	}
	if cfg.Messaging.Workers.PollInterval <= 0 {
		cfg.Messaging.Workers.PollInterval = time.Second
	}

	return cfg, nil
}
