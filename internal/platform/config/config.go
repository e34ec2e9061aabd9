package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `mapstructure:"service_name"`
	HTTPPort    string `mapstructure:"http_port"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	LogLevel    string `mapstructure:"log_level"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPassword string `mapstructure:"redis_password"`

	// EventBus is "memory" (in-process) or "redis" (Redis Streams).
	EventBus string `mapstructure:"event_bus"`

	// AuthMode is "header" (trusted gateway headers) or "oidc".
	AuthMode     string `mapstructure:"auth_mode"`
	OIDCIssuer   string `mapstructure:"oidc_issuer"`
	OIDCClientID string `mapstructure:"oidc_client_id"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	StatusCacheTTL     time.Duration `mapstructure:"status_cache_ttl"`
	IdempotencyTTL     time.Duration `mapstructure:"idempotency_ttl"`
	DedupTTL           time.Duration `mapstructure:"dedup_ttl"`
	WorkerPollInterval time.Duration `mapstructure:"worker_poll_interval"`

	EnableBulkCompletionConsumer bool `mapstructure:"enable_bulk_completion_consumer"`
}

// Load reads configuration from VITRINE_* environment variables.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile reads an optional YAML file and overlays VITRINE_* environment
// variables on top of it.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VITRINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.EventBus = strings.ToLower(strings.TrimSpace(cfg.EventBus))
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.OIDCIssuer = strings.TrimRight(strings.TrimSpace(cfg.OIDCIssuer), "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.EventBus {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported event_bus %q", c.EventBus)
	}
	switch c.AuthMode {
	case "header":
	case "oidc":
		if c.OIDCIssuer == "" || c.OIDCClientID == "" {
			return fmt.Errorf("auth_mode oidc requires oidc_issuer and oidc_client_id")
		}
	default:
		return fmt.Errorf("unsupported auth_mode %q", c.AuthMode)
	}
	return nil
}

// InMemory reports whether the process runs without postgres.
func (c Config) InMemory() bool {
	return strings.TrimSpace(c.PostgresDSN) == ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "vitrine")
	v.SetDefault("http_port", "8080")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_password", "")
	v.SetDefault("event_bus", "memory")
	v.SetDefault("auth_mode", "header")
	v.SetDefault("oidc_issuer", "")
	v.SetDefault("oidc_client_id", "")
	v.SetDefault("otlp_endpoint", "")
	v.SetDefault("status_cache_ttl", 10*time.Minute)
	v.SetDefault("idempotency_ttl", 24*time.Hour)
	v.SetDefault("dedup_ttl", 7*24*time.Hour)
	v.SetDefault("worker_poll_interval", 2*time.Second)
	v.SetDefault("enable_bulk_completion_consumer", true)
}
