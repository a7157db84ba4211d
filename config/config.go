package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of the API. It is built once by Load
// and handed to every component that needs it.
type Config struct {
	Port           string `mapstructure:"port"`
	GRPCHealthPort string `mapstructure:"grpc_health_port"`

	SupabaseURL        string `mapstructure:"supabase_url"`
	SupabaseServiceKey string `mapstructure:"supabase_service_key"`
	SupabaseJWTSecret  string `mapstructure:"supabase_jwt_secret"`
	JWTAudience        string `mapstructure:"jwt_audience"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	NotifyWorkers   int `mapstructure:"notify_workers"`
	NotifyQueueSize int `mapstructure:"notify_queue_size"`

	// SignatureStorageURL defaults to SupabaseURL.
	SignatureStorageURL string `mapstructure:"signature_storage_url"`
	SignatureBucket     string `mapstructure:"signature_bucket"`

	OTLPEndpoint string `mapstructure:"otel_exporter_otlp_endpoint"`
	LogLevel     string `mapstructure:"log_level"`

	CORSAllowOrigins    string        `mapstructure:"cors_allow_origins"`
	ShutdownTimeout     time.Duration `mapstructure:"shutdown_timeout"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
}

var defaults = map[string]interface{}{
	"port":                        "8080",
	"grpc_health_port":            "9090",
	"supabase_url":                "",
	"supabase_service_key":        "",
	"supabase_jwt_secret":         "",
	"jwt_audience":                "authenticated",
	"redis_addr":                  "localhost:6379",
	"redis_password":              "",
	"redis_db":                    0,
	"notify_workers":              4,
	"notify_queue_size":           256,
	"signature_storage_url":       "",
	"signature_bucket":            "signatures",
	"otel_exporter_otlp_endpoint": "",
	"log_level":                   "info",
	"cors_allow_origins":          "*",
	"shutdown_timeout":            "15s",
	"health_check_interval":       "30s",
}

// Load reads the configuration from the environment and, when path is not
// empty, from a config file. Environment variables are the upper-cased keys
// (SUPABASE_URL, REDIS_ADDR, ...) and take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.SignatureStorageURL == "" {
		cfg.SignatureStorageURL = cfg.SupabaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.SupabaseURL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	}
	if c.SupabaseServiceKey == "" {
		errs = append(errs, errors.New("SUPABASE_SERVICE_KEY is required"))
	}
	if c.SupabaseJWTSecret == "" {
		errs = append(errs, errors.New("SUPABASE_JWT_SECRET is required"))
	}
	if c.NotifyWorkers < 1 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be at least 1"))
	}
	if c.NotifyQueueSize < 1 {
		errs = append(errs, errors.New("NOTIFY_QUEUE_SIZE must be at least 1"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if c.HealthCheckInterval <= 0 {
		errs = append(errs, errors.New("HEALTH_CHECK_INTERVAL must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
