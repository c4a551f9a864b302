package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Passport      PassportConfig      `mapstructure:"passport"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL               string        `mapstructure:"url"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	SeedEvents        bool          `mapstructure:"seed_events"`
}

type AuthConfig struct {
	ClerkSecretKey     string `mapstructure:"clerk_secret_key"`
	ClerkWebhookSecret string `mapstructure:"clerk_webhook_secret"`
	MetricsUser        string `mapstructure:"metrics_user"`
	MetricsPass        string `mapstructure:"metrics_pass"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	VisitorTTL        time.Duration `mapstructure:"visitor_ttl"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type PassportConfig struct {
	RegistryTimeout time.Duration `mapstructure:"registry_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

type NotificationsConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	CredentialsFile     string `mapstructure:"credentials_file"`
	CredentialsJSONBase string `mapstructure:"credentials_json_base64"`
	Workers             int    `mapstructure:"workers"`
	QueueSize           int    `mapstructure:"queue_size"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3333,
			Environment:     "development",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConns:          25,
			MinConns:          5,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
			ConnectTimeout:    10 * time.Second,
			SeedEvents:        true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             15,
			VisitorTTL:        3 * time.Minute,
			CleanupInterval:   time.Minute,
		},
		Passport: PassportConfig{
			RegistryTimeout: 3 * time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Notifications: NotificationsConfig{
			Enabled:         true,
			CredentialsFile: "./serviceAccountKey.json",
			Workers:         5,
			QueueSize:       100,
		},
	}
}

// Load reads defaults, then config.yaml if present, then SOCA_* variables,
// then the bare variable names the deployment already sets.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("SOCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see nested keys
// during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	defaults := map[string]any{
		"server.port":                           cfg.Server.Port,
		"server.environment":                    cfg.Server.Environment,
		"server.read_timeout":                   cfg.Server.ReadTimeout,
		"server.write_timeout":                  cfg.Server.WriteTimeout,
		"server.idle_timeout":                   cfg.Server.IdleTimeout,
		"server.shutdown_timeout":               cfg.Server.ShutdownTimeout,
		"server.allowed_origins":                cfg.Server.AllowedOrigins,
		"database.url":                          cfg.Database.URL,
		"database.max_conns":                    cfg.Database.MaxConns,
		"database.min_conns":                    cfg.Database.MinConns,
		"database.max_conn_lifetime":            cfg.Database.MaxConnLifetime,
		"database.max_conn_idle_time":           cfg.Database.MaxConnIdleTime,
		"database.health_check_period":          cfg.Database.HealthCheckPeriod,
		"database.connect_timeout":              cfg.Database.ConnectTimeout,
		"database.seed_events":                  cfg.Database.SeedEvents,
		"auth.clerk_secret_key":                 cfg.Auth.ClerkSecretKey,
		"auth.clerk_webhook_secret":             cfg.Auth.ClerkWebhookSecret,
		"auth.metrics_user":                     cfg.Auth.MetricsUser,
		"auth.metrics_pass":                     cfg.Auth.MetricsPass,
		"rate_limit.requests_per_second":        cfg.RateLimit.RequestsPerSecond,
		"rate_limit.burst":                      cfg.RateLimit.Burst,
		"rate_limit.visitor_ttl":                cfg.RateLimit.VisitorTTL,
		"rate_limit.cleanup_interval":           cfg.RateLimit.CleanupInterval,
		"passport.registry_timeout":             cfg.Passport.RegistryTimeout,
		"passport.request_timeout":              cfg.Passport.RequestTimeout,
		"notifications.enabled":                 cfg.Notifications.Enabled,
		"notifications.credentials_file":        cfg.Notifications.CredentialsFile,
		"notifications.credentials_json_base64": cfg.Notifications.CredentialsJSONBase,
		"notifications.workers":                 cfg.Notifications.Workers,
		"notifications.queue_size":              cfg.Notifications.QueueSize,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func loadFromEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Server.Environment = env
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if key := os.Getenv("CLERK_SECRET_KEY"); key != "" {
		cfg.Auth.ClerkSecretKey = key
	}
	if secret := os.Getenv("CLERK_WEBHOOK_SECRET"); secret != "" {
		cfg.Auth.ClerkWebhookSecret = secret
	}
	if user := os.Getenv("METRICS_USER"); user != "" {
		cfg.Auth.MetricsUser = user
	}
	if pass := os.Getenv("METRICS_PASS"); pass != "" {
		cfg.Auth.MetricsPass = pass
	}
	if creds := os.Getenv("FCM_SERVICE_ACCOUNT_JSON"); creds != "" {
		cfg.Notifications.CredentialsJSONBase = creds
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.ClerkSecretKey == "" {
		return fmt.Errorf("CLERK_SECRET_KEY is required")
	}
	if c.Passport.RegistryTimeout <= 0 {
		return fmt.Errorf("passport registry timeout must be positive")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit must allow at least one request")
	}
	if c.Notifications.Workers < 1 {
		return fmt.Errorf("notification workers must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
