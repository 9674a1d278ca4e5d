// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const minSecretLength = 32

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	Auth      AuthConfig      `koanf:"auth"`
	Payment   PaymentConfig   `koanf:"payment"`
	Storage   StorageConfig   `koanf:"storage"`
	Notify    NotifyConfig    `koanf:"notify"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	FrontendURL string `koanf:"frontend_url"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// JWTConfig holds the process-wide signing secret. It is read once at
// startup and handed to the token service; nothing else should touch it.
type JWTConfig struct {
	Secret            string        `koanf:"secret"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	ResetTokenExpire  time.Duration `koanf:"reset_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

type AuthConfig struct {
	ResetCodeTTL         time.Duration `koanf:"reset_code_ttl"`
	ResetCodeMaxAttempts int           `koanf:"reset_code_max_attempts"`
	ExposeResetCode      bool          `koanf:"expose_reset_code"`
}

type PaymentConfig struct {
	Enabled       bool          `koanf:"enabled"`
	SecretKey     string        `koanf:"secret_key"`
	WebhookSecret string        `koanf:"webhook_secret"`
	Currency      string        `koanf:"currency"`
	Timeout       time.Duration `koanf:"timeout"`
	GrantTimeout  time.Duration `koanf:"grant_timeout"`
}

type StorageConfig struct {
	Driver        string        `koanf:"driver"`
	PublicBaseURL string        `koanf:"public_base_url"`
	Bucket        string        `koanf:"bucket"`
	Region        string        `koanf:"region"`
	Endpoint      string        `koanf:"endpoint"`
	AccessKey     string        `koanf:"access_key"`
	SecretKey     string        `koanf:"secret_key"`
	PresignExpire time.Duration `koanf:"presign_expire"`
	MaxUploadSize int64         `koanf:"max_upload_size"`
}

type NotifyConfig struct {
	Driver  string        `koanf:"driver"`
	AMQPURL string        `koanf:"amqp_url"`
	Queue   string        `koanf:"queue"`
	Timeout time.Duration `koanf:"timeout"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthBurst    int           `koanf:"auth_burst"`
	// TrustedProxies lists the CIDRs whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the peer address is the client.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":         "learnhub",
		"app.version":      "1.0.0",
		"app.environment":  "development",
		"app.frontend_url": "http://localhost:3000",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire": "24h",
		"jwt.reset_token_expire":  "15m",
		"jwt.issuer":              "learnhub",
		"jwt.audience":            "learnhub-api",

		"auth.reset_code_ttl":          "15m",
		"auth.reset_code_max_attempts": 5,
		"auth.expose_reset_code":       false,

		"payment.enabled":       true,
		"payment.currency":      "usd",
		"payment.timeout":       "10s",
		"payment.grant_timeout": "10s",

		"storage.driver":          "public",
		"storage.public_base_url": "http://localhost:9000/course-videos",
		"storage.bucket":          "course-videos",
		"storage.region":          "us-east-1",
		"storage.presign_expire":  "15m",
		"storage.max_upload_size": 512 << 20,

		"notify.driver":  "log",
		"notify.queue":   "auth.password_reset",
		"notify.timeout": "5s",

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 10,
		"rate_limit.auth_burst":    5,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "learnhub",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"FRONTEND_URL":                "app.frontend_url",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_SECRET":                  "jwt.secret",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_RESET_TOKEN_EXPIRE":      "jwt.reset_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RESET_CODE_TTL":              "auth.reset_code_ttl",
	"EXPOSE_RESET_CODE":           "auth.expose_reset_code",
	"RESET_CODE_MAX_ATTEMPTS":     "auth.reset_code_max_attempts",
	"PAYMENTS_ENABLED":            "payment.enabled",
	"STRIPE_SECRET":               "payment.secret_key",
	"STRIPE_WEBHOOK_SECRET":       "payment.webhook_secret",
	"PAYMENT_CURRENCY":            "payment.currency",
	"STORAGE_DRIVER":              "storage.driver",
	"STORAGE_PUBLIC_BASE_URL":     "storage.public_base_url",
	"S3_BUCKET":                   "storage.bucket",
	"S3_REGION":                   "storage.region",
	"S3_ENDPOINT":                 "storage.endpoint",
	"S3_ACCESS_KEY":               "storage.access_key",
	"S3_SECRET_KEY":               "storage.secret_key",
	"NOTIFY_DRIVER":               "notify.driver",
	"RABBITMQ_URL":                "notify.amqp_url",
	"NOTIFY_QUEUE":                "notify.queue",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"RATE_LIMIT_AUTH_BURST":       "rate_limit.auth_burst",
	"TRUSTED_PROXIES":             "rate_limit.trusted_proxies",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf(
			"JWT_SECRET must be at least %d characters",
			minSecretLength,
		)
	}

	if c.JWT.AccessTokenExpire <= 0 || c.JWT.ResetTokenExpire <= 0 {
		return fmt.Errorf("jwt token lifetimes must be positive")
	}

	if c.Auth.ResetCodeTTL <= 0 {
		return fmt.Errorf("auth.reset_code_ttl must be positive")
	}

	if c.Auth.ResetCodeMaxAttempts <= 0 {
		return fmt.Errorf("auth.reset_code_max_attempts must be positive")
	}

	for _, cidr := range c.RateLimit.TrustedProxies {
		if _, err := netip.ParsePrefix(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
	}

	if c.Payment.Enabled {
		if c.Payment.SecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET is required when payments are enabled")
		}
		if c.Payment.WebhookSecret == "" {
			return fmt.Errorf(
				"STRIPE_WEBHOOK_SECRET is required when payments are enabled",
			)
		}
	}

	switch c.Storage.Driver {
	case "public":
		if c.Storage.PublicBaseURL == "" {
			return fmt.Errorf("STORAGE_PUBLIC_BASE_URL is required for public storage")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Notify.Driver {
	case "log":
	case "amqp":
		if c.Notify.AMQPURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required for amqp notifications")
		}
	default:
		return fmt.Errorf("unknown notify driver %q", c.Notify.Driver)
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.Auth.ExposeResetCode {
			return fmt.Errorf("EXPOSE_RESET_CODE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResetLink builds the frontend URL a reset token is delivered in.
func (a *AppConfig) ResetLink(token string) string {
	return strings.TrimRight(a.FrontendURL, "/") + "/reset-password?token=" +
		url.QueryEscape(token)
}
