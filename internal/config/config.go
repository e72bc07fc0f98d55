package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultInternalToken = "change-me-internal-token"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Tracking TrackingConfig `mapstructure:"tracking"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
	InternalToken      string        `mapstructure:"internal_token"`
	InternalAllowedIPs []string      `mapstructure:"internal_allowed_ips"`
}

// RedisConfig is optional; an empty Addr keeps locks and positions in process.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RabbitMQConfig is optional; an empty URL logs events instead of publishing them.
type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type BillingConfig struct {
	MinMinutes        int64 `mapstructure:"min_minutes"`
	CommissionBPS     int64 `mapstructure:"commission_bps"`
	PlatformAccountID int64 `mapstructure:"platform_account_id"`
}

type TrackingConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PositionTTL     time.Duration `mapstructure:"position_ttl"`
	AverageSpeedKmh float64       `mapstructure:"average_speed_kmh"`
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.App.Env)
}

// Load reads .env, an optional ./config/config.yaml and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return Parse(v)
}

// New returns a viper instance with defaults and environment binding.
// APP_ENV maps to app.env, BILLING_COMMISSION_BPS to billing.commission_bps.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("app.env", "dev")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("database.url", "tractorbooking.db")

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.jwt_ttl", "24h")
	v.SetDefault("auth.internal_token", defaultInternalToken)
	v.SetDefault("auth.internal_allowed_ips", []string{})

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "tractorbooking:")

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "tractorbooking.events")

	v.SetDefault("billing.min_minutes", 30)
	v.SetDefault("billing.commission_bps", 1500)
	v.SetDefault("billing.platform_account_id", 1)

	v.SetDefault("tracking.poll_interval", "10s")
	v.SetDefault("tracking.position_ttl", "2m")
	v.SetDefault("tracking.average_speed_kmh", 25)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by existing deployments.
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("auth.internal_token", "AUTH_INTERNAL_TOKEN", "INTERNAL_TOKEN")
	_ = v.BindEnv("app.env", "APP_ENV", "ENV")
	return v
}

func Parse(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.App.Env = strings.ToLower(strings.TrimSpace(cfg.App.Env))
	cfg.Auth.JWTSecret = strings.TrimSpace(cfg.Auth.JWTSecret)
	cfg.Auth.InternalToken = strings.TrimSpace(cfg.Auth.InternalToken)
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.Auth.JWTTTL <= 0 {
		return fmt.Errorf("AUTH_JWT_TTL must be > 0")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.Billing.MinMinutes <= 0 {
		return fmt.Errorf("BILLING_MIN_MINUTES must be > 0")
	}
	if cfg.Billing.CommissionBPS < 0 || cfg.Billing.CommissionBPS > 10000 {
		return fmt.Errorf("BILLING_COMMISSION_BPS must be between 0 and 10000")
	}
	if cfg.Billing.PlatformAccountID <= 0 {
		return fmt.Errorf("BILLING_PLATFORM_ACCOUNT_ID must be > 0")
	}
	if cfg.Tracking.PollInterval <= 0 {
		return fmt.Errorf("TRACKING_POLL_INTERVAL must be > 0")
	}
	if cfg.Tracking.PositionTTL <= 0 {
		return fmt.Errorf("TRACKING_POSITION_TTL must be > 0")
	}
	if cfg.Tracking.AverageSpeedKmh <= 0 {
		return fmt.Errorf("TRACKING_AVERAGE_SPEED_KMH must be > 0")
	}

	if isProdLike(cfg.App.Env) {
		if isEmptyOrDefault(cfg.Auth.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.Auth.InternalToken, defaultInternalToken) {
			return fmt.Errorf("in prod/release INTERNAL_TOKEN must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
