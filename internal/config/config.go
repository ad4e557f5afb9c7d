package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

const devCodeDigits = "1234567890"

// Config holds the application configuration. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	Port        string `env:"PORT" envDefault:"8080"`
	DevMode     bool   `env:"DEV_MODE" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Auth AuthConfig

	RedisURL        string        `env:"REDIS_URL"`
	KafkaBrokers    []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaCodeTopic  string        `env:"KAFKA_CODE_TOPIC" envDefault:"auth-codes"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"1h"`

	S3 S3Config
}

// AuthConfig carries the signing and expiry policy for tokens and one-time codes.
type AuthConfig struct {
	Secret                 string `env:"AUTH_SECRET,required,notEmpty"`
	Algorithm              string `env:"AUTH_ALGORITHM,required,notEmpty"`
	AccessTokenExpireSecs  int    `env:"ACCESS_TOKEN_EXPIRE_SECONDS,required"`
	RefreshTokenExpireDays int    `env:"REFRESH_TOKEN_EXPIRE_DAYS,required"`
	CodeLength             int    `env:"AUTH_CODE_LENGTH,required"`
	CodeExpireSecs         int    `env:"AUTH_CODE_EXPIRE_SECONDS,required"`
	CodeSalt               string `env:"AUTH_CODE_SALT,required,notEmpty"`
}

// S3Config configures the optional media store.
type S3Config struct {
	EndpointURL string `env:"S3_ENDPOINT_URL"`
	Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKey   string `env:"S3_ACCESS_KEY"`
	SecretKey   string `env:"S3_SECRET_KEY"`
	Bucket      string `env:"S3_BUCKET"`
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireSecs) * time.Second
}

// RefreshTokenTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenExpireDays) * 24 * time.Hour
}

// CodeTTL returns how long a one-time code stays valid.
func (a AuthConfig) CodeTTL() time.Duration {
	return time.Duration(a.CodeExpireSecs) * time.Second
}

// DevCode returns the fixed one-time code used in dev mode, or "" outside dev mode.
func (c *Config) DevCode() string {
	if !c.DevMode {
		return ""
	}
	return devCodeDigits[:c.Auth.CodeLength]
}

// MediaEnabled reports whether the S3 media store is configured.
func (c *Config) MediaEnabled() bool {
	return c.S3.Bucket != ""
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that struct tags cannot express.
func (c *Config) Validate() error {
	if _, err := url.Parse(c.DatabaseURL); err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported AUTH_ALGORITHM %q (want HS256, HS384 or HS512)", c.Auth.Algorithm)
	}

	if !c.DevMode && len(c.Auth.Secret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 bytes")
	}
	if c.Auth.AccessTokenExpireSecs <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_SECONDS must be positive")
	}
	if c.Auth.RefreshTokenExpireDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if c.Auth.CodeExpireSecs <= 0 {
		return fmt.Errorf("AUTH_CODE_EXPIRE_SECONDS must be positive")
	}
	if c.Auth.CodeLength < 4 || c.Auth.CodeLength > 10 {
		return fmt.Errorf("AUTH_CODE_LENGTH must be between 4 and 10")
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("JANITOR_INTERVAL must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaCodeTopic == "" {
		return fmt.Errorf("KAFKA_CODE_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MediaEnabled() && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_BUCKET is set")
	}
	return nil
}
