package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

const devSecret = "dev-secret-change-in-production"

// Config holds all runtime configuration, populated from the environment.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	Env     string `env:"ENV" envDefault:"development"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/contactbook?parseTime=true"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWTSecret       string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	VerifyTokenTTL  time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"168h"`

	EmailFrom     string `env:"EMAIL_FROM" envDefault:"no-reply@contactbook.local"`
	MailgunDomain string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey string `env:"MAILGUN_API_KEY"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Env == "production" && cfg.JWTSecret == devSecret {
		return Config{}, errors.New("JWT_SECRET must be set in production environment")
	}

	return cfg, nil
}
