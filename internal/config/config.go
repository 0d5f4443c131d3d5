package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const minSecretLength = 32

type Config struct {
	Port           string        `mapstructure:"API_PORT"`
	Env            string        `mapstructure:"ENV"`
	MongoURI       string        `mapstructure:"MONGO_URI"`
	MongoDatabase  string        `mapstructure:"MONGO_DATABASE"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	CORSOrigins    []string      `mapstructure:"-"`
	TextbeltAPIKey string        `mapstructure:"TEXTBELT_API_KEY"`
	LoginRateRPS   float64       `mapstructure:"LOGIN_RATE_RPS"`
	LoginRateBurst int           `mapstructure:"LOGIN_RATE_BURST"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	// InMemory selects the in-memory repositories instead of MongoDB.
	InMemory bool `mapstructure:"-"`
}

var keys = []string{
	"API_PORT", "ENV", "MONGO_URI", "MONGO_DATABASE", "JWT_SECRET", "TOKEN_TTL",
	"CORS_ORIGINS", "TEXTBELT_API_KEY", "LOGIN_RATE_RPS", "LOGIN_RATE_BURST", "LOG_LEVEL",
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("API_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_DATABASE", "clinic")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOGIN_RATE_RPS", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
	v.SetDefault("LOG_LEVEL", "info")

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate refuses configurations the server cannot safely run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if !c.InMemory && c.MongoURI == "" {
		return errors.New("MONGO_URI is required unless the in-memory store is used")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.LoginRateRPS <= 0 || c.LoginRateBurst <= 0 {
		return errors.New("LOGIN_RATE_RPS and LOGIN_RATE_BURST must be positive")
	}
	return nil
}
