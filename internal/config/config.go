// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig     `env-prefix:"APP_"`
	HTTP    HTTPConfig    `env-prefix:"HTTP_"`
	Auth    AuthConfig    `env-prefix:"AUTH_"`
	Store   StoreConfig   `env-prefix:"STORE_"`
	Uploads UploadsConfig `env-prefix:"UPLOADS_"`
}

type AppConfig struct {
	// Platform "dev" enables the admin endpoints.
	Platform string `env:"PLATFORM" env-default:"production"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	Pretty   bool   `env:"PRETTY" env-default:"false"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" env-default:":5001"`
	ClientURLs      []string      `env:"CLIENT_URLS" env-separator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type AuthConfig struct {
	Secret   string        `env:"SECRET" env-required:"true"`
	TokenTTL time.Duration `env:"TOKEN_TTL" env-default:"168h"`
}

type StoreConfig struct {
	Driver          string `env:"DRIVER" env-default:"memory"`
	DSN             string `env:"DSN"`
	Database        string `env:"DATABASE" env-default:"dashboard"`
	ConnectAttempts uint   `env:"CONNECT_ATTEMPTS" env-default:"5"`
}

type UploadsConfig struct {
	Dir            string `env:"DIR" env-default:"uploads"`
	MaxAvatarBytes int64  `env:"MAX_AVATAR_BYTES" env-default:"5242880"`
}

// IsDev reports whether development-only routes are enabled.
func (c Config) IsDev() bool {
	return c.App.Platform == "dev"
}

// Parse loads envPath (if it exists) into the environment and reads the
// configuration from it.
func Parse(envPath string) (Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse cfg: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("parse cfg: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.App.LogLevel))
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres", "mongo":
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store driver %q needs STORE_DSN", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Uploads.MaxAvatarBytes <= 0 {
		errs = append(errs, errors.New("max avatar size must be positive"))
	}
	return errors.Join(errs...)
}
