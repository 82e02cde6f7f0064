// Package config loads the service configuration from a YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adonese/apikit/store"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath        = "config.yaml"
	DefaultPort        = "5000"
	DefaultDatabaseURI = "sqlite:///:memory:"

	defaultLogSamplingTickMs  = 5000
	defaultLogSamplingAfterMs = 2000
)

type Config struct {
	Port               string       `yaml:"port" env:"PORT" validate:"required,numeric"`
	Debug              bool         `yaml:"debug" env:"DEBUG"`
	LogFile            string       `yaml:"log_file" env:"LOG_FILE"`
	LogSamplingTickMs  int          `yaml:"log_sampling_tick_ms" env:"LOG_SAMPLING_TICK_MS" validate:"gte=0"`
	LogSamplingAfterMs int          `yaml:"log_sampling_after_ms" env:"LOG_SAMPLING_AFTER_MS" validate:"gte=0"`
	Health             HealthConfig `yaml:"health"`
	SeedUsers          int          `yaml:"seed_users" env:"SEED_USERS" validate:"gte=0,lte=1000"`
	Database           store.Config `yaml:"database"`
	Otel               OtelConfig   `yaml:"otel"`
	Admin              AdminConfig  `yaml:"admin"`
}

// AdminConfig holds the credentials guarding admin endpoints such as the
// heap dump. With none set those endpoints answer 503 unless debug is on.
type AdminConfig struct {
	Key      string `yaml:"key" env:"ADMIN_KEY"`
	User     string `yaml:"user" env:"ADMIN_USER"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

type HealthConfig struct {
	Enabled bool `yaml:"enabled" env:"HEALTH_ENABLED"`
}

// OtelConfig enables OTLP trace export. Setting an endpoint enables it too.
type OtelConfig struct {
	Enabled        bool    `yaml:"enabled" env:"OTEL_ENABLED"`
	Endpoint       string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure       bool    `yaml:"insecure" env:"OTEL_INSECURE"`
	ServiceName    string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	ServiceVersion string  `yaml:"service_version" env:"OTEL_SERVICE_VERSION"`
	SampleRate     float64 `yaml:"sample_rate" env:"OTEL_SAMPLE_RATE" validate:"gte=0,lte=1"`
}

// Defaults is the configuration used when nothing else is given.
func Defaults() Config {
	return Config{
		Port:               DefaultPort,
		LogSamplingTickMs:  defaultLogSamplingTickMs,
		LogSamplingAfterMs: defaultLogSamplingAfterMs,
		Health:             HealthConfig{Enabled: true},
		Database:           store.Config{URI: DefaultDatabaseURI},
		Otel:               OtelConfig{ServiceName: "apikit", SampleRate: 0.1},
	}
}

// Load reads path over the defaults, then applies the environment. A
// missing path is not an error when it is the default one; a .env file in
// the working directory is loaded first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path == "" {
		path = DefaultPath
	}
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist) && path == DefaultPath:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("config file %s: %w", path, statErr)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags and the database parameters.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return c.Database.Validate()
}

// LogSampling converts the millisecond settings, falling back to the
// defaults for non-positive values.
func (c Config) LogSampling() (tick, after time.Duration) {
	return durationFromMs(c.LogSamplingTickMs, defaultLogSamplingTickMs*time.Millisecond),
		durationFromMs(c.LogSamplingAfterMs, defaultLogSamplingAfterMs*time.Millisecond)
}

// Render writes the effective configuration as YAML.
func (c Config) Render(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	return enc.Close()
}

func durationFromMs(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
