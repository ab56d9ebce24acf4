// Package config loads manipd settings: defaults, then an optional YAML
// file, then MANIPD_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/frontend"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Redis configures the optional distributed lock.
type Redis struct {
	Addr     string        `yaml:"addr" json:"addr" env:"ADDR"`
	Password string        `yaml:"password" json:"-" env:"PASSWORD"`
	DB       int           `yaml:"db" json:"db" env:"DB"`
	Prefix   string        `yaml:"prefix" json:"prefix" env:"PREFIX"`
	LockTTL  time.Duration `yaml:"lock_ttl" json:"lock_ttl" env:"LOCK_TTL"`
}

// Enabled reports whether a Redis address is configured.
func (r Redis) Enabled() bool { return r.Addr != "" }

// Settings are the scalar values that environment variables may override.
type Settings struct {
	ModelRoot        string `yaml:"model_root" json:"model_root" env:"MANIPD_MODEL_ROOT"`
	LogLevel         string `yaml:"log_level" json:"log_level" env:"MANIPD_LOG_LEVEL"`
	LogFormat        string `yaml:"log_format" json:"log_format" env:"MANIPD_LOG_FORMAT"`
	CoreAddr         string `yaml:"core_addr" json:"core_addr" env:"MANIPD_CORE_ADDR"`
	ManipulationAddr string `yaml:"manipulation_addr" json:"manipulation_addr" env:"MANIPD_MANIPULATION_ADDR"`
	OTelEndpoint     string `yaml:"otel_endpoint" json:"otel_endpoint,omitempty" env:"MANIPD_OTEL_ENDPOINT"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"MANIPD_SHUTDOWN_TIMEOUT"`

	Redis Redis `yaml:"redis" json:"redis" envPrefix:"MANIPD_REDIS_"`

	// ExtensionList overrides Config.Extensions as "kind=addr" pairs,
	// e.g. MANIPD_EXTENSIONS=mcp=:8090,pinned=:8091.
	ExtensionList []string `yaml:"-" json:"-" env:"MANIPD_EXTENSIONS" envSeparator:","`
}

// Config holds every manipd setting.
type Config struct {
	Settings `yaml:",inline"`

	// Extensions are started after the manipulation front-end, in order.
	Extensions []frontend.Spec `yaml:"extensions" json:"extensions"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{Settings: Settings{
		ModelRoot:        ".",
		LogLevel:         "info",
		LogFormat:        string(logging.FormatText),
		CoreAddr:         ":8080",
		ManipulationAddr: ":8081",
		ShutdownTimeout:  5 * time.Second,
		Redis: Redis{
			Prefix:  "manipd:",
			LockTTL: 30 * time.Second,
		},
	}}
}

// Load builds the configuration. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg.Settings); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.ExtensionList) > 0 {
		specs, err := parseExtensionList(cfg.ExtensionList)
		if err != nil {
			return Config{}, err
		}
		cfg.Extensions = specs
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func parseExtensionList(list []string) ([]frontend.Spec, error) {
	specs := make([]frontend.Spec, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kind, addr, ok := strings.Cut(item, "=")
		if !ok || kind == "" || addr == "" {
			return nil, fmt.Errorf("MANIPD_EXTENSIONS: expected kind=addr, got %q", item)
		}
		specs = append(specs, frontend.Spec{Kind: kind, Addr: addr})
	}
	return specs, nil
}

// Validate checks values that cannot be checked by decoding.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch logging.Format(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.CoreAddr == "" || c.ManipulationAddr == "" {
		errs = append(errs, errors.New("core_addr and manipulation_addr are required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	for i, ext := range c.Extensions {
		if ext.Kind == "" || ext.Addr == "" {
			errs = append(errs, fmt.Errorf("extension %d: kind and addr are required", i))
		}
	}
	return errors.Join(errs...)
}

// Logger builds the logger described by the configuration.
func (c Config) Logger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level, logging.Format(c.LogFormat)), nil
}
