// Package config loads the gateway's deployment settings. Request limits are
// compile-time constants elsewhere; only listen addresses, logging and
// resource caps live here. No secrets are ever stored in the config file.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML or
// YAML file, and REDISGATE_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"redisgate/cli/internal/xdg"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvLogLevel  = "REDISGATE_LOG_LEVEL"
	EnvLogFormat = "REDISGATE_LOG_FORMAT"
	EnvHTTPAddr  = "REDISGATE_HTTP_ADDR"
	EnvGRPCAddr  = "REDISGATE_GRPC_ADDR"
)

// FileName is the config file looked up in the XDG config dir.
const FileName = "config.toml"

// Config holds non-sensitive gateway settings.
type Config struct {
	LogLevel        string        `validate:"oneof=trace debug info warn error disabled"`
	LogFormat       string        `validate:"oneof=console json"`
	HTTPAddr        string        `validate:"required,hostname_port"`
	GRPCAddr        string        `validate:"omitempty,hostname_port"`
	CommandTimeout  time.Duration `validate:"gte=0"`
	MaxConnections  int64         `validate:"gte=0"`
	MaxBodyBytes    int64         `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	// CORSOrigins lists browser origins allowed to call the HTTP API. "*" allows any.
	CORSOrigins []string `validate:"dive,required"`
}

// fileConfig is the on-disk shape. Durations are strings like "10s".
type fileConfig struct {
	LogLevel        string   `toml:"log_level" yaml:"log_level"`
	LogFormat       string   `toml:"log_format" yaml:"log_format"`
	HTTPAddr        string   `toml:"http_addr" yaml:"http_addr"`
	GRPCAddr        string   `toml:"grpc_addr" yaml:"grpc_addr"`
	CommandTimeout  string   `toml:"command_timeout" yaml:"command_timeout"`
	MaxConnections  int64    `toml:"max_connections" yaml:"max_connections"`
	MaxBodyBytes    int64    `toml:"max_body_bytes" yaml:"max_body_bytes"`
	ShutdownTimeout string   `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins" yaml:"cors_origins"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:        "info",
		LogFormat:       "console",
		HTTPAddr:        ":8080",
		CommandTimeout:  10 * time.Second,
		MaxConnections:  64,
		MaxBodyBytes:    64 << 10,
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultPath returns the config file path in the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads configuration from path, or from DefaultPath when path is empty.
// A missing default file yields defaults; a missing explicit file is an error.
// Environment overrides are applied last and the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	if err := loadFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	var raw fileConfig
	var defined func(key string) bool

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		defined = func(key string) bool { return meta.IsDefined(key) }
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		var keys map[string]any
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		defined = func(key string) bool {
			_, ok := keys[key]
			return ok
		}
	default:
		return fmt.Errorf("load config %s: unsupported format %q (use .toml, .yaml or .yml)", path, ext)
	}

	return overlay(cfg, raw, defined)
}

// overlay copies only the keys present in the file onto cfg.
func overlay(cfg *Config, raw fileConfig, defined func(string) bool) error {
	if defined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if defined("log_format") {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(raw.LogFormat))
	}
	if defined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}
	if defined("grpc_addr") {
		cfg.GRPCAddr = strings.TrimSpace(raw.GRPCAddr)
	}
	if defined("command_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.CommandTimeout))
		if err != nil {
			return fmt.Errorf("parse command_timeout: %w", err)
		}
		cfg.CommandTimeout = d
	}
	if defined("max_connections") {
		cfg.MaxConnections = raw.MaxConnections
	}
	if defined("max_body_bytes") {
		cfg.MaxBodyBytes = raw.MaxBodyBytes
	}
	if defined("shutdown_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ShutdownTimeout))
		if err != nil {
			return fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if defined("cors_origins") {
		cfg.CORSOrigins = normalizeOrigins(raw.CORSOrigins)
	}
	return nil
}

func normalizeOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		v := strings.TrimRight(strings.TrimSpace(o), "/")
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHTTPAddr)); v != "" {
		cfg.HTTPAddr = v
	}
	if v, ok := os.LookupEnv(EnvGRPCAddr); ok {
		cfg.GRPCAddr = strings.TrimSpace(v)
	}
}

// Validate checks field ranges and formats.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s)", fe.Field(), fe.Value(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) file() fileConfig {
	return fileConfig{
		LogLevel:        c.LogLevel,
		LogFormat:       c.LogFormat,
		HTTPAddr:        c.HTTPAddr,
		GRPCAddr:        c.GRPCAddr,
		CommandTimeout:  c.CommandTimeout.String(),
		MaxConnections:  c.MaxConnections,
		MaxBodyBytes:    c.MaxBodyBytes,
		ShutdownTimeout: c.ShutdownTimeout.String(),
		CORSOrigins:     c.CORSOrigins,
	}
}

// TOML renders c in the on-disk TOML format.
func (c Config) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.file()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes c as TOML to path with 0600 permissions.
func Save(path string, c Config) error {
	b, err := c.TOML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
