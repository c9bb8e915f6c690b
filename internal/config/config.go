// Package config loads agentmux settings from a YAML file, a .env file and
// AGENTMUX_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/orchestrator"
	"github.com/dusk-indust/agentmux/internal/tracing"
)

// EnvPrefix prefixes every environment override, e.g. AGENTMUX_COMPLETION_ENDPOINT.
const EnvPrefix = "AGENTMUX"

// FileName is the config file base name searched for when no path is given.
const FileName = "agentmux"

// Config holds all configuration for agentmux.
type Config struct {
	Completion CompletionConfig `mapstructure:"completion"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    tracing.Config   `mapstructure:"tracing"`

	// Source is the config file that was read, empty when only defaults and
	// environment were used.
	Source string `mapstructure:"-"`
}

// CompletionConfig holds completion backend settings.
type CompletionConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	CredentialHeader string        `mapstructure:"credential_header"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Temperature      float64       `mapstructure:"temperature"`
}

// DispatchConfig holds responder fan-out settings.
type DispatchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RegistryConfig points at the responder registry.
type RegistryConfig struct {
	// File is a YAML registry; empty means the built-in defaults.
	File              string `mapstructure:"file"`
	FallbackResponder string `mapstructure:"fallback_responder"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			Endpoint:         completion.DefaultEndpoint,
			CredentialHeader: completion.DefaultCredentialHeader,
			Timeout:          completion.DefaultTimeout,
			Temperature:      completion.DefaultTemperature,
		},
		Dispatch: DispatchConfig{
			Timeout: orchestrator.DefaultDispatchTimeout,
		},
		Registry: RegistryConfig{
			FallbackResponder: orchestrator.DefaultFallbackResponder,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: tracing.Config{
			Enabled:     false,
			ServiceName: "agentmux",
		},
	}
}

// Load reads configuration. Precedence, highest first:
//  1. AGENTMUX_* environment variables (including ones set by .env)
//  2. the config file at path, or AGENTMUX_CONFIG, or agentmux.yaml in the
//     working directory or the user config directory
//  3. built-in defaults
//
// A missing config file is not an error unless it was named explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(userConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: reading config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	cfg.Registry.File = expandPath(cfg.Registry.File, cfg.Source)

	return cfg, nil
}

// Validate checks that durations are positive and the endpoint is an
// absolute http(s) URL. The fallback responder is checked against the
// registry later, by orchestrator.New.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Completion.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("completion.endpoint must be an absolute http(s) URL, got %q", c.Completion.Endpoint))
	}
	if strings.TrimSpace(c.Completion.CredentialHeader) == "" {
		errs = append(errs, errors.New("completion.credential_header is required"))
	}
	if c.Completion.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("completion.timeout must be positive, got %s", c.Completion.Timeout))
	}
	if c.Dispatch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("dispatch.timeout must be positive, got %s", c.Dispatch.Timeout))
	}
	if strings.TrimSpace(c.Registry.FallbackResponder) == "" {
		errs = append(errs, errors.New("registry.fallback_responder is required"))
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_header_timeout must be positive, got %s", c.Server.ReadHeaderTimeout))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Orchestrator returns the pipeline settings.
func (c *Config) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		FallbackResponder: c.Registry.FallbackResponder,
		DispatchTimeout:   c.Dispatch.Timeout,
	}
}

// ClientOptions returns the completion client options for c.
func (c *Config) ClientOptions() []completion.ClientOption {
	return []completion.ClientOption{
		completion.WithEndpoint(c.Completion.Endpoint),
		completion.WithCredentialHeader(c.Completion.CredentialHeader),
		completion.WithTimeout(c.Completion.Timeout),
		completion.WithTemperature(c.Completion.Temperature),
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("completion.endpoint", d.Completion.Endpoint)
	v.SetDefault("completion.credential_header", d.Completion.CredentialHeader)
	v.SetDefault("completion.timeout", d.Completion.Timeout.String())
	v.SetDefault("completion.temperature", d.Completion.Temperature)

	v.SetDefault("dispatch.timeout", d.Dispatch.Timeout.String())

	v.SetDefault("registry.file", "")
	v.SetDefault("registry.fallback_responder", d.Registry.FallbackResponder)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout.String())

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.otlp_endpoint", "")
}

// userConfigDir returns $XDG_CONFIG_HOME/agentmux or ~/.config/agentmux.
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentmux")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentmux")
	}
	return filepath.Join(home, ".config", "agentmux")
}

// expandPath resolves env references in p and makes a relative p relative to
// the config file's directory.
func expandPath(p, source string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if filepath.IsAbs(p) || source == "" {
		return p
	}
	return filepath.Join(filepath.Dir(source), p)
}
