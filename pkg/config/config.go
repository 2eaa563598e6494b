// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads shelfwatch settings from YAML, HCL, JSON or TOML.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreREST   = "rest"
)

const (
	DefaultPollInterval = 60 * time.Second
	DefaultStorePath    = "inventory.yaml"
	DefaultMailTimeout  = 15 * time.Second
	minPollInterval     = time.Second
)

// ⏱️ Duration is a time.Duration written as "90s" or "5m" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return errors.Errorf("parsing duration %q: %w", string(b), err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// 🗄️ StoreConfig selects where items are read from
type StoreConfig struct {
	Kind      string   `json:"kind" yaml:"kind" toml:"kind"`
	Path      string   `json:"path,omitempty" yaml:"path,omitempty" toml:"path"`
	URL       string   `json:"url,omitempty" yaml:"url,omitempty" toml:"url"`
	APIKey    string   `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key"`
	Table     string   `json:"table,omitempty" yaml:"table,omitempty" toml:"table"`
	Locations []string `json:"locations,omitempty" yaml:"locations,omitempty" toml:"locations"`
}

// 🖥️ LocalConfig controls terminal alerts
type LocalConfig struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled"`
}

// 📧 EmailConfig controls alert emails
type EmailConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Endpoint   string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint"`
	ServiceID  string   `json:"service_id,omitempty" yaml:"service_id,omitempty" toml:"service_id"`
	TemplateID string   `json:"template_id,omitempty" yaml:"template_id,omitempty" toml:"template_id"`
	UserID     string   `json:"user_id,omitempty" yaml:"user_id,omitempty" toml:"user_id"`
	Recipients []string `json:"recipients,omitempty" yaml:"recipients,omitempty" toml:"recipients"`
	Timeout    Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout"`
}

// 📈 MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr"`
}

// 📚 Config represents the complete configuration
type Config struct {
	PollInterval Duration      `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty" toml:"poll_interval"`
	Store        StoreConfig   `json:"store" yaml:"store" toml:"store"`
	Local        LocalConfig   `json:"local" yaml:"local" toml:"local"`
	Email        EmailConfig   `json:"email" yaml:"email" toml:"email"`
	Metrics      MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// 🎯 Load loads the configuration from a file. A missing file yields the
// defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(path) == "" {
		logger.Debug().Msg("no config file given, using defaults")
		return Default(), nil
	}
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug().Str("path", path).Msg("config file not found, using defaults")
			return Default(), nil
		}
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills every unset field.
func (cfg *Config) ApplyDefaults() {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(DefaultPollInterval)
	}
	cfg.Store.Kind = strings.ToLower(strings.TrimSpace(cfg.Store.Kind))
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = StoreFile
	}
	if cfg.Store.Kind == StoreFile && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Local.Enabled == nil {
		enabled := true
		cfg.Local.Enabled = &enabled
	}
	if cfg.Email.Timeout == 0 {
		cfg.Email.Timeout = Duration(DefaultMailTimeout)
	}
}

// LocalEnabled reports whether terminal alerts are on.
func (cfg *Config) LocalEnabled() bool {
	return cfg.Local.Enabled == nil || *cfg.Local.Enabled
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.PollInterval.Std() < minPollInterval {
		return errors.Errorf("poll_interval must be at least %s", minPollInterval)
	}

	switch cfg.Store.Kind {
	case StoreMemory:
	case StoreFile:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return errors.New("store.path is required for a file store")
		}
	case StoreREST:
		if strings.TrimSpace(cfg.Store.URL) == "" {
			return errors.New("store.url is required for a rest store")
		}
	default:
		return errors.Errorf("unknown store.kind %q", cfg.Store.Kind)
	}

	if cfg.Email.Enabled {
		if cfg.Email.ServiceID == "" || cfg.Email.TemplateID == "" || cfg.Email.UserID == "" {
			return errors.New("email.service_id, email.template_id and email.user_id are required when email is enabled")
		}
		if len(cfg.Email.Recipients) == 0 {
			return errors.New("email.recipients must not be empty when email is enabled")
		}
		for _, r := range cfg.Email.Recipients {
			if !strings.Contains(r, "@") {
				return errors.Errorf("email recipient %q is not an address", r)
			}
		}
	}
	if cfg.Email.Timeout < 0 {
		return errors.New("email.timeout must not be negative")
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	var source string
	switch cfg.Store.Kind {
	case StoreFile:
		source = "file:" + cfg.Store.Path
	case StoreREST:
		source = "rest:" + cfg.Store.URL
	default:
		source = cfg.Store.Kind
	}
	channels := []string{}
	if cfg.LocalEnabled() {
		channels = append(channels, "local")
	}
	if cfg.Email.Enabled {
		channels = append(channels, fmt.Sprintf("email(%d)", len(cfg.Email.Recipients)))
	}
	return fmt.Sprintf("%s every %s -> [%s]", source, cfg.PollInterval.Std(), strings.Join(channels, ","))
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
