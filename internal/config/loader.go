package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"handlerd/internal/handler"
)

// Defaults applied by WithDefaults when corresponding fields are unset.
const (
	DefaultAddr          = ":8080"
	DefaultModelStore    = "~/models/handlers"
	DefaultHandler       = "echo"
	DefaultMaxQueueDepth = 32
	DefaultMaxWaitMS     = 30000
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr       string `json:"addr" yaml:"addr" toml:"addr"`
	ModelStore string `json:"model_store" yaml:"model_store" toml:"model_store"`
	// Model selects a manifest in the store by model name. Empty serves Handler directly.
	Model     string `json:"model" yaml:"model" toml:"model"`
	Handler   string `json:"handler" yaml:"handler" toml:"handler"`
	BatchSize int    `json:"batch_size" yaml:"batch_size" toml:"batch_size"`

	MaxQueueDepth int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitMS     int `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogFile   string `json:"log_file" yaml:"log_file" toml:"log_file"`

	// HTTP limits; zero keeps the server defaults (1 MiB body, no timeout).
	MaxBodyBytes          int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	PredictTimeoutSeconds int64 `json:"predict_timeout_seconds" yaml:"predict_timeout_seconds" toml:"predict_timeout_seconds"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// Properties are passed to the handler alongside batch_size.
	Properties map[string]any `json:"properties" yaml:"properties" toml:"properties"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("toml: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults returns a copy of c with unset fields defaulted.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelStore == "" {
		c.ModelStore = DefaultModelStore
	}
	if c.Handler == "" {
		c.Handler = DefaultHandler
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.MaxWaitMS <= 0 {
		c.MaxWaitMS = DefaultMaxWaitMS
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	return c
}

// MaxWait returns MaxWaitMS as a duration.
func (c Config) MaxWait() time.Duration { return time.Duration(c.MaxWaitMS) * time.Millisecond }

// HandlerProperties builds the handler properties mapping. A configured
// BatchSize overrides any batch_size under Properties; an unset one leaves
// batch_size to Properties or the manifest, and the handler rejects it if
// nothing supplies one.
func (c Config) HandlerProperties() handler.Properties {
	props := make(handler.Properties, len(c.Properties)+1)
	for k, v := range c.Properties {
		props[k] = v
	}
	if c.BatchSize > 0 {
		props[handler.PropBatchSize] = c.BatchSize
	}
	return props
}
