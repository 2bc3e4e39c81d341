package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by defaults in main.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// Model is loaded at startup when set (path or registry id).
	Model      string `json:"model" yaml:"model" toml:"model"`
	QueueDepth int    `json:"queue_depth" yaml:"queue_depth" toml:"queue_depth"`

	Load LoadDefaults `json:"load" yaml:"load" toml:"load"`

	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`
	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORS CORS `json:"cors" yaml:"cors" toml:"cors"`
}

// LoadDefaults overrides the engine load defaults for models loaded by the
// service. Nil fields keep the built-in defaults.
type LoadDefaults struct {
	Threads     *int  `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers   *int  `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	ContextSize *int  `json:"context_size" yaml:"context_size" toml:"context_size"`
	BatchSize   *int  `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	UseGPU      *bool `json:"use_gpu" yaml:"use_gpu" toml:"use_gpu"`
	Verbose     *bool `json:"verbose" yaml:"verbose" toml:"verbose"`
}

// CORS configures the optional CORS middleware.
type CORS struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
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
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
