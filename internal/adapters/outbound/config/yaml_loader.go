package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abdidvp/policyeval/internal/domain"
)

// FileName is the config file looked up when no explicit path is given.
const FileName = ".policyeval.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .policyeval.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads the config at path (FileName when empty).
// Returns DefaultConfig if the file does not exist.
func (l *YAMLLoader) Load(path string) (domain.EvalConfig, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return domain.DefaultConfig(), nil
		}
		return domain.EvalConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg domain.EvalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.EvalConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Validate before merging so typos in the user's raw input surface.
	if err := cfg.Validate(); err != nil {
		return domain.EvalConfig{}, fmt.Errorf("invalid %s: %w", path, err)
	}

	return cfg.WithDefaults(), nil
}

// Overrides holds values set on the command line. Empty strings and nil
// numbers mean unset; a non-nil zero is an explicit value.
type Overrides struct {
	API                  string
	Output               string
	TimeoutSeconds       *int
	HealthTimeoutSeconds *int
	RateLimitPerMinute   *int
	Instructions         []string
	NoHistory            bool
}

// Merge overlays explicit command-line values on top of a loaded config.
// Explicit values always win, zero included.
func Merge(base domain.EvalConfig, o Overrides) domain.EvalConfig {
	result := base

	if o.API != "" {
		result.API = o.API
	}
	if o.Output != "" {
		result.Output = o.Output
	}
	if o.TimeoutSeconds != nil {
		result.TimeoutSeconds = *o.TimeoutSeconds
	}
	if o.HealthTimeoutSeconds != nil {
		result.HealthTimeoutSeconds = *o.HealthTimeoutSeconds
	}
	if o.RateLimitPerMinute != nil {
		result.RateLimitPerMinute = *o.RateLimitPerMinute
	}
	// Explicit instructions replace the configured corpus entirely.
	if len(o.Instructions) > 0 {
		result.Instructions = o.Instructions
	}
	if o.NoHistory {
		off := false
		result.History = &off
	}

	return result.WithDefaults()
}
