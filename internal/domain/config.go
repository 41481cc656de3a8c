package domain

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	DefaultOutputPath           = "eval_results.jsonl"
	DefaultTimeoutSeconds       = 180
	DefaultHealthTimeoutSeconds = 10
)

// DefaultInstructions is the built-in evaluation corpus.
var DefaultInstructions = []string{
	"Disallow public network access on storage accounts",
	"Require secure transfer (HTTPS) for storage accounts",
	"Enforce minimum TLS version 1.2 for storage accounts",
	"Disable public blob access on storage accounts",
	"Require tag owner on all resources",
	"App Configuration should use a customer-managed key for encryption",
}

// EvalConfig holds evaluation settings loaded from .policyeval.yaml and
// overridden by command-line flags.
type EvalConfig struct {
	API                  string   `yaml:"api"                    json:"api"`
	Output               string   `yaml:"output"                 json:"output"`
	TimeoutSeconds       int      `yaml:"timeout_seconds"        json:"timeout_seconds"`
	HealthTimeoutSeconds int      `yaml:"health_timeout_seconds" json:"health_timeout_seconds"`
	RateLimitPerMinute   int      `yaml:"rate_limit_per_minute"  json:"rate_limit_per_minute,omitempty"`
	Instructions         []string `yaml:"instructions"           json:"instructions"`
	// History is a pointer so an explicit false survives merging.
	History *bool `yaml:"history,omitempty" json:"history,omitempty"`
}

// DefaultConfig returns the configuration used when nothing is set.
// API has no default.
func DefaultConfig() EvalConfig {
	return EvalConfig{
		Output:               DefaultOutputPath,
		TimeoutSeconds:       DefaultTimeoutSeconds,
		HealthTimeoutSeconds: DefaultHealthTimeoutSeconds,
		Instructions:         append([]string(nil), DefaultInstructions...),
	}
}

// WithDefaults fills every zero field from DefaultConfig.
func (c EvalConfig) WithDefaults() EvalConfig {
	d := DefaultConfig()
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = d.TimeoutSeconds
	}
	if c.HealthTimeoutSeconds == 0 {
		c.HealthTimeoutSeconds = d.HealthTimeoutSeconds
	}
	if len(c.Instructions) == 0 {
		c.Instructions = d.Instructions
	}
	return c
}

// HistoryEnabled defaults to true.
func (c EvalConfig) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

func (c EvalConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c EvalConfig) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSeconds) * time.Second
}

// Validate checks the config for invalid values. A missing API is not an
// error here because the config file may be completed by flags.
func (c EvalConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return errors.Wrapf(ErrInvalidConfig, "timeout_seconds must be >= 0 (got %d)", c.TimeoutSeconds)
	}
	if c.HealthTimeoutSeconds < 0 {
		return errors.Wrapf(ErrInvalidConfig, "health_timeout_seconds must be >= 0 (got %d)", c.HealthTimeoutSeconds)
	}
	if c.RateLimitPerMinute < 0 {
		return errors.Wrapf(ErrInvalidConfig, "rate_limit_per_minute must be >= 0 (got %d)", c.RateLimitPerMinute)
	}
	if c.API != "" && NormalizeBaseURL(c.API) == "" {
		return errors.Wrapf(ErrInvalidConfig, "api %q has no usable base URL", c.API)
	}
	return nil
}

// ValidateForRun additionally requires the service URL.
func (c EvalConfig) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.API) == "" {
		return errors.WithHint(
			errors.Wrap(ErrInvalidConfig, "api base URL is required"),
			"pass --api https://<your-tunnel-host> or set api in .policyeval.yaml",
		)
	}
	return nil
}

var endpointSuffixes = []string{"/generate", "/health"}

// NormalizeBaseURL strips whitespace, trailing slashes and any pasted
// /generate or /health endpoint suffix. It is idempotent.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	for {
		prev := u
		u = strings.TrimRight(u, "/")
		for _, suffix := range endpointSuffixes {
			u = strings.TrimSuffix(u, suffix)
		}
		if u == prev {
			return u
		}
	}
}
