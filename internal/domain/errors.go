package domain

import "github.com/cockroachdb/errors"

var (
	// ErrServiceUnavailable aborts a run: the generation service is
	// unreachable or has no model loaded.
	ErrServiceUnavailable = errors.New("generation service unavailable")

	// ErrModelNotLoaded is reported by a reachable service whose health
	// endpoint says model_loaded is false.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrInvalidConfig marks configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
