package domain

import "context"

// GenerationClient talks to the remote generation service.
type GenerationClient interface {
	Health(ctx context.Context) (*HealthStatus, error)
	Generate(ctx context.Context, instruction string) (*GenerationResponse, error)
}

// OutcomeWriter is the append-only sink for outcome records.
type OutcomeWriter interface {
	Write(rec OutcomeRecord) error
}

// OutcomeReader loads a previously written run log.
type OutcomeReader interface {
	Read(path string) ([]OutcomeRecord, error)
}

// ProgressReporter receives per-case progress while a run is in flight.
type ProgressReporter interface {
	CaseDone(index int, rec OutcomeRecord)
}

// ConfigLoader loads evaluation configuration.
type ConfigLoader interface {
	Load(path string) (EvalConfig, error)
}

// RunHistory persists run summaries.
type RunHistory interface {
	Save(dir string, entry RunEntry) error
	Load(dir string) ([]RunEntry, error)
}

// GitInfo reports the commit a run was made from.
type GitInfo interface {
	CommitHash(path string) (string, error)
}
