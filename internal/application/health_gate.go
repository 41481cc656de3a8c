package application

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/logging"
)

const (
	unreachableHint = "check that the generation API is running and the --api URL points at it"
	notLoadedHint   = "run the notebook model-load cell, then restart the API"
)

// HealthGate decides whether a run may start. Nothing is dispatched unless
// Check returns nil.
type HealthGate struct {
	client  domain.GenerationClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewHealthGate(client domain.GenerationClient, timeout time.Duration, logger *zap.Logger) *HealthGate {
	if timeout <= 0 {
		timeout = domain.DefaultHealthTimeoutSeconds * time.Second
	}
	return &HealthGate{client: client, timeout: timeout, logger: logging.OrNop(logger)}
}

// Check queries the health endpoint. Failures are marked with
// domain.ErrServiceUnavailable and carry a remediation hint. A response
// without model_loaded counts as healthy; only an explicit false aborts.
func (g *HealthGate) Check(ctx context.Context) (*domain.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	status, err := g.client.Health(ctx)
	if err != nil {
		g.logger.Warn("health check failed", zap.Error(err))
		return nil, errors.WithHint(
			errors.Mark(errors.Wrap(err, "health check failed"), domain.ErrServiceUnavailable),
			unreachableHint,
		)
	}

	if status.ModelLoaded != nil && !*status.ModelLoaded {
		g.logger.Warn("model not loaded on server")
		return status, errors.WithHint(
			errors.Mark(errors.Wrap(domain.ErrModelNotLoaded, "health check failed"), domain.ErrServiceUnavailable),
			notLoadedHint,
		)
	}

	g.logger.Debug("health check passed",
		zap.Int64(logging.FieldDurationMS, time.Since(started).Milliseconds()),
		zap.Any("fields", status.Fields),
	)
	return status, nil
}
