package application

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/domain/policy"
	"github.com/abdidvp/policyeval/internal/logging"
)

// EvalOptions tunes an EvalService. Zero values mean no per-case timeout,
// no pacing, no progress output and no logging.
type EvalOptions struct {
	Timeout            time.Duration
	RateLimitPerMinute int
	Progress           domain.ProgressReporter
	Logger             *zap.Logger
}

// EvalService drives instructions through the generation service one at a
// time: dispatch → validate → record.
type EvalService struct {
	client   domain.GenerationClient
	writer   domain.OutcomeWriter
	timeout  time.Duration
	limiter  *rate.Limiter
	progress domain.ProgressReporter
	logger   *zap.Logger
	now      func() time.Time
}

func NewEvalService(client domain.GenerationClient, writer domain.OutcomeWriter, opts EvalOptions) *EvalService {
	s := &EvalService{
		client:   client,
		writer:   writer,
		timeout:  opts.Timeout,
		progress: opts.Progress,
		logger:   logging.OrNop(opts.Logger),
		now:      time.Now,
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(opts.RateLimitPerMinute)/60.0), 1)
	}
	return s
}

// Run evaluates instructions in order and writes exactly one outcome record
// per dispatched instruction. Request failures are recorded and the run
// continues. A writer failure aborts the run.
//
// Cancelling ctx stops the run between cases; a request already in flight
// runs to completion or to its own timeout and is still recorded.
func (s *EvalService) Run(ctx context.Context, instructions []string) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
	}
	log := s.logger.With(zap.String(logging.FieldRunID, summary.RunID))
	log.Info("run started", zap.Int(logging.FieldTotal, len(instructions)))

	for i, instruction := range instructions {
		if err := s.pace(ctx); err != nil {
			summary.Cancelled = true
			log.Warn("run cancelled", zap.Int(logging.FieldCase, i+1), zap.Error(err))
			break
		}

		rec := s.evaluate(ctx, instruction, log.With(zap.Int(logging.FieldCase, i+1)))
		if err := s.writer.Write(rec); err != nil {
			return summary, errors.Wrapf(err, "writing outcome %d", i+1)
		}
		summary.Add(rec)

		if s.progress != nil {
			s.progress.CaseDone(i+1, rec)
		}
	}

	log.Info("run finished",
		zap.Int(logging.FieldPassed, summary.Passed),
		zap.Int(logging.FieldTotal, summary.Total),
		zap.Bool("cancelled", summary.Cancelled),
	)
	return summary, nil
}

// pace blocks until the next request may be sent.
func (s *EvalService) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *EvalService) evaluate(ctx context.Context, instruction string, log *zap.Logger) domain.OutcomeRecord {
	caseCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(caseCtx, s.timeout)
		defer cancel()
	}

	started := s.now()
	resp, err := s.client.Generate(caseCtx, instruction)
	if err != nil {
		log.Warn("request failed", zap.String(logging.FieldInstruction, instruction), zap.Error(err))
		return domain.OutcomeRecord{Instruction: instruction, Err: errorText(err)}
	}

	report := policy.Validate(resp.Payload)
	rec := domain.OutcomeRecord{
		Instruction: instruction,
		Passed:      report.Passed,
		Issues:      report.Issues,
		Retry:       resp.Retry(),
		Meta:        resp.Meta(),
		Elapsed:     s.now().Sub(started),
	}

	log.Debug("case evaluated",
		zap.String(logging.FieldInstruction, instruction),
		zap.Bool(logging.FieldPassed, rec.Passed),
		zap.Any(logging.FieldIssues, rec.Issues),
		zap.Int64(logging.FieldDurationMS, rec.Elapsed.Milliseconds()),
	)
	return rec
}

// errorText is the message stored in an error record, with any hints
// appended so the log stays actionable on its own.
func errorText(err error) string {
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg += " (hint: " + hint + ")"
	}
	return msg
}
