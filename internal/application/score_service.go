package application

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/domain/doc"
	"github.com/abdidvp/policyeval/internal/domain/policy"
	"github.com/abdidvp/policyeval/internal/domain/recovery"
	"github.com/abdidvp/policyeval/internal/logging"
)

// ScoreService validates policy text produced outside an evaluation run:
// a saved response payload, a bare policy document or raw model output.
type ScoreService struct {
	logger *zap.Logger
}

func NewScoreService(logger *zap.Logger) *ScoreService {
	return &ScoreService{logger: logging.OrNop(logger)}
}

// Score validates text. With raw set the text is model output and goes
// through recovery first; a recovery failure is logged and scored as an
// absent document. Without raw the text must be valid JSON.
//
// A mapping that carries fixed_policy or policy is treated as a service
// response payload, anything else as the policy document itself.
func (s *ScoreService) Score(text string, raw bool) (domain.ValidationReport, error) {
	var decoded any
	if raw {
		v, err := recovery.Recover(text)
		if err != nil {
			s.logger.Warn("recovery failed, scoring as absent document", zap.Error(err))
		}
		decoded = v
	} else if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return domain.ValidationReport{}, errors.WithHint(
			errors.Wrap(err, "parsing policy JSON"),
			"use --raw for unrepaired model output",
		)
	}

	v := doc.From(decoded)
	if isPayload(v) {
		return policy.Validate(decoded), nil
	}
	return policy.ValidateDocument(v), nil
}

func isPayload(v doc.Value) bool {
	for _, key := range policy.DocumentKeys {
		if v.Has(key) {
			return true
		}
	}
	return false
}

// Recover repairs raw model output and returns the decoded value.
func (s *ScoreService) Recover(text string) (any, error) {
	v, err := recovery.Recover(text)
	if err != nil {
		s.logger.Debug("recovery failed", zap.Error(err))
		return nil, errors.WithHint(err, "only truncation and unquoted keys are repaired")
	}
	return v, nil
}
