package application

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/logging"
)

// HistoryService records finished runs and reads them back.
type HistoryService struct {
	history domain.RunHistory
	git     domain.GitInfo
	logger  *zap.Logger
}

func NewHistoryService(history domain.RunHistory, git domain.GitInfo, logger *zap.Logger) *HistoryService {
	return &HistoryService{history: history, git: git, logger: logging.OrNop(logger)}
}

// Record appends summary to the history under dir. The commit hash is
// best effort: outside a git checkout the entry is saved without one.
func (s *HistoryService) Record(dir string, summary domain.RunSummary) (domain.RunEntry, error) {
	entry := domain.RunEntry{
		Timestamp:  summary.StartedAt.UTC().Format(time.RFC3339),
		RunID:      summary.RunID,
		BaseURL:    summary.BaseURL,
		OutputPath: summary.OutputPath,
		Passed:     summary.Passed,
		Total:      summary.Total,
	}

	if s.git != nil {
		hash, err := s.git.CommitHash(dir)
		if err != nil {
			s.logger.Debug("no commit hash for run", zap.Error(err))
		} else {
			entry.CommitHash = hash
		}
	}

	if err := s.history.Save(dir, entry); err != nil {
		return entry, errors.Wrap(err, "saving run history")
	}
	return entry, nil
}

func (s *HistoryService) List(dir string) ([]domain.RunEntry, error) {
	entries, err := s.history.Load(dir)
	if err != nil {
		return nil, errors.Wrap(err, "loading run history")
	}
	return entries, nil
}
