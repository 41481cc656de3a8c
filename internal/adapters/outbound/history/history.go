// Package history keeps a per-directory log of evaluation run summaries so
// pass rates can be tracked across model or prompt changes.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/abdidvp/policyeval/internal/domain"
)

// RunsFile is where summaries live, relative to the directory a run was
// started from.
const RunsFile = ".policyeval/history/runs.json"

// FileHistory implements domain.RunHistory as a JSON array on disk, oldest
// run first.
type FileHistory struct{}

func New() *FileHistory {
	return &FileHistory{}
}

// Save appends one run summary. The file is replaced through a rename so an
// interrupted save leaves the previous runs intact.
func (h *FileHistory) Save(dir string, entry domain.RunEntry) error {
	runs, err := h.Load(dir)
	if err != nil {
		return err
	}
	runs = append(runs, entry)

	path := filepath.Join(dir, RunsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating history directory")
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding run history")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "runs-*.json")
	if err != nil {
		return errors.Wrap(err, "writing run history")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing run history")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "writing run history")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "replacing run history")
}

// Load returns every recorded run summary. A directory without history
// yields no runs and no error.
func (h *FileHistory) Load(dir string) ([]domain.RunEntry, error) {
	path := filepath.Join(dir, RunsFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var runs []domain.RunEntry
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, errors.WithHintf(
			errors.Wrapf(err, "parsing %s", path),
			"delete %s to start a fresh history", path,
		)
	}
	return runs, nil
}
