package tui

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/abdidvp/policyeval/internal/domain"
)

// Progress implements domain.ProgressReporter by printing one line per case.
type Progress struct {
	w io.Writer
}

func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

func (p *Progress) CaseDone(index int, rec domain.OutcomeRecord) {
	fmt.Fprintln(p.w, RenderCase(index, rec))
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
