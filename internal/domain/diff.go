package domain

// CaseChange classifies how one instruction moved between two runs.
type CaseChange string

const (
	ChangeRegressed CaseChange = "regressed"
	ChangeFixed     CaseChange = "fixed"
	ChangeUnchanged CaseChange = "unchanged"
	ChangeAdded     CaseChange = "added"
	ChangeRemoved   CaseChange = "removed"
)

// CaseDiff compares one instruction across two runs.
type CaseDiff struct {
	Instruction string      `json:"instruction"`
	Change      CaseChange  `json:"change"`
	Before      string      `json:"before,omitempty"`
	After       string      `json:"after,omitempty"`
	Gained      []IssueCode `json:"gained_issues,omitempty"`
	Lost        []IssueCode `json:"lost_issues,omitempty"`
}

// RunDiff is the comparison of two run logs.
type RunDiff struct {
	Before RunSummary `json:"before"`
	After  RunSummary `json:"after"`
	Cases  []CaseDiff `json:"cases"`
}

// Count returns how many cases have the given change.
func (d RunDiff) Count(c CaseChange) int {
	n := 0
	for _, cd := range d.Cases {
		if cd.Change == c {
			n++
		}
	}
	return n
}

// State names a record's verdict: pass, fail or error.
func (r OutcomeRecord) State() string {
	switch {
	case r.Failed():
		return "error"
	case r.Passed:
		return "pass"
	default:
		return "fail"
	}
}

// DiffRuns pairs records by instruction. Order follows the newer run, with
// instructions only present in the older run appended at the end.
// Duplicate instructions are paired by occurrence.
func DiffRuns(before, after []OutcomeRecord) RunDiff {
	d := RunDiff{Before: Summarize(before), After: Summarize(after)}

	pending := make(map[string][]OutcomeRecord)
	for _, r := range before {
		pending[r.Instruction] = append(pending[r.Instruction], r)
	}

	for _, a := range after {
		queue := pending[a.Instruction]
		if len(queue) == 0 {
			d.Cases = append(d.Cases, CaseDiff{Instruction: a.Instruction, Change: ChangeAdded, After: a.State()})
			continue
		}
		b := queue[0]
		pending[a.Instruction] = queue[1:]
		d.Cases = append(d.Cases, compareCase(b, a))
	}

	for _, b := range before {
		queue := pending[b.Instruction]
		if len(queue) == 0 {
			continue
		}
		pending[b.Instruction] = queue[1:]
		d.Cases = append(d.Cases, CaseDiff{Instruction: b.Instruction, Change: ChangeRemoved, Before: queue[0].State()})
	}

	return d
}

func compareCase(b, a OutcomeRecord) CaseDiff {
	cd := CaseDiff{
		Instruction: a.Instruction,
		Before:      b.State(),
		After:       a.State(),
		Gained:      issueDelta(a.Issues, b.Issues),
		Lost:        issueDelta(b.Issues, a.Issues),
	}
	wasPass, isPass := b.State() == "pass", a.State() == "pass"
	switch {
	case wasPass && !isPass:
		cd.Change = ChangeRegressed
	case !wasPass && isPass:
		cd.Change = ChangeFixed
	default:
		cd.Change = ChangeUnchanged
	}
	return cd
}

// issueDelta returns codes in from that are not in minus, keeping order.
func issueDelta(from, minus []IssueCode) []IssueCode {
	seen := make(map[IssueCode]bool, len(minus))
	for _, c := range minus {
		seen[c] = true
	}
	var out []IssueCode
	for _, c := range from {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}
