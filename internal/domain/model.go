package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// IssueCode names one structural defect found in a policy document.
type IssueCode string

const (
	IssueMissingFixedPolicy         IssueCode = "missing_fixed_policy"
	IssueMissingProperties          IssueCode = "missing_properties"
	IssueEmptyIf                    IssueCode = "empty_if"
	IssueMissingEffectParameter     IssueCode = "missing_effect_parameter"
	IssueThenEffectNotParameterized IssueCode = "then_effect_not_parameterized"
)

// Description returns a short human explanation of the issue.
func (c IssueCode) Description() string {
	switch c {
	case IssueMissingFixedPolicy:
		return "response carries no policy document mapping"
	case IssueMissingProperties:
		return "document has no top-level properties"
	case IssueEmptyIf:
		return "properties.policyRule.if is missing or empty"
	case IssueMissingEffectParameter:
		return `properties.parameters.effect is not declared with type "String"`
	case IssueThenEffectNotParameterized:
		return "properties.policyRule.then.effect does not reference [parameters('effect')]"
	default:
		return string(c)
	}
}

// ValidationReport is the verdict of scoring one response payload.
type ValidationReport struct {
	Passed bool        `json:"passed"`
	Issues []IssueCode `json:"issues"`
}

// OutcomeRecord is the result of evaluating one instruction. A record either
// carries Err (the request failed) or the evaluated fields.
type OutcomeRecord struct {
	Instruction string
	Err         string
	Passed      bool
	Issues      []IssueCode
	Retry       any
	Meta        any
	Elapsed     time.Duration
}

// Failed reports whether the request itself failed.
func (r OutcomeRecord) Failed() bool { return r.Err != "" }

// ElapsedSeconds is the elapsed time rounded to two decimals.
func (r OutcomeRecord) ElapsedSeconds() float64 {
	return math.Round(r.Elapsed.Seconds()*100) / 100
}

type errorRecordJSON struct {
	Instruction string `json:"instruction"`
	Error       string `json:"error"`
}

type evaluatedRecordJSON struct {
	Instruction string      `json:"instruction"`
	Passed      bool        `json:"passed"`
	Issues      []IssueCode `json:"issues"`
	Retry       any         `json:"retry"`
	Meta        any         `json:"meta"`
	ElapsedS    float64     `json:"elapsed_s"`
}

// recordJSON is the union used for decoding either line shape.
type recordJSON struct {
	Instruction string      `json:"instruction"`
	Error       *string     `json:"error"`
	Passed      bool        `json:"passed"`
	Issues      []IssueCode `json:"issues"`
	Retry       any         `json:"retry"`
	Meta        any         `json:"meta"`
	ElapsedS    float64     `json:"elapsed_s"`
}

func (r OutcomeRecord) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return marshalUnescaped(errorRecordJSON{Instruction: r.Instruction, Error: r.Err})
	}
	issues := r.Issues
	if issues == nil {
		issues = []IssueCode{}
	}
	return marshalUnescaped(evaluatedRecordJSON{
		Instruction: r.Instruction,
		Passed:      r.Passed,
		Issues:      issues,
		Retry:       r.Retry,
		Meta:        r.Meta,
		ElapsedS:    r.ElapsedSeconds(),
	})
}

// marshalUnescaped keeps <, > and & literal; the run log is not HTML.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r *OutcomeRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = OutcomeRecord{Instruction: raw.Instruction}
	if raw.Error != nil {
		r.Err = *raw.Error
		if r.Err == "" {
			r.Err = "unknown error"
		}
		return nil
	}
	r.Passed = raw.Passed
	r.Issues = raw.Issues
	r.Retry = raw.Retry
	r.Meta = raw.Meta
	r.Elapsed = time.Duration(raw.ElapsedS * float64(time.Second))
	return nil
}

// RunSummary aggregates the outcome records of one run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	BaseURL    string    `json:"base_url"`
	OutputPath string    `json:"output_path,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Errored    int       `json:"errored"`
	Total      int       `json:"total"`
	Cancelled  bool      `json:"cancelled,omitempty"`
}

// Add folds one record into the summary.
func (s *RunSummary) Add(rec OutcomeRecord) {
	s.Total++
	switch {
	case rec.Failed():
		s.Errored++
	case rec.Passed:
		s.Passed++
	default:
		s.Failed++
	}
}

// String renders the summary as passed/total.
func (s RunSummary) String() string {
	return fmt.Sprintf("%d/%d", s.Passed, s.Total)
}

// PassRate is the fraction of passed cases in [0,1].
func (s RunSummary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Summarize derives a summary from records.
func Summarize(records []OutcomeRecord) RunSummary {
	var s RunSummary
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// HealthStatus is the decoded /health response of the generation service.
type HealthStatus struct {
	ModelLoaded *bool          `json:"model_loaded,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// GenerationResponse is the decoded /generate response. Payload holds the
// whole JSON object so the validator can inspect candidate keys.
type GenerationResponse struct {
	Payload map[string]any
}

// RawOutput returns the raw_output text when the service includes it.
func (g GenerationResponse) RawOutput() (string, bool) {
	s, ok := g.Payload["raw_output"].(string)
	return s, ok
}

func (g GenerationResponse) Retry() any { return g.Payload["retry"] }
func (g GenerationResponse) Meta() any  { return g.Payload["meta"] }

// RunEntry is one line of run history.
type RunEntry struct {
	Timestamp  string `json:"timestamp"`
	RunID      string `json:"run_id"`
	CommitHash string `json:"commit_hash,omitempty"`
	BaseURL    string `json:"base_url"`
	OutputPath string `json:"output_path"`
	Passed     int    `json:"passed"`
	Total      int    `json:"total"`
}
