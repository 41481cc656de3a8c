// Package policy scores a generated policy document against the structural
// conventions every governance policy must follow.
package policy

import (
	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/domain/doc"
)

// EffectReference is the only accepted value of then.effect.
const EffectReference = "[parameters('effect')]"

// CandidateKeys lists payload keys that may hold the policy document, in
// priority order.
type CandidateKeys []string

// DocumentKeys prefers fixed_policy and falls back to the legacy policy key.
var DocumentKeys = CandidateKeys{"fixed_policy", "policy"}

// Select returns the value of the first key that is present and not null.
func (k CandidateKeys) Select(payload doc.Value) doc.Value {
	for _, key := range k {
		if v := payload.Get(key); !v.IsAbsent() {
			return v
		}
	}
	return doc.Value{}
}

type predicate struct {
	issue domain.IssueCode
	holds func(policy doc.Value) bool
}

// predicates run in this order; the issues list follows it.
var predicates = []predicate{
	{domain.IssueMissingProperties, hasProperties},
	{domain.IssueEmptyIf, hasNonEmptyIf},
	{domain.IssueMissingEffectParameter, hasEffectParameter},
	{domain.IssueThenEffectNotParameterized, thenEffectParameterized},
}

// Score evaluates a response payload. The payload is whatever the
// generation service returned, decoded from JSON.
func Score(payload any) (bool, []domain.IssueCode) {
	r := Validate(payload)
	return r.Passed, r.Issues
}

// Validate is Score returning a report.
func Validate(payload any) domain.ValidationReport {
	return ValidateDocument(DocumentKeys.Select(doc.From(payload)))
}

// ValidateDocument scores a policy document directly, skipping key
// selection. A non-mapping fails with missing_fixed_policy only.
func ValidateDocument(policy doc.Value) domain.ValidationReport {
	if !policy.IsMapping() {
		return domain.ValidationReport{
			Passed: false,
			Issues: []domain.IssueCode{domain.IssueMissingFixedPolicy},
		}
	}

	issues := []domain.IssueCode{}
	for _, p := range predicates {
		if !p.holds(policy) {
			issues = append(issues, p.issue)
		}
	}
	return domain.ValidationReport{Passed: len(issues) == 0, Issues: issues}
}

func hasProperties(policy doc.Value) bool {
	return policy.Has("properties")
}

func hasNonEmptyIf(policy doc.Value) bool {
	cond := policy.Path("properties", "policyRule", "if")
	if !cond.IsMapping() || cond.Len() == 0 {
		return false
	}
	for _, key := range []string{"allOf", "anyOf"} {
		if branch := cond.Get(key); branch.IsSequence() && branch.Len() == 0 {
			return false
		}
	}
	return true
}

func hasEffectParameter(policy doc.Value) bool {
	effect := policy.Path("properties", "parameters", "effect")
	return effect.IsMapping() && effect.Get("type").Equals("String")
}

func thenEffectParameterized(policy doc.Value) bool {
	return policy.Path("properties", "policyRule", "then", "effect").Equals(EffectReference)
}
