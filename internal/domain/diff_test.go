package domain_test

import (
	"testing"

	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffRuns(t *testing.T) {
	before := []domain.OutcomeRecord{
		{Instruction: "a", Passed: true, Issues: []domain.IssueCode{}},
		{Instruction: "b", Passed: false, Issues: []domain.IssueCode{domain.IssueEmptyIf}},
		{Instruction: "c", Err: "timeout"},
		{Instruction: "gone", Passed: true},
	}
	after := []domain.OutcomeRecord{
		{Instruction: "a", Passed: false, Issues: []domain.IssueCode{domain.IssueThenEffectNotParameterized}},
		{Instruction: "b", Passed: true, Issues: []domain.IssueCode{}},
		{Instruction: "c", Err: "connection refused"},
		{Instruction: "new", Passed: true},
	}

	d := domain.DiffRuns(before, after)
	require.Len(t, d.Cases, 5)

	assert.Equal(t, domain.ChangeRegressed, d.Cases[0].Change)
	assert.Equal(t, []domain.IssueCode{domain.IssueThenEffectNotParameterized}, d.Cases[0].Gained)

	assert.Equal(t, domain.ChangeFixed, d.Cases[1].Change)
	assert.Equal(t, []domain.IssueCode{domain.IssueEmptyIf}, d.Cases[1].Lost)

	assert.Equal(t, domain.ChangeUnchanged, d.Cases[2].Change)
	assert.Equal(t, "error", d.Cases[2].After)

	assert.Equal(t, domain.ChangeAdded, d.Cases[3].Change)
	assert.Equal(t, "new", d.Cases[3].Instruction)

	assert.Equal(t, domain.ChangeRemoved, d.Cases[4].Change)
	assert.Equal(t, "gone", d.Cases[4].Instruction)

	assert.Equal(t, 1, d.Count(domain.ChangeRegressed))
	assert.Equal(t, 2, d.Before.Passed)
	assert.Equal(t, 2, d.After.Passed)
}

func TestDiffRuns_DuplicateInstructionsPairByOccurrence(t *testing.T) {
	before := []domain.OutcomeRecord{{Instruction: "x", Passed: true}, {Instruction: "x", Passed: false}}
	after := []domain.OutcomeRecord{{Instruction: "x", Passed: true}, {Instruction: "x", Passed: true}}

	d := domain.DiffRuns(before, after)
	require.Len(t, d.Cases, 2)
	assert.Equal(t, domain.ChangeUnchanged, d.Cases[0].Change)
	assert.Equal(t, domain.ChangeFixed, d.Cases[1].Change)
}
