package domain

import (
	"fmt"
	"strings"
)

// DecisionType discriminates the model's per-round choice.
type DecisionType string

const (
	DecisionTool          DecisionType = "tool"
	DecisionPlan          DecisionType = "plan"
	DecisionClarification DecisionType = "clarification"
)

// Decision is one round's choice by the model: call a tool, finalize a plan,
// or ask the user for clarification. Only the fields relevant to Type are
// meaningful.
type Decision struct {
	Type          DecisionType `json:"type"`
	Tool          string       `json:"tool,omitempty"`
	Query         string       `json:"query,omitempty"`
	Target        string       `json:"target,omitempty"`
	Entity        EntityKind   `json:"entity,omitempty"`
	Limit         int          `json:"limit,omitempty"`
	Clarification string       `json:"clarification,omitempty"`
}

// Validate rejects unknown type tokens and clamps the search limit.
func (d *Decision) Validate() error {
	switch d.Type {
	case DecisionTool, DecisionPlan, DecisionClarification:
	default:
		return fmt.Errorf("unknown decision type %q", d.Type)
	}
	if d.Limit < 0 || d.Limit > 50 {
		return fmt.Errorf("limit %d out of range (1..50)", d.Limit)
	}
	return nil
}

// Signature is the repeat-guard key: the same tool asked the same way.
func (d *Decision) Signature() string {
	return strings.Join([]string{d.Tool, d.Query, d.Target, string(d.Entity), fmt.Sprint(d.Limit)}, "|")
}

// LoopStats accumulates counters over one instruction's decision loop.
type LoopStats struct {
	Rounds               int  `json:"rounds"`
	ToolCalls            int  `json:"toolCalls"`
	EmptyToolResults     int  `json:"emptyToolResults"`
	InvalidDecisionCount int  `json:"invalidDecisionCount"`
	RepairedDecisions    int  `json:"repairedDecisionCount"`
	RepeatedToolBlocked  int  `json:"repeatedToolBlocked"`
	UsedFallbackPlan     bool `json:"usedFallbackPlan"`
}

// LoopResult is the terminal outcome of the decision loop.
type LoopResult struct {
	Plan  Plan      `json:"plan"`
	Trace []string  `json:"trace"`
	Stats LoopStats `json:"stats"`
}

// ExecutionEntry reports one operation's apply outcome. Partial failure is
// first-class: entries are never collapsed into a single pass/fail.
type ExecutionEntry struct {
	OperationID string `json:"operationId"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// VerificationEntry reports one operation's post-condition check.
type VerificationEntry struct {
	OperationID string `json:"operationId"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// ExecutionReport aggregates entries for the caller-facing result.
type ExecutionReport struct {
	SuccessCount int              `json:"successCount"`
	FailureCount int              `json:"failureCount"`
	Summary      string           `json:"summary"`
	Entries      []ExecutionEntry `json:"entries"`
}

// VerificationReport aggregates verification entries.
type VerificationReport struct {
	SuccessCount int                 `json:"successCount"`
	FailureCount int                 `json:"failureCount"`
	Summary      string              `json:"summary"`
	Entries      []VerificationEntry `json:"entries"`
}

// Result is what one processed instruction returns to the caller.
type Result struct {
	Plan         Plan                `json:"plan"`
	Execution    *ExecutionReport    `json:"execution,omitempty"`
	Verification *VerificationReport `json:"verification,omitempty"`
	AgentTrace   []string            `json:"agentTrace"`
	AgentStats   LoopStats           `json:"agentStats"`
}
