package repl

import (
	"strings"
	"testing"

	"keeper/internal/domain"
)

func TestFormatResultExecutionAndVerification(t *testing.T) {
	result := domain.Result{
		Plan: domain.Plan{Operations: []domain.Operation{{ID: "op-1", Action: domain.ActionCreate, Entity: domain.KindItem}}},
		Execution: &domain.ExecutionReport{
			Summary: "1 succeeded, 0 failed",
			Entries: []domain.ExecutionEntry{{OperationID: "op-1", Success: true, Message: "created item \"电烙铁\""}},
		},
		Verification: &domain.VerificationReport{
			Summary: "1 verified, 0 failed",
			Entries: []domain.VerificationEntry{{OperationID: "op-1", Success: true, Message: "post-condition holds"}},
		},
	}
	out := formatResult(result, false)
	if !strings.Contains(out, "执行") || !strings.Contains(out, "核验") {
		t.Errorf("missing sections: %q", out)
	}
	if !strings.Contains(out, "✓ op-1") {
		t.Errorf("missing entry marks: %q", out)
	}
	if strings.Contains(out, "Trace") {
		t.Errorf("trace shown when disabled: %q", out)
	}
}

func TestFormatResultClarificationOnly(t *testing.T) {
	result := domain.Result{Plan: domain.Plan{Clarification: "请提供物品名称。"}}
	out := formatResult(result, false)
	if !strings.Contains(out, "请提供物品名称。") {
		t.Errorf("clarification lost: %q", out)
	}
}

func TestFormatResultTraceToggle(t *testing.T) {
	result := domain.Result{
		Plan:       domain.Plan{Clarification: "x"},
		AgentTrace: []string{"round 1: something"},
		AgentStats: domain.LoopStats{Rounds: 1},
	}
	if out := formatResult(result, true); !strings.Contains(out, "round 1") {
		t.Errorf("trace missing: %q", out)
	}
}
