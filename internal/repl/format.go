package repl

import (
	"fmt"
	"strings"

	"keeper/internal/domain"
)

// formatResult renders one processed instruction as markdown.
func formatResult(result domain.Result, showTrace bool) string {
	var b strings.Builder

	if result.Plan.Clarification != "" {
		b.WriteString(result.Plan.Clarification)
		b.WriteString("\n")
	}

	if len(result.Plan.Operations) > 0 && result.Execution == nil {
		b.WriteString("\n**计划（未执行）**\n")
		for _, op := range result.Plan.Operations {
			fmt.Fprintf(&b, "- %s %s %s\n", op.ID, op.Action, op.Entity)
		}
	}

	if result.Execution != nil {
		fmt.Fprintf(&b, "\n**执行** %s\n", result.Execution.Summary)
		for _, e := range result.Execution.Entries {
			fmt.Fprintf(&b, "- %s %s: %s\n", mark(e.Success), e.OperationID, e.Message)
		}
	}
	if result.Verification != nil {
		fmt.Fprintf(&b, "\n**核验** %s\n", result.Verification.Summary)
		for _, e := range result.Verification.Entries {
			fmt.Fprintf(&b, "- %s %s: %s\n", mark(e.Success), e.OperationID, e.Message)
		}
	}

	if showTrace && len(result.AgentTrace) > 0 {
		b.WriteString("\n**Trace**\n")
		for _, line := range result.AgentTrace {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		fmt.Fprintf(&b, "\nrounds=%d toolCalls=%d fallback=%v\n",
			result.AgentStats.Rounds, result.AgentStats.ToolCalls, result.AgentStats.UsedFallbackPlan)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		out = "（没有产生任何操作。）"
	}
	return out
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
