package planner

import (
	"fmt"
	"strings"

	"keeper/internal/domain"
)

// Guard runs the structural plan checks and merges findings into the plan's
// clarification. The plan is returned intact either way so callers can show
// the user exactly which operations are blocked; a non-empty clarification
// blocks execution of the whole plan.
func Guard(plan *domain.Plan) []string {
	var findings []string
	for _, op := range plan.Operations {
		if err := op.Validate(); err != nil {
			findings = append(findings, err.Error())
			continue
		}
		switch op.Action {
		case domain.ActionCreate:
			if op.FieldsName() == "" {
				findings = append(findings, fmt.Sprintf("operation %s: create %s needs a name", op.ID, op.Entity))
			}
		case domain.ActionUpdate, domain.ActionDelete:
			if op.Target.IsZero() && op.FieldsName() == "" {
				findings = append(findings, fmt.Sprintf("operation %s: %s %s has no usable locator (target or name)", op.ID, op.Action, op.Entity))
			}
		}
	}
	if len(findings) > 0 {
		plan.MergeClarification("Plan blocked:\n- " + strings.Join(findings, "\n- "))
	}
	return findings
}
