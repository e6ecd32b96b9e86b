// Package prompts holds the embedded prompt texts. Structure (schemas, tool
// catalogs, observations) is assembled by the agent and planner packages;
// only the static instruction text lives here.
package prompts

import (
	_ "embed"
	"strings"
)

//go:embed loop_system.txt
var loopSystem string

//go:embed planner_system.txt
var plannerSystem string

// LoopSystem returns the decision-loop system prompt.
func LoopSystem() string {
	return strings.TrimSpace(loopSystem)
}

// PlannerSystem returns the planner system prompt.
func PlannerSystem() string {
	return strings.TrimSpace(plannerSystem)
}
