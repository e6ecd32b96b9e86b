// Package planner turns an instruction plus loop observations into a
// structured plan via one model call, then post-processes the result: id
// backfill, empty-string normalization, and the plan guard.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"keeper/internal/domain"
	"keeper/internal/jsonx"
	"keeper/internal/llm"
	"keeper/internal/logging"
	"keeper/internal/prompts"
)

// DefaultMaxTokens bounds one planning completion.
const DefaultMaxTokens = 2048

// Planner produces plans from instructions.
type Planner struct {
	client    llm.Client
	maxTokens int
	now       func() time.Time
}

// New wires a planner to a completion client. maxTokens <= 0 selects the
// default budget.
func New(client llm.Client, maxTokens int) *Planner {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Planner{client: client, maxTokens: maxTokens, now: time.Now}
}

// Plan asks the model for a plan and normalizes the reply. The returned
// plan always passes the guard's structural checks or carries a
// clarification explaining which operations are blocked.
func (p *Planner) Plan(ctx context.Context, instruction string, observations []string, snap domain.Snapshot) (domain.Plan, error) {
	prompt := p.buildPrompt(instruction, observations, snap, nil, nil)
	return p.complete(ctx, prompt)
}

// Repair re-plans after a partially failed execution. Prior failures and
// their messages are included, and the model is told not to resubmit
// operations that already succeeded.
func (p *Planner) Repair(ctx context.Context, instruction string, observations []string, snap domain.Snapshot, prior domain.Plan, failed []domain.ExecutionEntry) (domain.Plan, error) {
	prompt := p.buildPrompt(instruction, observations, snap, &prior, failed)
	return p.complete(ctx, prompt)
}

func (p *Planner) complete(ctx context.Context, prompt string) (domain.Plan, error) {
	raw, err := p.client.Complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		MaxTokens:    p.maxTokens,
		SystemPrompt: prompts.PlannerSystem(),
	})
	if err != nil {
		return domain.Plan{}, fmt.Errorf("planner completion: %w", err)
	}

	var plan domain.Plan
	if err := jsonx.Decode(raw, &plan); err != nil {
		logging.DevLog("planner reply undecodable (%d chars): %v", len(raw), err)
		return domain.Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	normalize(&plan)
	Guard(&plan)
	return plan, nil
}

// normalize backfills stable operation ids and clears empty note and
// clarification strings so absent and empty mean the same thing upstream.
func normalize(plan *domain.Plan) {
	for i := range plan.Operations {
		if strings.TrimSpace(plan.Operations[i].ID) == "" {
			plan.Operations[i].ID = "op-" + uuid.NewString()[:8]
		}
		plan.Operations[i].Note = strings.TrimSpace(plan.Operations[i].Note)
	}
	plan.Clarification = strings.TrimSpace(plan.Clarification)
}

func (p *Planner) buildPrompt(instruction string, observations []string, snap domain.Snapshot, prior *domain.Plan, failed []domain.ExecutionEntry) string {
	var sb strings.Builder

	sb.WriteString("## Output format\n")
	sb.WriteString("Reply with one JSON object only:\n")
	sb.WriteString(planSchema)
	sb.WriteString("\n\n## Legal field values\n")
	fmt.Fprintf(&sb, "item.status: %s\n", strings.Join(domain.StatusValues(), " | "))
	fmt.Fprintf(&sb, "item.features[]: %s\n", strings.Join(domain.FeatureValues(), " | "))
	fmt.Fprintf(&sb, "visibility: %s\n", strings.Join(domain.VisibilityValues(), " | "))
	fmt.Fprintf(&sb, "\nCurrent time: %s\n", p.now().Format(time.RFC3339))

	sb.WriteString("\n## Known records\n")
	sb.WriteString(ContextSummary(snap))

	if len(observations) > 0 {
		sb.WriteString("\n## Observations from tool calls\n")
		for i, obs := range observations {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, obs)
		}
	}

	if prior != nil {
		sb.WriteString("\n## Previous attempt\n")
		sb.WriteString("These operations FAILED and must be fixed or replaced:\n")
		failedIDs := make(map[string]string, len(failed))
		for _, entry := range failed {
			failedIDs[entry.OperationID] = entry.Message
		}
		for _, op := range prior.Operations {
			if msg, ok := failedIDs[op.ID]; ok {
				fmt.Fprintf(&sb, "- %s %s (id %s): %s\n", op.Action, op.Entity, op.ID, msg)
			}
		}
		sb.WriteString("Operations not listed above already succeeded. Do NOT resubmit them.\n")
	}

	fmt.Fprintf(&sb, "\n## Instruction\n%s\n", instruction)
	return sb.String()
}

const planSchema = `{
  "operations": [
    {
      "id": "string (optional, assigned if missing)",
      "action": "create|update|delete",
      "entity": "item|location|event|member",
      "target": {"id": "string?", "name": "string?", "username": "string?"},
      "item": {"name": "?", "description": "?", "status": "?", "features": ["?"], "visibility": "?", "location": "?", "responsible": ["?"]},
      "location": {"name": "?", "description": "?", "parent": "?", "visibility": "?", "responsible": ["?"]},
      "event": {"title": "?", "description": "?", "starts_at": "RFC3339?", "ends_at": "RFC3339?", "owner": "?", "location": "?", "participants": ["?"]},
      "member": {"name": "?", "username": "?", "email": "?"},
      "note": "string?"
    }
  ],
  "clarification": "string? (set ONLY when you cannot plan safely)"
}
Populate exactly one of item/location/event/member per operation, matching "entity".`

// ContextSummary renders a names-only snapshot of the domain for prompts.
// Full records never enter a prompt; the tools exist for detail lookups.
func ContextSummary(snap domain.Snapshot) string {
	var sb strings.Builder
	writeNames := func(label string, names []string) {
		const cap = 40
		if len(names) == 0 {
			fmt.Fprintf(&sb, "%s: (none)\n", label)
			return
		}
		shown := names
		extra := 0
		if len(shown) > cap {
			extra = len(shown) - cap
			shown = shown[:cap]
		}
		fmt.Fprintf(&sb, "%s: %s", label, strings.Join(shown, ", "))
		if extra > 0 {
			fmt.Fprintf(&sb, " (+%d more)", extra)
		}
		sb.WriteString("\n")
	}

	items := make([]string, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = item.Name
	}
	locations := make([]string, len(snap.Locations))
	for i, loc := range snap.Locations {
		locations[i] = loc.Name
	}
	events := make([]string, len(snap.Events))
	for i, ev := range snap.Events {
		events[i] = ev.Title
	}
	members := make([]string, len(snap.Members))
	for i, member := range snap.Members {
		members[i] = fmt.Sprintf("%s (@%s)", member.Name, member.Username)
	}

	writeNames("Items", items)
	writeNames("Locations", locations)
	writeNames("Events", events)
	writeNames("Members", members)
	return sb.String()
}
