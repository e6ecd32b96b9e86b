// Package agent runs the bounded decision loop: each round asks the model
// for one decision (call a tool, finalize a plan, or ask the user), feeds
// tool observations back, and terminates on a plan, a clarification, or
// round exhaustion.
package agent

import (
	"context"
	"fmt"
	"strings"

	"keeper/internal/domain"
	"keeper/internal/jsonx"
	"keeper/internal/llm"
	"keeper/internal/logging"
	"keeper/internal/planner"
	"keeper/internal/prompts"
	"keeper/internal/tooling"
)

const (
	// DefaultMaxRounds bounds the loop; it is a hard cap, not wall-clock.
	DefaultMaxRounds = 6

	// maxObservations limits how much tool history is replayed into each
	// round's prompt.
	maxObservations = 12

	// repeatLimit is how often the exact same tool signature may run
	// before the guard fires.
	repeatLimit = 2

	decisionMaxTokens = 512
)

// Loop drives one instruction through tool rounds to a terminal plan.
type Loop struct {
	client    llm.Client
	registry  *tooling.Registry
	planner   *planner.Planner
	maxRounds int
}

func NewLoop(client llm.Client, registry *tooling.Registry, pl *planner.Planner, maxRounds int) *Loop {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Loop{client: client, registry: registry, planner: pl, maxRounds: maxRounds}
}

// loopContext is per-instruction state. Nothing here is shared across
// instructions, so concurrent instructions cannot interfere.
type loopContext struct {
	observations []string
	signatures   map[string]int
	trace        []string
	stats        domain.LoopStats
}

func (lc *loopContext) observe(line string) {
	lc.observations = append(lc.observations, line)
}

func (lc *loopContext) tracef(format string, args ...any) {
	lc.trace = append(lc.trace, fmt.Sprintf(format, args...))
}

func (lc *loopContext) recent() []string {
	if len(lc.observations) <= maxObservations {
		return lc.observations
	}
	return lc.observations[len(lc.observations)-maxObservations:]
}

// Run executes the loop for one instruction against one snapshot.
func (l *Loop) Run(ctx context.Context, instruction string, snap domain.Snapshot) (domain.LoopResult, error) {
	if result, ok := l.fastPath(instruction, snap); ok {
		return result, nil
	}

	lc := &loopContext{signatures: map[string]int{}}
	for round := 1; round <= l.maxRounds; round++ {
		lc.stats.Rounds = round
		decision, ok := l.decide(ctx, instruction, snap, lc, round)
		if !ok {
			lc.tracef("round %d: decision unusable, skipping", round)
			continue
		}

		switch decision.Type {
		case domain.DecisionPlan:
			lc.tracef("round %d: model finalized, planning", round)
			return l.finishWithPlan(ctx, instruction, snap, lc)
		case domain.DecisionClarification:
			lc.tracef("round %d: clarification requested", round)
			return l.finishWithClarification(decision.Clarification, lc), nil
		case domain.DecisionTool:
			if done, result, err := l.runTool(ctx, instruction, snap, lc, round, decision); done {
				return result, err
			}
		}
	}

	// Round budget exhausted: plan with whatever we learned.
	lc.stats.UsedFallbackPlan = true
	lc.tracef("rounds exhausted after %d, falling back to planner", l.maxRounds)
	return l.finishWithPlan(ctx, instruction, snap, lc)
}

// decide asks the model for one decision, running the one-shot repair call
// when the reply does not decode.
func (l *Loop) decide(ctx context.Context, instruction string, snap domain.Snapshot, lc *loopContext, round int) (domain.Decision, bool) {
	prompt := l.buildPrompt(instruction, snap, lc, round)
	reply, err := l.client.Complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		MaxTokens:    decisionMaxTokens,
		SystemPrompt: prompts.LoopSystem(),
	})
	if err != nil {
		lc.stats.InvalidDecisionCount++
		lc.observe("decision call failed: " + err.Error())
		logging.DevLog("decision round %d: %v", round, err)
		return domain.Decision{}, false
	}

	decision, derr := decodeDecision(reply)
	if derr != nil {
		repaired, rerr := l.repairDecision(ctx, reply)
		if rerr != nil {
			lc.stats.InvalidDecisionCount++
			lc.observe("decision_parse_failed: " + derr.Error())
			return domain.Decision{}, false
		}
		lc.stats.RepairedDecisions++
		decision = repaired
	}
	if err := decision.Validate(); err != nil {
		lc.stats.InvalidDecisionCount++
		lc.observe("invalid decision: " + err.Error())
		return domain.Decision{}, false
	}
	return decision, true
}

// runTool validates and dispatches one tool decision. The boolean reports
// whether the loop reached a terminal state.
func (l *Loop) runTool(ctx context.Context, instruction string, snap domain.Snapshot, lc *loopContext, round int, decision domain.Decision) (bool, domain.LoopResult, error) {
	if err := l.registry.Validate(decision); err != nil {
		// Validation defects feed back as observations and do not count
		// toward the repeat guard.
		lc.observe("tool rejected: " + err.Error())
		lc.tracef("round %d: tool %s rejected: %v", round, decision.Tool, err)
		return false, domain.LoopResult{}, nil
	}

	sig := decision.Signature()
	lc.signatures[sig]++
	if lc.signatures[sig] > repeatLimit {
		lc.stats.RepeatedToolBlocked++
		lc.tracef("round %d: signature repeated %d times, guard fired", round, lc.signatures[sig])
		if isCreateIntent(instruction) {
			result, err := l.finishWithPlan(ctx, instruction, snap, lc)
			return true, result, err
		}
		msg := "我反复查询都没有得到有用的结果，请提供更准确的名称或编号。"
		return true, l.finishWithClarification(msg, lc), nil
	}

	lc.stats.ToolCalls++
	observation, err := l.registry.Dispatch(ctx, snap, decision)
	if err != nil {
		lc.observe(fmt.Sprintf("%s failed: %s", decision.Tool, err.Error()))
		lc.tracef("round %d: %s error: %v", round, decision.Tool, err)
		return false, domain.LoopResult{}, nil
	}
	if emptyObservation(observation) {
		lc.stats.EmptyToolResults++
	}
	lc.observe(fmt.Sprintf("%s(%s) -> %s", decision.Tool, decision.Query+decision.Target, observation))
	lc.tracef("round %d: %s dispatched", round, decision.Tool)
	return false, domain.LoopResult{}, nil
}

func (l *Loop) finishWithPlan(ctx context.Context, instruction string, snap domain.Snapshot, lc *loopContext) (domain.LoopResult, error) {
	if lc.stats.Rounds == 0 {
		lc.stats.Rounds = 1
	}
	plan, err := l.planner.Plan(ctx, instruction, lc.observations, snap)
	if err != nil {
		return domain.LoopResult{Trace: Sanitize(lc.trace), Stats: lc.stats}, err
	}
	return domain.LoopResult{Plan: plan, Trace: Sanitize(lc.trace), Stats: lc.stats}, nil
}

func (l *Loop) finishWithClarification(message string, lc *loopContext) domain.LoopResult {
	if strings.TrimSpace(message) == "" {
		message = "请补充更多信息后再试一次。"
	}
	if lc.stats.Rounds == 0 {
		lc.stats.Rounds = 1
	}
	return domain.LoopResult{
		Plan:  domain.Plan{Clarification: message},
		Trace: Sanitize(lc.trace),
		Stats: lc.stats,
	}
}

func (l *Loop) buildPrompt(instruction string, snap domain.Snapshot, lc *loopContext, round int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d of %d.\n\n", round, l.maxRounds)
	b.WriteString("Reply with exactly one JSON object matching:\n")
	b.WriteString(decisionSchema(l.registry))
	b.WriteString("\n\n## Tools\n")
	b.WriteString(l.registry.Catalog())
	b.WriteString("\n## Current data\n")
	b.WriteString(planner.ContextSummary(snap))
	if recent := lc.recent(); len(recent) > 0 {
		b.WriteString("\n## Observations so far\n")
		for i, obs := range recent {
			fmt.Fprintf(&b, "%d. %s\n", i+1, obs)
		}
	}
	b.WriteString("\n## Instruction\n")
	b.WriteString(instruction)
	return b.String()
}

func decisionSchema(registry *tooling.Registry) string {
	return fmt.Sprintf(`{
  "type": "tool|plan|clarification",
  "tool": "%s",
  "query": "string, required for search_* tools",
  "target": "string, required for get_* tools",
  "entity": "item|location|event|member",
  "limit": "int, 1..50, default %d",
  "clarification": "string, only for type=clarification"
}`, strings.Join(registry.Names(), "|"), tooling.DefaultLimit)
}

func decodeDecision(raw string) (domain.Decision, error) {
	var decision domain.Decision
	if err := jsonx.Decode(raw, &decision); err != nil {
		return domain.Decision{}, err
	}
	if decision.Type == "" {
		return domain.Decision{}, fmt.Errorf("decision has no type")
	}
	return decision, nil
}

// repairDecision gives the model one chance to fix an unparseable reply.
func (l *Loop) repairDecision(ctx context.Context, offending string) (domain.Decision, error) {
	prompt := fmt.Sprintf(`The following reply was not a valid decision JSON object:

%s

Re-emit it as exactly one JSON object with fields type/tool/query/target/entity/limit/clarification and nothing else.`, offending)
	reply, err := l.client.Complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		MaxTokens:    decisionMaxTokens,
		SystemPrompt: prompts.LoopSystem(),
	})
	if err != nil {
		return domain.Decision{}, err
	}
	return decodeDecision(reply)
}

func emptyObservation(observation string) bool {
	return strings.Contains(observation, `"count":0`) || strings.TrimSpace(observation) == ""
}
