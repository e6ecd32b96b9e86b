package server

import (
	"context"
	"errors"
	"fmt"

	"keeper/internal/agent"
	"keeper/internal/domain"
	"keeper/internal/jsonx"
	"keeper/internal/llm/mockclient"
	"keeper/internal/planner"
	"keeper/internal/resolve"
	"keeper/internal/tooling"
)

// Check is one self-check verdict.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// runSelfChecks exercises the core guard rails against a scripted model
// and synthetic data. None of the checks touch the real repository or the
// real provider.
func runSelfChecks(ctx context.Context) []Check {
	return []Check{
		checkOf("json_recovery", checkJSONRecovery),
		checkOf("ambiguity_detection", checkAmbiguity),
		checkOf("plan_guard", func(context.Context) error { return checkPlanGuard(ctx) }),
		checkOf("repeat_guard", func(context.Context) error { return checkRepeatGuard(ctx) }),
		checkOf("read_only_fast_path", func(context.Context) error { return checkFastPath(ctx) }),
	}
}

func checkOf(name string, fn func(context.Context) error) Check {
	if err := fn(context.Background()); err != nil {
		return Check{Name: name, Passed: false, Detail: err.Error()}
	}
	return Check{Name: name, Passed: true, Detail: "ok"}
}

func checkJSONRecovery(context.Context) error {
	raw := "好的，这是决定：\n```json\n{\"type\":\"tool\",\"tool\":\"search_items\",\"query\":\"扳手\",}\n```"
	var decision domain.Decision
	if err := jsonx.Decode(raw, &decision); err != nil {
		return fmt.Errorf("fenced decode failed: %w", err)
	}
	if decision.Tool != "search_items" {
		return fmt.Errorf("decoded wrong tool %q", decision.Tool)
	}
	return nil
}

func checkAmbiguity(context.Context) error {
	snap := domain.Snapshot{Items: []domain.Item{
		{ID: "a", Name: "示波器A"},
		{ID: "b", Name: "示波器B"},
	}}
	_, err := resolve.ItemByName(snap, "示波器")
	var ambiguous *resolve.AmbiguousTargetError
	if !errors.As(err, &ambiguous) {
		return fmt.Errorf("expected ambiguity, got %v", err)
	}
	return nil
}

func checkPlanGuard(ctx context.Context) error {
	client := mockclient.New(`{"operations":[{"id":"op-1","action":"create","entity":"item","item":{"description":"没有名字"}}]}`)
	plan, err := planner.New(client, 0).Plan(ctx, "加个东西", nil, domain.Snapshot{})
	if err != nil {
		return err
	}
	if plan.Executable() {
		return errors.New("guard let a nameless create through")
	}
	return nil
}

func checkRepeatGuard(ctx context.Context) error {
	tool := `{"type":"tool","tool":"search_items","query":"幽灵物品","limit":5}`
	client := mockclient.New(tool, tool, tool, tool)
	loop := agent.NewLoop(client, tooling.NewRegistry(), planner.New(client, 0), agent.DefaultMaxRounds)
	result, err := loop.Run(ctx, "帮我看看那个", domain.Snapshot{})
	if err != nil {
		return err
	}
	if result.Stats.RepeatedToolBlocked == 0 {
		return errors.New("repeat guard never fired")
	}
	return nil
}

func checkFastPath(ctx context.Context) error {
	client := mockclient.New()
	loop := agent.NewLoop(client, tooling.NewRegistry(), planner.New(client, 0), agent.DefaultMaxRounds)
	snap := domain.Snapshot{Items: []domain.Item{{ID: "a", Name: "示波器A", Status: domain.StatusAvailable}}}
	result, err := loop.Run(ctx, "我有哪些物品", snap)
	if err != nil {
		return err
	}
	if client.Calls() != 0 {
		return fmt.Errorf("fast path used %d model calls", client.Calls())
	}
	if result.Plan.Clarification == "" {
		return errors.New("fast path returned no listing")
	}
	return nil
}
