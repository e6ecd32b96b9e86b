package agent

import (
	"context"
	"strings"
	"testing"

	"keeper/internal/domain"
	"keeper/internal/llm"
	"keeper/internal/llm/mockclient"
	"keeper/internal/planner"
	"keeper/internal/tooling"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Items: []domain.Item{
			{ID: "item-1", Name: "示波器A", Status: domain.StatusAvailable, Visibility: domain.VisibilityPublic},
			{ID: "item-2", Name: "示波器B", Status: domain.StatusMaintenance, Visibility: domain.VisibilityPublic},
		},
		Members: []domain.Member{
			{ID: "member-1", Name: "张三", Username: "zhangsan"},
		},
	}
}

func newTestLoop(client *mockclient.Client, maxRounds int) *Loop {
	return NewLoop(client, tooling.NewRegistry(), planner.New(client, 0), maxRounds)
}

const memberPlanJSON = `{"operations":[{"id":"op-1","action":"create","entity":"member","member":{"name":"小王","username":"wangx"}}]}`

func TestCreateMemberReachesPlanInOneRound(t *testing.T) {
	client := mockclient.New(
		`{"type":"plan"}`,
		memberPlanJSON,
	)
	loop := newTestLoop(client, DefaultMaxRounds)

	result, err := loop.Run(context.Background(), "新增成员小王，用户名 wangx", testSnapshot())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stats.Rounds != 1 {
		t.Errorf("expected 1 round, got %d", result.Stats.Rounds)
	}
	if len(result.Plan.Operations) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Plan.Operations))
	}
	op := result.Plan.Operations[0]
	if op.Action != domain.ActionCreate || op.Entity != domain.KindMember {
		t.Errorf("wrong operation: %+v", op)
	}
	if op.Member == nil || op.Member.Name == nil || *op.Member.Name != "小王" {
		t.Errorf("member name lost: %+v", op.Member)
	}
	if op.Member.Username == nil || *op.Member.Username != "wangx" {
		t.Errorf("member username lost: %+v", op.Member)
	}
}

func TestReadOnlyFastPathSkipsModel(t *testing.T) {
	client := mockclient.New()
	loop := newTestLoop(client, DefaultMaxRounds)

	result, err := loop.Run(context.Background(), "我有哪些物品", testSnapshot())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if client.Calls() != 0 {
		t.Errorf("expected zero model calls, got %d", client.Calls())
	}
	if result.Stats.Rounds != 1 {
		t.Errorf("expected rounds==1, got %d", result.Stats.Rounds)
	}
	if result.Plan.Executable() {
		t.Error("fast path result must be clarification-shaped")
	}
	if !strings.Contains(result.Plan.Clarification, "示波器A") {
		t.Errorf("listing missing item: %q", result.Plan.Clarification)
	}
}

func TestWriteVerbDisablesFastPath(t *testing.T) {
	client := mockclient.New(`{"type":"plan"}`, memberPlanJSON)
	loop := newTestLoop(client, DefaultMaxRounds)

	if _, err := loop.Run(context.Background(), "列出并删除所有物品", testSnapshot()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if client.Calls() == 0 {
		t.Error("mixed intent must go through the model")
	}
}

func TestRepeatedSignatureGuardFires(t *testing.T) {
	toolDecision := `{"type":"tool","tool":"search_items","query":"找不到的东西","limit":5}`
	client := mockclient.New(toolDecision, toolDecision, toolDecision, toolDecision, toolDecision)
	loop := newTestLoop(client, DefaultMaxRounds)

	result, err := loop.Run(context.Background(), "帮我看看那个东西", testSnapshot())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stats.ToolCalls != 2 {
		t.Errorf("expected exactly 2 dispatches before the guard, got %d", result.Stats.ToolCalls)
	}
	if result.Stats.RepeatedToolBlocked != 1 {
		t.Errorf("expected guard to fire once, got %d", result.Stats.RepeatedToolBlocked)
	}
	if result.Plan.Executable() {
		t.Error("non-create intent must end in clarification")
	}
	if result.Plan.Clarification == "" {
		t.Error("clarification message missing")
	}
}

func TestRepeatedSignatureFastTracksCreateIntent(t *testing.T) {
	toolDecision := `{"type":"tool","tool":"search_members","query":"小王","limit":5}`
	client := mockclient.NewWithResponder(func(req llm.CompletionRequest) string {
		if strings.Contains(req.Prompt, `"operations"`) {
			return memberPlanJSON
		}
		return toolDecision
	}, toolDecision, toolDecision, toolDecision)
	loop := newTestLoop(client, DefaultMaxRounds)

	result, err := loop.Run(context.Background(), "新增成员小王，用户名 wangx，再查一下", testSnapshot())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stats.RepeatedToolBlocked != 1 {
		t.Errorf("guard should fire: %+v", result.Stats)
	}
	if len(result.Plan.Operations) != 1 {
		t.Fatalf("fast-track should produce a plan, got %+v", result.Plan)
	}
}

func TestMaxRoundsFallbackPlan(t *testing.T) {
	client := mockclient.NewWithResponder(func(req llm.CompletionRequest) string {
		if strings.Contains(req.Prompt, `"operations"`) {
			return memberPlanJSON
		}
		return `{"type":"tool","tool":"search_items","query":"第一","limit":5}`
	},
		`{"type":"tool","tool":"search_items","query":"第一","limit":5}`,
		`{"type":"tool","tool":"search_items","query":"第二","limit":5}`,
	)
	loop := newTestLoop(client, 2)

	result, err := loop.Run(context.Background(), "帮我处理一下设备", testSnapshot())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Stats.UsedFallbackPlan {
		t.Error("expected usedFallbackPlan")
	}
	if result.Stats.Rounds != 2 {
		t.Errorf("expected 2 rounds, got %d", result.Stats.Rounds)
	}
}

func TestUnparseableDecisionRepairedOnce(t *testing.T) {
	client := mockclient.New(
		"我觉得应该先搜索一下,没有JSON",
		`{"type":"plan"}`,
		memberPlanJSON,
	)
	loop := newTestLoop(client, DefaultMaxRounds)

	result, err := loop.Run(context.Background(), "新增成员小王，用户名 wangx", testSnapshot())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stats.RepairedDecisions != 1 {
		t.Errorf("expected one repaired decision, got %d", result.Stats.RepairedDecisions)
	}
	if len(result.Plan.Operations) != 1 {
		t.Errorf("plan lost after repair: %+v", result.Plan)
	}
}

func TestSanitizeRedactsAndCaps(t *testing.T) {
	lines := Sanitize([]string{
		"contact zhangsan@example.com for access",
		"token sk_abcdefghijklmnopqrstuvwxyz0123456789ABCD used",
		strings.Repeat("长", 400),
	})
	if strings.Contains(lines[0], "@example.com") {
		t.Errorf("email not redacted: %q", lines[0])
	}
	if strings.Contains(lines[1], "abcdefghijklmnop") {
		t.Errorf("token not redacted: %q", lines[1])
	}
	if len([]rune(lines[2])) > 301 {
		t.Errorf("line not truncated: %d runes", len([]rune(lines[2])))
	}
}
