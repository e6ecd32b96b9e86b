package planner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeper/internal/domain"
	"keeper/internal/llm"
	"keeper/internal/llm/mockclient"
)

func TestPlanDecodesFencedReply(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{"operations":[{"action":"create","entity":"member","member":{"name":"小王","username":"wangx"}}]}` + "\n```"
	p := New(mockclient.New(reply), 0)

	plan, err := p.Plan(context.Background(), "新增成员小王，用户名 wangx", nil, domain.Snapshot{})
	require.NoError(t, err)
	require.Len(t, plan.Operations, 1)

	op := plan.Operations[0]
	assert.Equal(t, domain.ActionCreate, op.Action)
	assert.Equal(t, domain.KindMember, op.Entity)
	require.NotNil(t, op.Member)
	assert.Equal(t, "小王", *op.Member.Name)
	assert.Equal(t, "wangx", *op.Member.Username)
	assert.NotEmpty(t, op.ID, "missing ids must be backfilled")
	assert.Empty(t, plan.Clarification)
}

func TestPlanNormalizesEmptyClarification(t *testing.T) {
	reply := `{"operations":[{"id":"op-1","action":"delete","entity":"item","target":{"name":"旧电钻"}}],"clarification":"  "}`
	p := New(mockclient.New(reply), 0)

	plan, err := p.Plan(context.Background(), "删除旧电钻", nil, domain.Snapshot{})
	require.NoError(t, err)
	assert.Empty(t, plan.Clarification)
	assert.True(t, plan.Executable())
}

func TestPlanUndecodableReplyErrors(t *testing.T) {
	p := New(mockclient.New("I cannot help with that."), 0)
	_, err := p.Plan(context.Background(), "anything", nil, domain.Snapshot{})
	require.Error(t, err)
}

func TestGuardBlocksCreateWithoutName(t *testing.T) {
	plan := domain.Plan{Operations: []domain.Operation{
		{ID: "op-1", Action: domain.ActionCreate, Entity: domain.KindItem, Item: &domain.ItemFields{}},
	}}
	findings := Guard(&plan)

	require.Len(t, findings, 1)
	assert.NotEmpty(t, plan.Clarification)
	assert.Len(t, plan.Operations, 1, "operations must stay intact for inspection")
	assert.False(t, plan.Executable())
}

func TestGuardBlocksUpdateWithoutLocator(t *testing.T) {
	desc := "new description"
	plan := domain.Plan{Operations: []domain.Operation{
		{ID: "op-1", Action: domain.ActionUpdate, Entity: domain.KindItem, Item: &domain.ItemFields{Description: &desc}},
	}}
	findings := Guard(&plan)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "locator")
}

func TestGuardAcceptsNameAsLocator(t *testing.T) {
	name := "示波器A"
	plan := domain.Plan{Operations: []domain.Operation{
		{ID: "op-1", Action: domain.ActionDelete, Entity: domain.KindItem, Item: &domain.ItemFields{Name: &name}},
	}}
	assert.Empty(t, Guard(&plan))
}

func TestGuardMergesWithExistingClarification(t *testing.T) {
	plan := domain.Plan{
		Operations:    []domain.Operation{{ID: "op-1", Action: domain.ActionCreate, Entity: domain.KindItem, Item: &domain.ItemFields{}}},
		Clarification: "which shelf did you mean?",
	}
	Guard(&plan)
	assert.Contains(t, plan.Clarification, "which shelf did you mean?")
	assert.Contains(t, plan.Clarification, "needs a name")
}

func TestGuardRejectsForeignBundle(t *testing.T) {
	name := "小王"
	plan := domain.Plan{Operations: []domain.Operation{
		{ID: "op-1", Action: domain.ActionCreate, Entity: domain.KindItem, Member: &domain.MemberFields{Name: &name}},
	}}
	findings := Guard(&plan)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0], "member bundle")
}

func TestRepairPromptListsFailuresOnly(t *testing.T) {
	var captured string
	client := mockclient.NewWithResponder(func(req llm.CompletionRequest) string {
		captured = req.Prompt
		return `{"operations":[]}`
	})
	p := New(client, 0)

	prior := domain.Plan{Operations: []domain.Operation{
		{ID: "op-ok", Action: domain.ActionCreate, Entity: domain.KindMember, Member: &domain.MemberFields{}},
		{ID: "op-bad", Action: domain.ActionDelete, Entity: domain.KindItem, Target: &domain.Target{Name: "示波器"}},
	}}
	failed := []domain.ExecutionEntry{{OperationID: "op-bad", Success: false, Message: "ambiguous target"}}

	_, err := p.Repair(context.Background(), "把示波器删掉", nil, domain.Snapshot{}, prior, failed)
	require.NoError(t, err)
	assert.Contains(t, captured, "op-bad")
	assert.Contains(t, captured, "ambiguous target")
	assert.NotContains(t, strings.Split(captured, "## Previous attempt")[1], "op-ok")
	assert.Contains(t, captured, "Do NOT resubmit")
}

func TestContextSummaryNamesOnly(t *testing.T) {
	snap := domain.Snapshot{
		Items:   []domain.Item{{ID: "secret-id", Name: "示波器A", Description: "内部编号X9"}},
		Members: []domain.Member{{Name: "小王", Username: "wangx"}},
	}
	summary := ContextSummary(snap)
	assert.Contains(t, summary, "示波器A")
	assert.Contains(t, summary, "@wangx")
	assert.NotContains(t, summary, "secret-id")
	assert.NotContains(t, summary, "内部编号X9")
}
