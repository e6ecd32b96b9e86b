package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeper/internal/domain"
)

func str(s string) *string { return &s }

func baseSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Items: []domain.Item{
			{ID: "item-1", Name: "示波器A", Status: domain.StatusAvailable, Visibility: domain.VisibilityPublic},
		},
		Locations: []domain.Location{
			{ID: "loc-1", Name: "工具间", Visibility: domain.VisibilityPublic},
		},
		Members: []domain.Member{
			{ID: "member-1", Name: "张三", Username: "zhangsan"},
		},
	}
}

func okExecution(ids ...string) domain.ExecutionReport {
	report := domain.ExecutionReport{}
	for _, id := range ids {
		report.Entries = append(report.Entries, domain.ExecutionEntry{OperationID: id, Success: true})
		report.SuccessCount++
	}
	return report
}

func TestCreateVerifiedByCountAndFields(t *testing.T) {
	before := baseSnapshot()
	after := before.Clone()
	after.Items = append(after.Items, domain.Item{
		ID: "item-2", Name: "电烙铁", Status: domain.StatusAvailable,
		Visibility: domain.VisibilityPublic, LocationID: "loc-1",
		CreatedAt: time.Now(),
	})

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionCreate, Entity: domain.KindItem,
		Item: &domain.ItemFields{Name: str("电烙铁"), Location: str("工具间")},
	}}}

	report := Run(plan, okExecution("op-1"), before, after)
	require.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, "1 verified, 0 failed", report.Summary)
}

func TestCreateCountNotIncreasedFails(t *testing.T) {
	before := baseSnapshot()
	after := before.Clone()

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionCreate, Entity: domain.KindItem,
		Item: &domain.ItemFields{Name: str("电烙铁")},
	}}}

	report := Run(plan, okExecution("op-1"), before, after)
	require.Equal(t, 1, report.FailureCount)
	assert.Contains(t, report.Entries[0].Message, "数量未增加")
}

func TestUpdateCheckedWithEnumSynonyms(t *testing.T) {
	before := baseSnapshot()
	after := before.Clone()
	after.Items[0].Status = domain.StatusOnLoan

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionUpdate, Entity: domain.KindItem,
		Target: &domain.Target{Name: "示波器A"},
		Item:   &domain.ItemFields{Status: str("借出")},
	}}}

	report := Run(plan, okExecution("op-1"), before, after)
	assert.Equal(t, 1, report.SuccessCount)

	// Same plan against an unchanged store must fail the check.
	report = Run(plan, okExecution("op-1"), before, before.Clone())
	require.Equal(t, 1, report.FailureCount)
	assert.Contains(t, report.Entries[0].Message, "status")
}

func TestUpdateRenameVerifiedByPriorIdentity(t *testing.T) {
	before := baseSnapshot()
	after := before.Clone()
	after.Items[0].Name = "投影仪"
	after.Items[0].UpdatedAt = time.Now()

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionUpdate, Entity: domain.KindItem,
		Target: &domain.Target{Name: "示波器A"},
		Item:   &domain.ItemFields{Name: str("投影仪")},
	}}}

	// The old name no longer resolves after the rename; the record it
	// pointed to before execution must be the one inspected.
	report := Run(plan, okExecution("op-1"), before, after)
	require.Equal(t, 1, report.SuccessCount, report.Entries[0].Message)

	// Rename not applied: the same record still carries the old name.
	report = Run(plan, okExecution("op-1"), before, before.Clone())
	require.Equal(t, 1, report.FailureCount)
	assert.Contains(t, report.Entries[0].Message, "name")
}

func TestCreatePicksNewestByLastModified(t *testing.T) {
	t0 := time.Now().Add(-2 * time.Hour)
	t1 := time.Now().Add(-1 * time.Hour)

	before := baseSnapshot()
	before.Items = append(before.Items, domain.Item{
		ID: "item-old", Name: "投影仪", Status: domain.StatusOnLoan,
		Visibility: domain.VisibilityPublic, CreatedAt: t0, UpdatedAt: t0,
	})
	after := before.Clone()
	// The pre-existing duplicate was touched after the new record was
	// written, so last-modified order differs from creation order.
	after.Items[1].Status = domain.StatusAvailable
	after.Items[1].UpdatedAt = time.Now()
	after.Items = append(after.Items, domain.Item{
		ID: "item-new", Name: "投影仪", Status: domain.StatusRetired,
		Visibility: domain.VisibilityPublic, CreatedAt: t1, UpdatedAt: t1,
	})

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionCreate, Entity: domain.KindItem,
		Item: &domain.ItemFields{Name: str("投影仪"), Status: str("可用")},
	}}}

	report := Run(plan, okExecution("op-1"), before, after)
	require.Equal(t, 1, report.SuccessCount, report.Entries[0].Message)
}

func TestDeleteVerifiedByAbsence(t *testing.T) {
	before := baseSnapshot()
	after := before.Clone()
	after.Items = nil

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionDelete, Entity: domain.KindItem,
		Target: &domain.Target{Name: "示波器A"},
	}}}

	report := Run(plan, okExecution("op-1"), before, after)
	assert.Equal(t, 1, report.SuccessCount)

	report = Run(plan, okExecution("op-1"), before, before.Clone())
	require.Equal(t, 1, report.FailureCount)
	assert.Contains(t, report.Entries[0].Message, "still resolves")
}

func TestDeleteWithSurvivingFuzzyNeighbor(t *testing.T) {
	before := baseSnapshot()
	before.Items = append(before.Items, domain.Item{
		ID: "item-2", Name: "示波器AB", Status: domain.StatusAvailable,
		Visibility: domain.VisibilityPublic,
	})
	after := before.Clone()
	after.Items = []domain.Item{after.Items[1]}

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionDelete, Entity: domain.KindItem,
		Target: &domain.Target{Name: "示波器A"},
	}}}

	// 示波器AB still matches the locator as a substring, but the record
	// the locator named before execution is gone.
	report := Run(plan, okExecution("op-1"), before, after)
	require.Equal(t, 1, report.SuccessCount, report.Entries[0].Message)
}

func TestFailedExecutionIsNotVerified(t *testing.T) {
	snap := baseSnapshot()
	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionDelete, Entity: domain.KindItem,
		Target: &domain.Target{Name: "示波器A"},
	}}}
	execution := domain.ExecutionReport{Entries: []domain.ExecutionEntry{
		{OperationID: "op-1", Success: false, Message: "permission denied"},
	}}

	report := Run(plan, execution, snap, snap.Clone())
	require.Equal(t, 1, report.FailureCount)
	assert.Contains(t, report.Entries[0].Message, "not verified")
}

func TestBulkDeleteVerifiedByCount(t *testing.T) {
	before := baseSnapshot()
	after := before.Clone()
	after.Items = nil

	plan := domain.Plan{Operations: []domain.Operation{{
		ID: "op-1", Action: domain.ActionDelete, Entity: domain.KindItem,
		Target: &domain.Target{Name: "__ALL__"},
	}}}

	report := Run(plan, okExecution("op-1"), before, after)
	assert.Equal(t, 1, report.SuccessCount)
}
