package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"keeper/internal/domain"
	"keeper/internal/executor"
	"keeper/internal/llm/mockclient"
	"keeper/internal/store"
)

func openRepo(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "keeper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	now := time.Now()
	if err := s.InsertMember(domain.Member{ID: "member-1", Name: "张三", Username: "zhangsan", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("seed commit: %v", err)
	}
	return s
}

func TestProcessCreatesAndVerifiesMember(t *testing.T) {
	repo := openRepo(t)
	client := mockclient.New(`{"type":"plan"}`, memberPlanJSON)
	proc := NewProcessor(newTestLoop(client, DefaultMaxRounds), executor.New(nil), repo)

	result, err := proc.Process(context.Background(), "新增成员小王，用户名 wangx", "member-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Execution == nil || result.Execution.SuccessCount != 1 {
		t.Fatalf("execution failed: %+v", result.Execution)
	}
	if result.Verification == nil || result.Verification.SuccessCount != 1 {
		t.Fatalf("verification failed: %+v", result.Verification)
	}

	snap := repo.Snapshot()
	if len(snap.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(snap.Members))
	}
	found := false
	for _, m := range snap.Members {
		if m.Name == "小王" && m.Username == "wangx" {
			found = true
		}
	}
	if !found {
		t.Errorf("created member missing: %+v", snap.Members)
	}
}

func TestProcessReturnsClarificationWithoutWrites(t *testing.T) {
	repo := openRepo(t)
	client := mockclient.New()
	proc := NewProcessor(newTestLoop(client, DefaultMaxRounds), executor.New(nil), repo)

	result, err := proc.Process(context.Background(), "我有哪些成员", "member-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Execution != nil {
		t.Error("clarification must not reach the executor")
	}
	if result.Plan.Clarification == "" {
		t.Error("expected a listing clarification")
	}
	if len(repo.Snapshot().Members) != 1 {
		t.Error("repository changed by a read-only question")
	}
}
