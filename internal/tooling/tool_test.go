package tooling

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"keeper/internal/domain"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Items: []domain.Item{
			{ID: "i1", Name: "示波器A", Status: domain.StatusAvailable, Visibility: domain.VisibilityPublic},
			{ID: "i2", Name: "示波器B", Status: domain.StatusOnLoan, Visibility: domain.VisibilityPublic},
			{ID: "i3", Name: "电钻", Status: domain.StatusAvailable, Visibility: domain.VisibilityPrivate},
		},
		Members: []domain.Member{
			{ID: "m1", Name: "小王", Username: "wangx"},
		},
	}
}

func TestRegistryNamesCoverAllEntities(t *testing.T) {
	registry := NewRegistry()
	names := registry.Names()
	if len(names) != 8 {
		t.Fatalf("expected 8 tools, got %d (%v)", len(names), names)
	}
	catalog := registry.Catalog()
	for _, name := range names {
		if !strings.Contains(catalog, name) {
			t.Fatalf("catalog text missing tool %s", name)
		}
		if _, ok := registry.Lookup(name); !ok {
			t.Fatalf("lookup failed for cataloged tool %s", name)
		}
	}
}

func TestValidateSearchRequiresQuery(t *testing.T) {
	registry := NewRegistry()
	err := registry.Validate(domain.Decision{Type: domain.DecisionTool, Tool: "search_items"})
	if err == nil {
		t.Fatal("expected missing query to fail validation")
	}
	err = registry.Validate(domain.Decision{Type: domain.DecisionTool, Tool: "search_items", Query: "示波器"})
	if err != nil {
		t.Fatalf("valid search rejected: %v", err)
	}
}

func TestValidateGetAcceptsQueryFallback(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Validate(domain.Decision{Type: domain.DecisionTool, Tool: "get_item"}); err == nil {
		t.Fatal("expected get without locator to fail")
	}
	if err := registry.Validate(domain.Decision{Type: domain.DecisionTool, Tool: "get_item", Query: "电钻"}); err != nil {
		t.Fatalf("query fallback rejected: %v", err)
	}
}

func TestValidateUnknownTool(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Validate(domain.Decision{Type: domain.DecisionTool, Tool: "drop_tables"}); err == nil {
		t.Fatal("expected unknown tool to fail validation")
	}
}

func TestDispatchSearchRanksExactFirst(t *testing.T) {
	registry := NewRegistry()
	out, err := registry.Dispatch(context.Background(), testSnapshot(), domain.Decision{
		Type: domain.DecisionTool, Tool: "search_items", Query: "示波器A", Limit: 5,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	var payload struct {
		Count   int `json:"count"`
		Results []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("observation is not JSON: %v", err)
	}
	if payload.Count < 1 || payload.Results[0].ID != "i1" {
		t.Fatalf("exact match must rank first: %+v", payload)
	}
}

func TestDispatchSearchHonorsLimit(t *testing.T) {
	registry := NewRegistry()
	out, err := registry.Dispatch(context.Background(), testSnapshot(), domain.Decision{
		Type: domain.DecisionTool, Tool: "search_items", Query: "示波器", Limit: 1,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("observation is not JSON: %v", err)
	}
	if payload.Count != 1 {
		t.Fatalf("limit ignored, got %d results", payload.Count)
	}
}

func TestDispatchGetAmbiguousSurfacesError(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Dispatch(context.Background(), testSnapshot(), domain.Decision{
		Type: domain.DecisionTool, Tool: "get_item", Target: "示波器",
	})
	if err == nil || !strings.Contains(err.Error(), "multiple") {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
}

func TestDispatchGetMemberByUsername(t *testing.T) {
	registry := NewRegistry()
	out, err := registry.Dispatch(context.Background(), testSnapshot(), domain.Decision{
		Type: domain.DecisionTool, Tool: "get_member", Target: "wangx",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !strings.Contains(out, "小王") {
		t.Fatalf("unexpected observation: %s", out)
	}
}
