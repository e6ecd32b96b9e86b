// Package tooling holds the read-only query tools exposed to the model
// during the decision loop. The static table below is the single source of
// truth: prompt catalog text, decision validation, and dispatch all derive
// from it, so adding a tool here is the only step needed for it to appear
// consistently in all three places.
package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"keeper/internal/domain"
	"keeper/internal/resolve"
)

// DefaultLimit caps search results when the model does not ask for a limit.
const DefaultLimit = 5

// MaxLimit is the hard ceiling for one search call.
const MaxLimit = 50

// Tool is one registry entry. Search tools are broad and ranked; the rest
// require a target and return one record or an error.
type Tool struct {
	Name        string
	Description string
	Entity      domain.EntityKind
	Search      bool
	run         func(ctx context.Context, snap domain.Snapshot, dec domain.Decision) (string, error)
}

// Registry is the fixed tool catalog built once at startup.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds the catalog of the eight repository query tools.
func NewRegistry() *Registry {
	entries := []Tool{
		searchTool("search_items", domain.KindItem, "Ranked search over item names; returns a list of matching items."),
		searchTool("search_locations", domain.KindLocation, "Ranked search over location names; returns a list of matching locations."),
		searchTool("search_events", domain.KindEvent, "Ranked search over event titles; returns a list of matching events."),
		searchTool("search_members", domain.KindMember, "Ranked search over member names and usernames; returns a list of matching members."),
		getTool("get_item", domain.KindItem, "Fetch exactly one item by id or name; errors when the reference is ambiguous."),
		getTool("get_location", domain.KindLocation, "Fetch exactly one location by id or name; errors when the reference is ambiguous."),
		getTool("get_event", domain.KindEvent, "Fetch exactly one event by id or title; errors when the reference is ambiguous."),
		getTool("get_member", domain.KindMember, "Fetch exactly one member by id, username, or name; errors when the reference is ambiguous."),
	}
	registry := &Registry{tools: make(map[string]Tool, len(entries))}
	for _, tool := range entries {
		registry.tools[tool.Name] = tool
		registry.order = append(registry.order, tool.Name)
	}
	return registry
}

// Lookup fetches a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the tool name tokens in registration order, for the
// decision JSON schema enum.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SearchToolFor returns the search tool covering an entity kind.
func (r *Registry) SearchToolFor(kind domain.EntityKind) (Tool, bool) {
	for _, name := range r.order {
		tool := r.tools[name]
		if tool.Search && tool.Entity == kind {
			return tool, true
		}
	}
	return Tool{}, false
}

// Catalog renders the natural-language tool list injected into the loop
// prompt. Derived from the table so prompt text can never drift from
// validation or dispatch.
func (r *Registry) Catalog() string {
	var sb strings.Builder
	for _, name := range r.order {
		tool := r.tools[name]
		fmt.Fprintf(&sb, "- %s: %s\n", tool.Name, tool.Description)
	}
	return sb.String()
}

// Validate checks a tool decision against the named tool's schema.
// Search tools require query; get tools require target (query accepted as
// a fallback locator).
func (r *Registry) Validate(dec domain.Decision) error {
	tool, ok := r.tools[dec.Tool]
	if !ok {
		return fmt.Errorf("unknown tool %q (known: %s)", dec.Tool, strings.Join(r.Names(), ", "))
	}
	if tool.Search {
		if strings.TrimSpace(dec.Query) == "" {
			return fmt.Errorf("tool %s requires a non-empty query", tool.Name)
		}
		return nil
	}
	if strings.TrimSpace(dec.Target) == "" && strings.TrimSpace(dec.Query) == "" {
		return fmt.Errorf("tool %s requires a target (or query as fallback)", tool.Name)
	}
	return nil
}

// Dispatch validates and runs the decision's tool against one snapshot,
// returning the JSON-serialized observation.
func (r *Registry) Dispatch(ctx context.Context, snap domain.Snapshot, dec domain.Decision) (string, error) {
	if err := r.Validate(dec); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tool := r.tools[dec.Tool]
	return tool.run(ctx, snap, dec)
}

func searchTool(name string, kind domain.EntityKind, description string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Entity:      kind,
		Search:      true,
		run: func(_ context.Context, snap domain.Snapshot, dec domain.Decision) (string, error) {
			return runSearch(snap, kind, dec.Query, dec.Limit)
		},
	}
}

func getTool(name string, kind domain.EntityKind, description string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Entity:      kind,
		run: func(_ context.Context, snap domain.Snapshot, dec domain.Decision) (string, error) {
			locator := strings.TrimSpace(dec.Target)
			if locator == "" {
				locator = strings.TrimSpace(dec.Query)
			}
			return runGet(snap, kind, locator)
		},
	}
}

type searchRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
	score  int
}

func runSearch(snap domain.Snapshot, kind domain.EntityKind, query string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	rows := rankRows(candidateRows(snap, kind), query)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	payload, err := json.Marshal(map[string]any{"query": query, "count": len(rows), "results": rows})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func candidateRows(snap domain.Snapshot, kind domain.EntityKind) []searchRow {
	var rows []searchRow
	switch kind {
	case domain.KindItem:
		for _, item := range snap.Items {
			detail := fmt.Sprintf("status=%s visibility=%s", item.Status, item.Visibility)
			rows = append(rows, searchRow{ID: item.ID, Name: item.Name, Detail: detail})
		}
	case domain.KindLocation:
		for _, loc := range snap.Locations {
			rows = append(rows, searchRow{ID: loc.ID, Name: loc.Name, Detail: "visibility=" + string(loc.Visibility)})
		}
	case domain.KindEvent:
		for _, ev := range snap.Events {
			detail := ""
			if !ev.StartsAt.IsZero() {
				detail = "starts=" + ev.StartsAt.Format("2006-01-02 15:04")
			}
			rows = append(rows, searchRow{ID: ev.ID, Name: ev.Title, Detail: detail})
		}
	case domain.KindMember:
		for _, member := range snap.Members {
			rows = append(rows, searchRow{ID: member.ID, Name: member.Name, Detail: "username=" + member.Username})
		}
	}
	return rows
}

// rankRows scores exact > prefix > substring against name (case folded),
// preserving input order inside one score band.
func rankRows(rows []searchRow, query string) []searchRow {
	needle := strings.ToLower(strings.TrimSpace(query))
	var matched []searchRow
	for _, row := range rows {
		haystack := strings.ToLower(row.Name + " " + row.Detail)
		name := strings.ToLower(row.Name)
		switch {
		case name == needle:
			row.score = 3
		case strings.HasPrefix(name, needle):
			row.score = 2
		case strings.Contains(haystack, needle):
			row.score = 1
		default:
			continue
		}
		matched = append(matched, row)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].score > matched[j].score })
	return matched
}

func runGet(snap domain.Snapshot, kind domain.EntityKind, locator string) (string, error) {
	target := &domain.Target{Name: locator}
	var record any
	var err error
	switch kind {
	case domain.KindItem:
		record, err = resolve.Item(snap, target)
	case domain.KindLocation:
		record, err = resolve.Location(snap, target)
	case domain.KindEvent:
		record, err = resolve.Event(snap, target)
	case domain.KindMember:
		record, err = resolve.Member(snap, target)
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
