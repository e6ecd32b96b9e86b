package domain

import (
	"fmt"
	"strings"
)

// Action is one of the three mutations a plan operation may request.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction validates an action token from model output.
func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionCreate, ActionUpdate, ActionDelete:
		return Action(raw), true
	}
	return "", false
}

// Target locates an existing entity. It is a locator, not an object: at most
// one of ID/Name/Username is authoritative, and ID wins when present.
type Target struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// IsZero reports whether the target carries no locator at all.
func (t *Target) IsZero() bool {
	return t == nil || (strings.TrimSpace(t.ID) == "" && strings.TrimSpace(t.Name) == "" && strings.TrimSpace(t.Username) == "")
}

// ItemFields is a partial update record for items. A nil pointer means
// "don't touch"; a pointer to an empty value means "set, possibly clearing".
type ItemFields struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Features    *[]string `json:"features,omitempty"`
	Visibility  *string   `json:"visibility,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Responsible *[]string `json:"responsible,omitempty"`
}

// LocationFields is a partial update record for locations.
type LocationFields struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Parent      *string   `json:"parent,omitempty"`
	Visibility  *string   `json:"visibility,omitempty"`
	Responsible *[]string `json:"responsible,omitempty"`
}

// EventFields is a partial update record for events. Timestamps travel as
// RFC3339 strings; the planner prompt instructs the model to resolve
// relative dates before emitting them.
type EventFields struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	StartsAt     *string   `json:"starts_at,omitempty"`
	EndsAt       *string   `json:"ends_at,omitempty"`
	Owner        *string   `json:"owner,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Participants *[]string `json:"participants,omitempty"`
}

// MemberFields is a partial update record for members.
type MemberFields struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Operation is one atomic intended mutation against one entity. Exactly one
// fields bundle may be populated and it must match Entity.
type Operation struct {
	ID       string          `json:"id"`
	Action   Action          `json:"action"`
	Entity   EntityKind      `json:"entity"`
	Target   *Target         `json:"target,omitempty"`
	Item     *ItemFields     `json:"item,omitempty"`
	Location *LocationFields `json:"location,omitempty"`
	Event    *EventFields    `json:"event,omitempty"`
	Member   *MemberFields   `json:"member,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// Validate enforces the bundle invariant: no foreign fields bundle may be
// populated, and the bundle present (if any) must match Entity.
func (op Operation) Validate() error {
	if _, ok := ParseAction(string(op.Action)); !ok {
		return fmt.Errorf("operation %s: unknown action %q", op.ID, op.Action)
	}
	if _, ok := ParseEntityKind(string(op.Entity)); !ok {
		return fmt.Errorf("operation %s: unknown entity %q", op.ID, op.Entity)
	}
	populated := make([]EntityKind, 0, 1)
	if op.Item != nil {
		populated = append(populated, KindItem)
	}
	if op.Location != nil {
		populated = append(populated, KindLocation)
	}
	if op.Event != nil {
		populated = append(populated, KindEvent)
	}
	if op.Member != nil {
		populated = append(populated, KindMember)
	}
	if len(populated) > 1 {
		return fmt.Errorf("operation %s: multiple fields bundles populated (%v)", op.ID, populated)
	}
	if len(populated) == 1 && populated[0] != op.Entity {
		return fmt.Errorf("operation %s: %s bundle populated for %s operation", op.ID, populated[0], op.Entity)
	}
	return nil
}

// FieldsName returns the bundle's name/title field, used by the guard to
// check that creates carry an identifying field and that updates without a
// target still have a usable locator.
func (op Operation) FieldsName() string {
	switch op.Entity {
	case KindItem:
		if op.Item != nil && op.Item.Name != nil {
			return strings.TrimSpace(*op.Item.Name)
		}
	case KindLocation:
		if op.Location != nil && op.Location.Name != nil {
			return strings.TrimSpace(*op.Location.Name)
		}
	case KindEvent:
		if op.Event != nil && op.Event.Title != nil {
			return strings.TrimSpace(*op.Event.Title)
		}
	case KindMember:
		if op.Member != nil && op.Member.Name != nil {
			return strings.TrimSpace(*op.Member.Name)
		}
	}
	return ""
}

// Plan is the structured, not-yet-applied set of operations derived from one
// instruction. A non-empty Clarification means the plan is not ready to
// execute, regardless of Operations.
type Plan struct {
	Operations    []Operation `json:"operations"`
	Clarification string      `json:"clarification,omitempty"`
}

// Executable reports whether the caller may hand the plan to the executor.
func (p Plan) Executable() bool {
	return strings.TrimSpace(p.Clarification) == "" && len(p.Operations) > 0
}

// MergeClarification appends guard findings without overwriting what the
// planner (or the model) already asked.
func (p *Plan) MergeClarification(extra string) {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return
	}
	existing := strings.TrimSpace(p.Clarification)
	if existing == "" {
		p.Clarification = extra
		return
	}
	p.Clarification = existing + "\n" + extra
}
