// Package resolve locates domain entities from loose references: an id, an
// exact name or username, or a substring. One policy applies uniformly to
// all four entity kinds so executor and verifier can never disagree:
//
//	exactly one exact match         -> use it
//	more than one exact match       -> AmbiguousTargetError
//	no exact, exactly one substring -> use it
//	more than one substring match   -> AmbiguousTargetError
//	nothing at all                  -> NotFoundError
package resolve

import (
	"fmt"
	"strings"

	"keeper/internal/domain"
)

// AmbiguousTargetError reports a locator matching more than one entity.
type AmbiguousTargetError struct {
	Kind    domain.EntityKind
	Locator string
	Matches []string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("%s %q matches multiple records: %s", e.Kind, e.Locator, strings.Join(e.Matches, ", "))
}

// NotFoundError reports a locator matching nothing.
type NotFoundError struct {
	Kind    domain.EntityKind
	Locator string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Locator)
}

type candidate struct {
	id    string
	label string
	keys  []string
}

func pick(kind domain.EntityKind, locator string, cands []candidate) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", &NotFoundError{Kind: kind, Locator: locator}
	}
	needle := strings.ToLower(locator)

	var exact, fuzzy []candidate
	for _, cand := range cands {
		matchedExact := false
		matchedFuzzy := false
		for _, key := range cand.keys {
			lowered := strings.ToLower(strings.TrimSpace(key))
			if lowered == "" {
				continue
			}
			if lowered == needle {
				matchedExact = true
			} else if strings.Contains(lowered, needle) {
				matchedFuzzy = true
			}
		}
		if matchedExact {
			exact = append(exact, cand)
		} else if matchedFuzzy {
			fuzzy = append(fuzzy, cand)
		}
	}

	switch {
	case len(exact) == 1:
		return exact[0].id, nil
	case len(exact) > 1:
		return "", &AmbiguousTargetError{Kind: kind, Locator: locator, Matches: labels(exact)}
	case len(fuzzy) == 1:
		return fuzzy[0].id, nil
	case len(fuzzy) > 1:
		return "", &AmbiguousTargetError{Kind: kind, Locator: locator, Matches: labels(fuzzy)}
	}
	return "", &NotFoundError{Kind: kind, Locator: locator}
}

func labels(cands []candidate) []string {
	out := make([]string, len(cands))
	for i, cand := range cands {
		out[i] = cand.label
	}
	return out
}

func locatorFromTarget(target *domain.Target) string {
	if target == nil {
		return ""
	}
	if strings.TrimSpace(target.Name) != "" {
		return target.Name
	}
	return target.Username
}

// Item resolves an item from a target locator. ID wins when present.
func Item(snap domain.Snapshot, target *domain.Target) (domain.Item, error) {
	if target != nil && strings.TrimSpace(target.ID) != "" {
		for _, item := range snap.Items {
			if item.ID == target.ID {
				return item, nil
			}
		}
		return domain.Item{}, &NotFoundError{Kind: domain.KindItem, Locator: target.ID}
	}
	return ItemByName(snap, locatorFromTarget(target))
}

// ItemByName resolves an item by exact-then-fuzzy name match.
func ItemByName(snap domain.Snapshot, name string) (domain.Item, error) {
	cands := make([]candidate, len(snap.Items))
	for i, item := range snap.Items {
		cands[i] = candidate{id: item.ID, label: item.Name, keys: []string{item.Name}}
	}
	id, err := pick(domain.KindItem, name, cands)
	if err != nil {
		return domain.Item{}, err
	}
	for _, item := range snap.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.Item{}, &NotFoundError{Kind: domain.KindItem, Locator: name}
}

// Location resolves a location from a target locator.
func Location(snap domain.Snapshot, target *domain.Target) (domain.Location, error) {
	if target != nil && strings.TrimSpace(target.ID) != "" {
		for _, loc := range snap.Locations {
			if loc.ID == target.ID {
				return loc, nil
			}
		}
		return domain.Location{}, &NotFoundError{Kind: domain.KindLocation, Locator: target.ID}
	}
	return LocationByName(snap, locatorFromTarget(target))
}

// LocationByName resolves a location by exact-then-fuzzy name match.
func LocationByName(snap domain.Snapshot, name string) (domain.Location, error) {
	cands := make([]candidate, len(snap.Locations))
	for i, loc := range snap.Locations {
		cands[i] = candidate{id: loc.ID, label: loc.Name, keys: []string{loc.Name}}
	}
	id, err := pick(domain.KindLocation, name, cands)
	if err != nil {
		return domain.Location{}, err
	}
	for _, loc := range snap.Locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return domain.Location{}, &NotFoundError{Kind: domain.KindLocation, Locator: name}
}

// Event resolves an event from a target locator, matching against titles.
func Event(snap domain.Snapshot, target *domain.Target) (domain.Event, error) {
	if target != nil && strings.TrimSpace(target.ID) != "" {
		for _, ev := range snap.Events {
			if ev.ID == target.ID {
				return ev, nil
			}
		}
		return domain.Event{}, &NotFoundError{Kind: domain.KindEvent, Locator: target.ID}
	}
	return EventByTitle(snap, locatorFromTarget(target))
}

// EventByTitle resolves an event by exact-then-fuzzy title match.
func EventByTitle(snap domain.Snapshot, title string) (domain.Event, error) {
	cands := make([]candidate, len(snap.Events))
	for i, ev := range snap.Events {
		cands[i] = candidate{id: ev.ID, label: ev.Title, keys: []string{ev.Title}}
	}
	id, err := pick(domain.KindEvent, title, cands)
	if err != nil {
		return domain.Event{}, err
	}
	for _, ev := range snap.Events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return domain.Event{}, &NotFoundError{Kind: domain.KindEvent, Locator: title}
}

// Member resolves a member from a target locator. Username and name are
// both exact-match keys.
func Member(snap domain.Snapshot, target *domain.Target) (domain.Member, error) {
	if target != nil && strings.TrimSpace(target.ID) != "" {
		for _, member := range snap.Members {
			if member.ID == target.ID {
				return member, nil
			}
		}
		return domain.Member{}, &NotFoundError{Kind: domain.KindMember, Locator: target.ID}
	}
	locator := locatorFromTarget(target)
	return MemberByRef(snap, locator)
}

// MemberByRef resolves a member from a loose reference: id, username, or
// name. Used for relation fields where the model emits whatever it saw.
func MemberByRef(snap domain.Snapshot, ref string) (domain.Member, error) {
	trimmed := strings.TrimSpace(ref)
	for _, member := range snap.Members {
		if member.ID == trimmed {
			return member, nil
		}
	}
	cands := make([]candidate, len(snap.Members))
	for i, member := range snap.Members {
		cands[i] = candidate{id: member.ID, label: member.Name, keys: []string{member.Name, member.Username}}
	}
	id, err := pick(domain.KindMember, ref, cands)
	if err != nil {
		return domain.Member{}, err
	}
	for _, member := range snap.Members {
		if member.ID == id {
			return member, nil
		}
	}
	return domain.Member{}, &NotFoundError{Kind: domain.KindMember, Locator: ref}
}

// MemberRefs resolves a list of loose member references into a unique id
// set, failing on the first unresolvable entry.
func MemberRefs(snap domain.Snapshot, refs []string) ([]string, error) {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		member, err := MemberByRef(snap, ref)
		if err != nil {
			return nil, err
		}
		if seen[member.ID] {
			continue
		}
		seen[member.ID] = true
		out = append(out, member.ID)
	}
	return out, nil
}

// LocationRef resolves a loose location reference (id or name) to its id.
// An empty ref clears the relation.
func LocationRef(snap domain.Snapshot, ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", nil
	}
	for _, loc := range snap.Locations {
		if loc.ID == trimmed {
			return loc.ID, nil
		}
	}
	loc, err := LocationByName(snap, trimmed)
	if err != nil {
		return "", err
	}
	return loc.ID, nil
}
