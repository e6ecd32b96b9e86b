package executor

import (
	"fmt"
	"strings"
	"time"

	"keeper/internal/domain"
	"keeper/internal/resolve"
)

// eventTimeLayouts are the formats accepted for event boundaries. The
// planner is told to emit RFC 3339, the rest cover what models actually
// produce.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseEventTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}

func (e *Executor) applyEvent(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	switch op.Action {
	case domain.ActionCreate:
		return e.createEvent(op.Event, snap, repo, actorID)
	case domain.ActionUpdate:
		return e.updateEvent(op, snap, repo)
	case domain.ActionDelete:
		if isBulkDelete(op) {
			return e.deleteAllEvents(snap, repo, actorID)
		}
		return e.deleteEvent(op, snap, repo, actorID)
	default:
		return "", fmt.Errorf("unsupported action %q for event", op.Action)
	}
}

func (e *Executor) createEvent(fields *domain.EventFields, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	event := domain.Event{
		ID:        newID("event"),
		OwnerID:   actorID,
		CreatedAt: e.now(),
	}
	event.UpdatedAt = event.CreatedAt
	if err := patchEvent(&event, fields, snap); err != nil {
		return "", err
	}
	if event.Title == "" {
		return "", fmt.Errorf("event needs a title")
	}
	if !event.EndsAt.IsZero() && !event.StartsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		return "", fmt.Errorf("event %q ends before it starts", event.Title)
	}
	if err := repo.InsertEvent(event); err != nil {
		return "", err
	}
	return fmt.Sprintf("created event %q (%s)", event.Title, event.ID), nil
}

func (e *Executor) updateEvent(op domain.Operation, snap domain.Snapshot, repo domain.Mutator) (string, error) {
	event, err := resolve.Event(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if err := patchEvent(&event, op.Event, snap); err != nil {
		return "", err
	}
	if !event.EndsAt.IsZero() && !event.StartsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		return "", fmt.Errorf("event %q ends before it starts", event.Title)
	}
	event.UpdatedAt = e.now()
	if err := repo.UpdateEvent(event); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated event %q (%s)", event.Title, event.ID), nil
}

func (e *Executor) deleteEvent(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	event, err := resolve.Event(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if event.OwnerID != "" && event.OwnerID != actorID {
		return "", &PermissionDeniedError{Reason: fmt.Sprintf("only the owner may delete event %q", event.Title)}
	}
	if err := repo.DeleteEvent(event.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted event %q (%s)", event.Title, event.ID), nil
}

func (e *Executor) deleteAllEvents(snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	deleted, skipped := 0, 0
	for _, event := range snap.Events {
		if event.OwnerID != "" && event.OwnerID != actorID {
			skipped++
			continue
		}
		if err := repo.DeleteEvent(event.ID); err != nil {
			skipped++
			continue
		}
		deleted++
	}
	return fmt.Sprintf("deleted %d, skipped %d", deleted, skipped), nil
}

func patchEvent(event *domain.Event, fields *domain.EventFields, snap domain.Snapshot) error {
	if fields == nil {
		return nil
	}
	setString(&event.Title, fields.Title)
	setString(&event.Description, fields.Description)
	if fields.StartsAt != nil {
		t, err := parseEventTime(*fields.StartsAt)
		if err != nil {
			return err
		}
		event.StartsAt = t
	}
	if fields.EndsAt != nil {
		t, err := parseEventTime(*fields.EndsAt)
		if err != nil {
			return err
		}
		event.EndsAt = t
	}
	if fields.Owner != nil {
		owner, err := resolve.MemberByRef(snap, *fields.Owner)
		if err != nil {
			return err
		}
		event.OwnerID = owner.ID
	}
	if fields.Location != nil {
		id, err := resolve.LocationRef(snap, *fields.Location)
		if err != nil {
			return err
		}
		event.LocationID = id
	}
	if fields.Participants != nil {
		ids, err := resolve.MemberRefs(snap, *fields.Participants)
		if err != nil {
			return err
		}
		event.Participants = ids
	}
	return nil
}
