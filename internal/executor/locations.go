package executor

import (
	"fmt"

	"keeper/internal/domain"
	"keeper/internal/resolve"
)

func (e *Executor) applyLocation(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	switch op.Action {
	case domain.ActionCreate:
		return e.createLocation(op.Location, snap, repo, actorID)
	case domain.ActionUpdate:
		return e.updateLocation(op, snap, repo, actorID)
	case domain.ActionDelete:
		if isBulkDelete(op) {
			return e.deleteAllLocations(snap, repo, actorID)
		}
		return e.deleteLocation(op, snap, repo, actorID)
	default:
		return "", fmt.Errorf("unsupported action %q for location", op.Action)
	}
}

func (e *Executor) createLocation(fields *domain.LocationFields, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	loc := domain.Location{
		ID:         newID("loc"),
		Visibility: domain.VisibilityPublic,
		CreatedAt:  e.now(),
	}
	loc.UpdatedAt = loc.CreatedAt
	if err := patchLocation(&loc, fields, snap); err != nil {
		return "", err
	}
	if loc.Name == "" {
		return "", fmt.Errorf("location needs a name")
	}
	if loc.Visibility == domain.VisibilityPrivate && len(loc.Responsible) == 0 {
		if actorID == "" {
			return "", fmt.Errorf("private location %q needs a responsible member", loc.Name)
		}
		loc.Responsible = []string{actorID}
	}
	if err := repo.InsertLocation(loc); err != nil {
		return "", err
	}
	return fmt.Sprintf("created location %q (%s)", loc.Name, loc.ID), nil
}

func (e *Executor) updateLocation(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	loc, err := resolve.Location(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if !canTouchPrivate(loc.Visibility, loc.Responsible, actorID) {
		return "", &PermissionDeniedError{Reason: fmt.Sprintf("location %q is private", loc.Name)}
	}
	if err := patchLocation(&loc, op.Location, snap); err != nil {
		return "", err
	}
	loc.UpdatedAt = e.now()
	if err := repo.UpdateLocation(loc); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated location %q (%s)", loc.Name, loc.ID), nil
}

func (e *Executor) deleteLocation(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	loc, err := resolve.Location(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if !canTouchPrivate(loc.Visibility, loc.Responsible, actorID) {
		return "", &PermissionDeniedError{Reason: fmt.Sprintf("location %q is private", loc.Name)}
	}
	if err := repo.DeleteLocation(loc.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted location %q (%s)", loc.Name, loc.ID), nil
}

func (e *Executor) deleteAllLocations(snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	deleted, skipped := 0, 0
	for _, loc := range snap.Locations {
		if !canTouchPrivate(loc.Visibility, loc.Responsible, actorID) {
			skipped++
			continue
		}
		if err := repo.DeleteLocation(loc.ID); err != nil {
			skipped++
			continue
		}
		deleted++
	}
	return fmt.Sprintf("deleted %d, skipped %d", deleted, skipped), nil
}

func patchLocation(loc *domain.Location, fields *domain.LocationFields, snap domain.Snapshot) error {
	if fields == nil {
		return nil
	}
	setString(&loc.Name, fields.Name)
	setString(&loc.Description, fields.Description)
	if fields.Visibility != nil {
		vis, err := domain.ParseVisibility(*fields.Visibility)
		if err != nil {
			return err
		}
		if vis != "" {
			loc.Visibility = vis
		}
	}
	if fields.Parent != nil {
		parentID, err := resolve.LocationRef(snap, *fields.Parent)
		if err != nil {
			return err
		}
		if err := domain.ValidateParent(snap.Locations, loc.ID, parentID); err != nil {
			return err
		}
		loc.ParentID = parentID
	}
	if fields.Responsible != nil {
		ids, err := resolve.MemberRefs(snap, *fields.Responsible)
		if err != nil {
			return err
		}
		loc.Responsible = ids
	}
	return nil
}
