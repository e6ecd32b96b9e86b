package executor

import (
	"fmt"

	"keeper/internal/domain"
	"keeper/internal/resolve"
)

func (e *Executor) applyItem(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string, orphaned *[]string) (string, error) {
	switch op.Action {
	case domain.ActionCreate:
		return e.createItem(op.Item, snap, repo, actorID)
	case domain.ActionUpdate:
		return e.updateItem(op, snap, repo, actorID)
	case domain.ActionDelete:
		if isBulkDelete(op) {
			return e.deleteAllItems(snap, repo, actorID, orphaned)
		}
		return e.deleteItem(op, snap, repo, actorID, orphaned)
	default:
		return "", fmt.Errorf("unsupported action %q for item", op.Action)
	}
}

func (e *Executor) createItem(fields *domain.ItemFields, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	item := domain.Item{
		ID:         newID("item"),
		Status:     domain.StatusAvailable,
		Visibility: domain.VisibilityPublic,
		CreatedAt:  e.now(),
	}
	item.UpdatedAt = item.CreatedAt
	if err := patchItem(&item, fields, snap); err != nil {
		return "", err
	}
	if item.Name == "" {
		return "", fmt.Errorf("item needs a name")
	}
	if item.Visibility == domain.VisibilityPrivate && len(item.Responsible) == 0 {
		if actorID == "" {
			return "", fmt.Errorf("private item %q needs a responsible member", item.Name)
		}
		item.Responsible = []string{actorID}
	}
	if err := repo.InsertItem(item); err != nil {
		return "", err
	}
	return fmt.Sprintf("created item %q (%s)", item.Name, item.ID), nil
}

func (e *Executor) updateItem(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	item, err := resolve.Item(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if !canTouchPrivate(item.Visibility, item.Responsible, actorID) {
		return "", &PermissionDeniedError{Reason: fmt.Sprintf("item %q is private", item.Name)}
	}
	if err := patchItem(&item, op.Item, snap); err != nil {
		return "", err
	}
	if item.Visibility == domain.VisibilityPrivate && len(item.Responsible) == 0 {
		if actorID == "" {
			return "", fmt.Errorf("private item %q needs a responsible member", item.Name)
		}
		item.Responsible = []string{actorID}
	}
	item.UpdatedAt = e.now()
	if err := repo.UpdateItem(item); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated item %q (%s)", item.Name, item.ID), nil
}

func (e *Executor) deleteItem(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string, orphaned *[]string) (string, error) {
	item, err := resolve.Item(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if !canTouchPrivate(item.Visibility, item.Responsible, actorID) {
		return "", &PermissionDeniedError{Reason: fmt.Sprintf("item %q is private", item.Name)}
	}
	if err := repo.DeleteItem(item.ID); err != nil {
		return "", err
	}
	if item.Attachment != "" {
		*orphaned = append(*orphaned, item.Attachment)
	}
	return fmt.Sprintf("deleted item %q (%s)", item.Name, item.ID), nil
}

func (e *Executor) deleteAllItems(snap domain.Snapshot, repo domain.Mutator, actorID string, orphaned *[]string) (string, error) {
	deleted, skipped := 0, 0
	for _, item := range snap.Items {
		if !canTouchPrivate(item.Visibility, item.Responsible, actorID) {
			skipped++
			continue
		}
		if err := repo.DeleteItem(item.ID); err != nil {
			skipped++
			continue
		}
		if item.Attachment != "" {
			*orphaned = append(*orphaned, item.Attachment)
		}
		deleted++
	}
	return fmt.Sprintf("deleted %d, skipped %d", deleted, skipped), nil
}

// patchItem copies only the fields the plan mentions. A nil pointer means
// "leave as is"; relation lists replace the previous set entirely.
func patchItem(item *domain.Item, fields *domain.ItemFields, snap domain.Snapshot) error {
	if fields == nil {
		return nil
	}
	setString(&item.Name, fields.Name)
	setString(&item.Description, fields.Description)
	if fields.Status != nil {
		status, err := domain.ParseStatus(*fields.Status)
		if err != nil {
			return err
		}
		if status != "" {
			item.Status = status
		}
	}
	if fields.Visibility != nil {
		vis, err := domain.ParseVisibility(*fields.Visibility)
		if err != nil {
			return err
		}
		if vis != "" {
			item.Visibility = vis
		}
	}
	if fields.Features != nil {
		features, err := domain.ParseFeatures(*fields.Features)
		if err != nil {
			return err
		}
		item.Features = features
	}
	if fields.Location != nil {
		id, err := resolve.LocationRef(snap, *fields.Location)
		if err != nil {
			return err
		}
		item.LocationID = id
	}
	if fields.Responsible != nil {
		ids, err := resolve.MemberRefs(snap, *fields.Responsible)
		if err != nil {
			return err
		}
		item.Responsible = ids
	}
	return nil
}
