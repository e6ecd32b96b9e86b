package executor

import (
	"fmt"
	"strings"

	"keeper/internal/domain"
	"keeper/internal/resolve"
)

func (e *Executor) applyMember(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	switch op.Action {
	case domain.ActionCreate:
		return e.createMember(op.Member, snap, repo)
	case domain.ActionUpdate:
		return e.updateMember(op, snap, repo)
	case domain.ActionDelete:
		if isBulkDelete(op) {
			return e.deleteAllMembers(snap, repo, actorID)
		}
		return e.deleteMember(op, snap, repo, actorID)
	default:
		return "", fmt.Errorf("unsupported action %q for member", op.Action)
	}
}

func (e *Executor) createMember(fields *domain.MemberFields, snap domain.Snapshot, repo domain.Mutator) (string, error) {
	member := domain.Member{
		ID:        newID("member"),
		CreatedAt: e.now(),
	}
	member.UpdatedAt = member.CreatedAt
	if err := patchMember(&member, fields); err != nil {
		return "", err
	}
	if member.Name == "" {
		return "", fmt.Errorf("member needs a name")
	}
	if member.Username != "" {
		if err := ensureUsernameFree(snap, member.Username, member.ID); err != nil {
			return "", err
		}
	}
	if err := repo.InsertMember(member); err != nil {
		return "", err
	}
	return fmt.Sprintf("created member %q (%s)", member.Name, member.ID), nil
}

func (e *Executor) updateMember(op domain.Operation, snap domain.Snapshot, repo domain.Mutator) (string, error) {
	member, err := resolve.Member(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if err := patchMember(&member, op.Member); err != nil {
		return "", err
	}
	if member.Username != "" {
		if err := ensureUsernameFree(snap, member.Username, member.ID); err != nil {
			return "", err
		}
	}
	member.UpdatedAt = e.now()
	if err := repo.UpdateMember(member); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated member %q (%s)", member.Name, member.ID), nil
}

func (e *Executor) deleteMember(op domain.Operation, snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	member, err := resolve.Member(snap, locatorFor(op))
	if err != nil {
		return "", err
	}
	if member.ID == actorID {
		return "", &PermissionDeniedError{Reason: "cannot delete the acting member"}
	}
	if err := repo.DeleteMember(member.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted member %q (%s)", member.Name, member.ID), nil
}

func (e *Executor) deleteAllMembers(snap domain.Snapshot, repo domain.Mutator, actorID string) (string, error) {
	deleted, skipped := 0, 0
	for _, member := range snap.Members {
		if member.ID == actorID {
			skipped++
			continue
		}
		if err := repo.DeleteMember(member.ID); err != nil {
			skipped++
			continue
		}
		deleted++
	}
	return fmt.Sprintf("deleted %d, skipped %d", deleted, skipped), nil
}

func ensureUsernameFree(snap domain.Snapshot, username, selfID string) error {
	for _, m := range snap.Members {
		if m.ID != selfID && strings.EqualFold(m.Username, username) {
			return fmt.Errorf("username %q is already taken by %s", username, m.Name)
		}
	}
	return nil
}

func patchMember(member *domain.Member, fields *domain.MemberFields) error {
	if fields == nil {
		return nil
	}
	setString(&member.Name, fields.Name)
	setString(&member.Email, fields.Email)
	if fields.Username != nil {
		member.Username = strings.ToLower(strings.TrimSpace(*fields.Username))
	}
	return nil
}
