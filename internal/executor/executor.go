// Package executor applies a validated plan to the repository. Each
// operation is applied independently so one failure never aborts the batch;
// all staged writes are committed in one flush at the end.
package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"keeper/internal/domain"
	"keeper/internal/logging"
)

// PermissionDeniedError reports a write blocked by the permission rules.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string { return "permission denied: " + e.Reason }

// AttachmentRemover deletes a stored attachment file. Cleanup runs only
// after a successful commit, never before.
type AttachmentRemover interface {
	Remove(path string) error
}

// Executor applies plans for one acting member.
type Executor struct {
	attachments AttachmentRemover
	now         func() time.Time
}

// New builds an executor. attachments may be nil when the deployment has
// no file storage.
func New(attachments AttachmentRemover) *Executor {
	return &Executor{attachments: attachments, now: time.Now}
}

// Apply runs every operation of an executable plan against the mutator,
// then commits the staged batch. The returned report has one entry per
// operation; a commit failure is returned as the error with the report
// describing what had been staged.
func (e *Executor) Apply(plan domain.Plan, repo domain.Mutator, actorID string) (domain.ExecutionReport, error) {
	report := domain.ExecutionReport{}
	if !plan.Executable() {
		return report, fmt.Errorf("plan is not executable: clarification pending")
	}

	var orphanedAttachments []string
	for _, op := range plan.Operations {
		entry := e.applyOne(op, repo, actorID, &orphanedAttachments)
		report.Entries = append(report.Entries, entry)
		if entry.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
			logging.DevLog("operation %s failed: %s", op.ID, entry.Message)
		}
	}

	report.Summary = fmt.Sprintf("%d succeeded, %d failed", report.SuccessCount, report.FailureCount)

	if report.SuccessCount > 0 {
		if err := repo.Commit(); err != nil {
			report.Summary = "commit failed: " + err.Error()
			return report, fmt.Errorf("commit: %w", err)
		}
		// File side effects only after the data is durable.
		for _, path := range orphanedAttachments {
			if e.attachments == nil {
				break
			}
			if err := e.attachments.Remove(path); err != nil {
				logging.ErrorLog("attachment cleanup %s: %v", path, err)
			}
		}
	}
	return report, nil
}

func (e *Executor) applyOne(op domain.Operation, repo domain.Mutator, actorID string, orphaned *[]string) domain.ExecutionEntry {
	entry := domain.ExecutionEntry{OperationID: op.ID}
	if err := op.Validate(); err != nil {
		entry.Message = err.Error()
		return entry
	}

	// Staged view: later operations see earlier staged writes.
	snap := repo.Snapshot()

	var message string
	var err error
	switch op.Entity {
	case domain.KindItem:
		message, err = e.applyItem(op, snap, repo, actorID, orphaned)
	case domain.KindLocation:
		message, err = e.applyLocation(op, snap, repo, actorID)
	case domain.KindEvent:
		message, err = e.applyEvent(op, snap, repo, actorID)
	case domain.KindMember:
		message, err = e.applyMember(op, snap, repo, actorID)
	default:
		err = fmt.Errorf("unknown entity %q", op.Entity)
	}
	if err != nil {
		entry.Message = err.Error()
		return entry
	}
	entry.Success = true
	entry.Message = message
	return entry
}

// bulkDeleteSentinels switch a delete into batch mode over every permitted
// record of the entity kind.
var bulkDeleteSentinels = map[string]bool{
	"__all__": true,
	"all":     true,
	"所有":      true,
	"全部":      true,
	"清空":      true,
	"*":       true,
}

func isBulkDelete(op domain.Operation) bool {
	check := func(raw string) bool {
		return bulkDeleteSentinels[strings.ToLower(strings.TrimSpace(raw))]
	}
	if op.Target != nil && check(op.Target.Name) {
		return true
	}
	return check(op.FieldsName())
}

func locatorFor(op domain.Operation) *domain.Target {
	if !op.Target.IsZero() {
		return op.Target
	}
	if name := op.FieldsName(); name != "" {
		return &domain.Target{Name: name}
	}
	return nil
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// canTouchPrivate implements the shared item/location rule: private records
// are writable only by one of their responsible members. A private record
// with no responsible members is treated as unguarded.
func canTouchPrivate(visibility domain.Visibility, responsible []string, actorID string) bool {
	if visibility != domain.VisibilityPrivate || len(responsible) == 0 {
		return true
	}
	for _, id := range responsible {
		if id == actorID {
			return true
		}
	}
	return false
}
