// Package verify re-checks the repository after execution: for every
// operation that claimed success it confirms the post-condition actually
// holds in the committed data, using the same resolution and enum rules
// the executor applied.
package verify

import (
	"fmt"
	"strings"

	"keeper/internal/domain"
	"keeper/internal/resolve"
)

// Run compares the snapshots taken before and after execution. Operations
// that failed during execution are reported as unverified failures so the
// caller sees one verdict per planned operation.
func Run(plan domain.Plan, execution domain.ExecutionReport, before, after domain.Snapshot) domain.VerificationReport {
	executed := map[string]bool{}
	for _, entry := range execution.Entries {
		executed[entry.OperationID] = entry.Success
	}

	report := domain.VerificationReport{}
	for _, op := range plan.Operations {
		entry := domain.VerificationEntry{OperationID: op.ID}
		if !executed[op.ID] {
			entry.Message = "not verified: execution failed"
		} else {
			entry.Success, entry.Message = check(op, before, after)
		}
		if entry.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
		}
		report.Entries = append(report.Entries, entry)
	}
	report.Summary = fmt.Sprintf("%d verified, %d failed", report.SuccessCount, report.FailureCount)
	return report
}

func check(op domain.Operation, before, after domain.Snapshot) (bool, string) {
	switch op.Action {
	case domain.ActionCreate:
		return checkCreate(op, before, after)
	case domain.ActionUpdate:
		return checkUpdate(op, before, after)
	case domain.ActionDelete:
		return checkDelete(op, before, after)
	}
	return false, fmt.Sprintf("unknown action %q", op.Action)
}

// checkCreate demands that the number of records bearing the exact new
// name strictly increased, then inspects the newest match.
func checkCreate(op domain.Operation, before, after domain.Snapshot) (bool, string) {
	name := op.FieldsName()
	if name == "" {
		return false, "create without a name cannot be verified"
	}
	if countByName(after, op.Entity, name) <= countByName(before, op.Entity, name) {
		return false, fmt.Sprintf("%s %q: 数量未增加", op.Entity, name)
	}
	return satisfied(op, newestByName(after, op.Entity, name), after)
}

func checkUpdate(op domain.Operation, before, after domain.Snapshot) (bool, string) {
	locator := op.Target
	if locator.IsZero() {
		locator = &domain.Target{Name: op.FieldsName()}
	}
	// A rename changes the name the locator carries but not the record it
	// meant, so the identity the locator resolved to before execution wins.
	if prior, err := lookup(op.Entity, before, locator); err == nil {
		found, ok := byID(after, op.Entity, idOf(prior))
		if !ok {
			return false, fmt.Sprintf("%s disappeared during update", op.Entity)
		}
		return satisfied(op, found, after)
	}
	found, err := lookup(op.Entity, after, locator)
	if err != nil {
		return false, err.Error()
	}
	return satisfied(op, found, after)
}

func checkDelete(op domain.Operation, before, after domain.Snapshot) (bool, string) {
	if bulk(op) {
		if total(after, op.Entity) > total(before, op.Entity) {
			return false, fmt.Sprintf("%s count grew during bulk delete", op.Entity)
		}
		return true, "bulk delete verified by count"
	}
	locator := op.Target
	if locator.IsZero() {
		locator = &domain.Target{Name: op.FieldsName()}
	}
	// Check the record that actually existed before execution; a fuzzy
	// neighbor still matching the locator afterwards is not the deleted one.
	if prior, err := lookup(op.Entity, before, locator); err == nil {
		if _, ok := byID(after, op.Entity, idOf(prior)); ok {
			return false, fmt.Sprintf("%s still resolves after delete", op.Entity)
		}
		return true, "record no longer resolves"
	}
	if _, err := lookup(op.Entity, after, locator); err == nil {
		return false, fmt.Sprintf("%s still resolves after delete", op.Entity)
	}
	return true, "record no longer resolves"
}

// bulk mirrors the executor's sentinel test without importing it.
var bulkSentinels = map[string]bool{
	"__all__": true, "all": true, "所有": true, "全部": true, "清空": true, "*": true,
}

func bulk(op domain.Operation) bool {
	check := func(raw string) bool {
		return bulkSentinels[strings.ToLower(strings.TrimSpace(raw))]
	}
	if op.Target != nil && check(op.Target.Name) {
		return true
	}
	return check(op.FieldsName())
}

func lookup(kind domain.EntityKind, snap domain.Snapshot, target *domain.Target) (any, error) {
	switch kind {
	case domain.KindItem:
		return resolve.Item(snap, target)
	case domain.KindLocation:
		return resolve.Location(snap, target)
	case domain.KindEvent:
		return resolve.Event(snap, target)
	case domain.KindMember:
		return resolve.Member(snap, target)
	}
	return nil, fmt.Errorf("unknown entity %q", kind)
}

func idOf(record any) string {
	switch v := record.(type) {
	case domain.Item:
		return v.ID
	case domain.Location:
		return v.ID
	case domain.Event:
		return v.ID
	case domain.Member:
		return v.ID
	}
	return ""
}

func byID(snap domain.Snapshot, kind domain.EntityKind, id string) (any, bool) {
	if id == "" {
		return nil, false
	}
	switch kind {
	case domain.KindItem:
		for _, v := range snap.Items {
			if v.ID == id {
				return v, true
			}
		}
	case domain.KindLocation:
		for _, v := range snap.Locations {
			if v.ID == id {
				return v, true
			}
		}
	case domain.KindEvent:
		for _, v := range snap.Events {
			if v.ID == id {
				return v, true
			}
		}
	case domain.KindMember:
		for _, v := range snap.Members {
			if v.ID == id {
				return v, true
			}
		}
	}
	return nil, false
}

func countByName(snap domain.Snapshot, kind domain.EntityKind, name string) int {
	n := 0
	forEachName(snap, kind, func(got string, _ int) {
		if got == name {
			n++
		}
	})
	return n
}

func total(snap domain.Snapshot, kind domain.EntityKind) int {
	switch kind {
	case domain.KindItem:
		return len(snap.Items)
	case domain.KindLocation:
		return len(snap.Locations)
	case domain.KindEvent:
		return len(snap.Events)
	case domain.KindMember:
		return len(snap.Members)
	}
	return 0
}

func forEachName(snap domain.Snapshot, kind domain.EntityKind, fn func(name string, index int)) {
	switch kind {
	case domain.KindItem:
		for i, v := range snap.Items {
			fn(v.Name, i)
		}
	case domain.KindLocation:
		for i, v := range snap.Locations {
			fn(v.Name, i)
		}
	case domain.KindEvent:
		for i, v := range snap.Events {
			fn(v.Title, i)
		}
	case domain.KindMember:
		for i, v := range snap.Members {
			fn(v.Name, i)
		}
	}
}

// newestByName returns the matching record with the latest UpdatedAt.
// Fresh records carry UpdatedAt equal to CreatedAt, so a just-created
// match ranks newest.
func newestByName(snap domain.Snapshot, kind domain.EntityKind, name string) any {
	var found any
	switch kind {
	case domain.KindItem:
		for _, v := range snap.Items {
			if v.Name == name && (found == nil || !v.UpdatedAt.Before(found.(domain.Item).UpdatedAt)) {
				found = v
			}
		}
	case domain.KindLocation:
		for _, v := range snap.Locations {
			if v.Name == name && (found == nil || !v.UpdatedAt.Before(found.(domain.Location).UpdatedAt)) {
				found = v
			}
		}
	case domain.KindEvent:
		for _, v := range snap.Events {
			if v.Title == name && (found == nil || !v.UpdatedAt.Before(found.(domain.Event).UpdatedAt)) {
				found = v
			}
		}
	case domain.KindMember:
		for _, v := range snap.Members {
			if v.Name == name && (found == nil || !v.UpdatedAt.Before(found.(domain.Member).UpdatedAt)) {
				found = v
			}
		}
	}
	return found
}
