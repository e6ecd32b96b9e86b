package verify

import (
	"fmt"
	"sort"
	"strings"

	"keeper/internal/domain"
	"keeper/internal/resolve"
)

// satisfied checks that the committed record carries every field the plan
// asked for, translating enum synonyms and relation names the same way
// the write path does.
func satisfied(op domain.Operation, record any, snap domain.Snapshot) (bool, string) {
	if record == nil {
		return false, "record missing after write"
	}
	var problems []string
	switch op.Entity {
	case domain.KindItem:
		problems = itemProblems(record.(domain.Item), op.Item, snap)
	case domain.KindLocation:
		problems = locationProblems(record.(domain.Location), op.Location, snap)
	case domain.KindEvent:
		problems = eventProblems(record.(domain.Event), op.Event, snap)
	case domain.KindMember:
		problems = memberProblems(record.(domain.Member), op.Member)
	}
	if len(problems) > 0 {
		return false, strings.Join(problems, "; ")
	}
	return true, "post-condition holds"
}

func itemProblems(item domain.Item, fields *domain.ItemFields, snap domain.Snapshot) []string {
	if fields == nil {
		return nil
	}
	var out []string
	if fields.Name != nil && item.Name != strings.TrimSpace(*fields.Name) {
		out = append(out, fmt.Sprintf("name is %q, wanted %q", item.Name, *fields.Name))
	}
	if fields.Status != nil {
		if want, err := domain.ParseStatus(*fields.Status); err == nil && want != "" && item.Status != want {
			out = append(out, fmt.Sprintf("status is %s, wanted %s", item.Status, want))
		}
	}
	if fields.Visibility != nil {
		if want, err := domain.ParseVisibility(*fields.Visibility); err == nil && want != "" && item.Visibility != want {
			out = append(out, fmt.Sprintf("visibility is %s, wanted %s", item.Visibility, want))
		}
	}
	if fields.Description != nil && item.Description != strings.TrimSpace(*fields.Description) {
		out = append(out, "description differs")
	}
	if fields.Features != nil {
		if want, err := domain.ParseFeatures(*fields.Features); err == nil && !sameFeatures(item.Features, want) {
			out = append(out, "features differ")
		}
	}
	if fields.Location != nil {
		if wantID, err := resolve.LocationRef(snap, *fields.Location); err == nil && item.LocationID != wantID {
			out = append(out, fmt.Sprintf("location is %q, wanted %q", item.LocationID, wantID))
		}
	}
	if fields.Responsible != nil {
		if wantIDs, err := resolve.MemberRefs(snap, *fields.Responsible); err == nil && len(wantIDs) > 0 && !sameSet(item.Responsible, wantIDs) {
			out = append(out, "responsible members differ")
		}
	}
	return out
}

func locationProblems(loc domain.Location, fields *domain.LocationFields, snap domain.Snapshot) []string {
	if fields == nil {
		return nil
	}
	var out []string
	if fields.Name != nil && loc.Name != strings.TrimSpace(*fields.Name) {
		out = append(out, fmt.Sprintf("name is %q, wanted %q", loc.Name, *fields.Name))
	}
	if fields.Visibility != nil {
		if want, err := domain.ParseVisibility(*fields.Visibility); err == nil && want != "" && loc.Visibility != want {
			out = append(out, fmt.Sprintf("visibility is %s, wanted %s", loc.Visibility, want))
		}
	}
	if fields.Description != nil && loc.Description != strings.TrimSpace(*fields.Description) {
		out = append(out, "description differs")
	}
	if fields.Parent != nil {
		if wantID, err := resolve.LocationRef(snap, *fields.Parent); err == nil && loc.ParentID != wantID {
			out = append(out, fmt.Sprintf("parent is %q, wanted %q", loc.ParentID, wantID))
		}
	}
	if fields.Responsible != nil {
		if wantIDs, err := resolve.MemberRefs(snap, *fields.Responsible); err == nil && len(wantIDs) > 0 && !sameSet(loc.Responsible, wantIDs) {
			out = append(out, "responsible members differ")
		}
	}
	return out
}

func eventProblems(event domain.Event, fields *domain.EventFields, snap domain.Snapshot) []string {
	if fields == nil {
		return nil
	}
	var out []string
	if fields.Title != nil && event.Title != strings.TrimSpace(*fields.Title) {
		out = append(out, fmt.Sprintf("title is %q, wanted %q", event.Title, *fields.Title))
	}
	if fields.Description != nil && event.Description != strings.TrimSpace(*fields.Description) {
		out = append(out, "description differs")
	}
	if fields.Owner != nil {
		if owner, err := resolve.MemberByRef(snap, *fields.Owner); err == nil && event.OwnerID != owner.ID {
			out = append(out, "owner differs")
		}
	}
	if fields.Location != nil {
		if wantID, err := resolve.LocationRef(snap, *fields.Location); err == nil && event.LocationID != wantID {
			out = append(out, "location differs")
		}
	}
	if fields.Participants != nil {
		if wantIDs, err := resolve.MemberRefs(snap, *fields.Participants); err == nil && !sameSet(event.Participants, wantIDs) {
			out = append(out, "participants differ")
		}
	}
	if fields.StartsAt != nil && event.StartsAt.IsZero() {
		out = append(out, "start time not recorded")
	}
	if fields.EndsAt != nil && event.EndsAt.IsZero() {
		out = append(out, "end time not recorded")
	}
	return out
}

func memberProblems(member domain.Member, fields *domain.MemberFields) []string {
	if fields == nil {
		return nil
	}
	var out []string
	if fields.Name != nil && member.Name != strings.TrimSpace(*fields.Name) {
		out = append(out, fmt.Sprintf("name is %q, wanted %q", member.Name, *fields.Name))
	}
	if fields.Username != nil && !strings.EqualFold(member.Username, strings.TrimSpace(*fields.Username)) {
		out = append(out, fmt.Sprintf("username is %q, wanted %q", member.Username, *fields.Username))
	}
	if fields.Email != nil && member.Email != strings.TrimSpace(*fields.Email) {
		out = append(out, "email differs")
	}
	return out
}

func sameFeatures(got []domain.Feature, want []domain.Feature) bool {
	a := make([]string, len(got))
	b := make([]string, len(want))
	for i, f := range got {
		a[i] = string(f)
	}
	for i, f := range want {
		b[i] = string(f)
	}
	return sameSet(a, b)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ca := append([]string(nil), a...)
	cb := append([]string(nil), b...)
	sort.Strings(ca)
	sort.Strings(cb)
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}
