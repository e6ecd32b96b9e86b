package resolve

import (
	"errors"
	"testing"

	"keeper/internal/domain"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Items: []domain.Item{
			{ID: "i1", Name: "示波器A"},
			{ID: "i2", Name: "示波器B"},
			{ID: "i3", Name: "电钻"},
		},
		Locations: []domain.Location{
			{ID: "l1", Name: "工具间"},
			{ID: "l2", Name: "工具间二层"},
		},
		Events: []domain.Event{
			{ID: "e1", Title: "周末大扫除"},
		},
		Members: []domain.Member{
			{ID: "m1", Name: "小王", Username: "wangx"},
			{ID: "m2", Name: "小李", Username: "lil"},
			{ID: "m3", Name: "王大明", Username: "damont"},
		},
	}
}

func TestItemSubstringAmbiguity(t *testing.T) {
	snap := testSnapshot()
	_, err := ItemByName(snap, "示波器")
	var ambiguous *AmbiguousTargetError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousTargetError, got %v", err)
	}
	if len(ambiguous.Matches) != 2 {
		t.Fatalf("expected both oscilloscopes listed, got %v", ambiguous.Matches)
	}
}

func TestItemExactWinsOverSubstring(t *testing.T) {
	snap := testSnapshot()
	item, err := ItemByName(snap, "示波器A")
	if err != nil {
		t.Fatalf("exact name should resolve: %v", err)
	}
	if item.ID != "i1" {
		t.Fatalf("resolved wrong item: %s", item.ID)
	}
}

func TestItemByIDBypassesNames(t *testing.T) {
	snap := testSnapshot()
	item, err := Item(snap, &domain.Target{ID: "i2", Name: "电钻"})
	if err != nil {
		t.Fatalf("id lookup failed: %v", err)
	}
	if item.ID != "i2" {
		t.Fatalf("id must win over name, got %s", item.ID)
	}
}

func TestItemNotFound(t *testing.T) {
	snap := testSnapshot()
	_, err := ItemByName(snap, "显微镜")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMemberByUsername(t *testing.T) {
	snap := testSnapshot()
	member, err := MemberByRef(snap, "wangx")
	if err != nil {
		t.Fatalf("username lookup failed: %v", err)
	}
	if member.ID != "m1" {
		t.Fatalf("resolved wrong member: %s", member.ID)
	}
}

func TestMemberFuzzyAmbiguity(t *testing.T) {
	snap := testSnapshot()
	// "王" is a substring of both 小王 and 王大明.
	_, err := MemberByRef(snap, "王")
	var ambiguous *AmbiguousTargetError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected ambiguity, got %v", err)
	}
}

func TestMemberRefsUniqueSet(t *testing.T) {
	snap := testSnapshot()
	ids, err := MemberRefs(snap, []string{"wangx", "小王", "lil"})
	if err != nil {
		t.Fatalf("MemberRefs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "m1" || ids[1] != "m2" {
		t.Fatalf("unexpected id set: %v", ids)
	}
}

func TestLocationExactBeatsPrefix(t *testing.T) {
	snap := testSnapshot()
	loc, err := LocationByName(snap, "工具间")
	if err != nil {
		t.Fatalf("exact location should win over its substring sibling: %v", err)
	}
	if loc.ID != "l1" {
		t.Fatalf("resolved wrong location: %s", loc.ID)
	}
}

func TestLocationRefEmptyClears(t *testing.T) {
	snap := testSnapshot()
	id, err := LocationRef(snap, "")
	if err != nil || id != "" {
		t.Fatalf("empty ref should clear, got %q / %v", id, err)
	}
}
