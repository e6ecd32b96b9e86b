package store

import (
	"time"

	"keeper/internal/domain"
)

// SeedIfEmpty populates a fresh database with a small starter household so
// the REPL has something to talk about on first run. Existing data is
// never touched.
func (s *Store) SeedIfEmpty() error {
	snap := s.Snapshot()
	if len(snap.Items)+len(snap.Locations)+len(snap.Events)+len(snap.Members) > 0 {
		return nil
	}

	now := time.Now()
	members := []domain.Member{
		{ID: "member-seed-1", Name: "张三", Username: "zhangsan", Email: "zhangsan@example.com", CreatedAt: now, UpdatedAt: now},
		{ID: "member-seed-2", Name: "李四", Username: "lisi", CreatedAt: now, UpdatedAt: now},
	}
	locations := []domain.Location{
		{ID: "loc-seed-1", Name: "社区共享空间", Visibility: domain.VisibilityPublic, CreatedAt: now, UpdatedAt: now},
		{ID: "loc-seed-2", Name: "工具间", ParentID: "loc-seed-1", Visibility: domain.VisibilityPublic, CreatedAt: now, UpdatedAt: now},
	}
	items := []domain.Item{
		{
			ID: "item-seed-1", Name: "示波器A", Status: domain.StatusAvailable,
			Visibility: domain.VisibilityPublic, LocationID: "loc-seed-2",
			Features:  []domain.Feature{domain.FeatureElectric, domain.FeatureFragile},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "item-seed-2", Name: "示波器B", Status: domain.StatusMaintenance,
			Visibility: domain.VisibilityPublic, LocationID: "loc-seed-2",
			Features:  []domain.Feature{domain.FeatureElectric},
			CreatedAt: now, UpdatedAt: now,
		},
	}

	for _, m := range members {
		if err := s.InsertMember(m); err != nil {
			return err
		}
	}
	for _, l := range locations {
		if err := s.InsertLocation(l); err != nil {
			return err
		}
	}
	for _, i := range items {
		if err := s.InsertItem(i); err != nil {
			return err
		}
	}
	return s.Commit()
}
