package store

import "keeper/internal/domain"

const itemUpsert = `
INSERT INTO items (id, name, description, status, features, visibility, location_id, responsible, attachment, created_at, updated_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	description=excluded.description,
	status=excluded.status,
	features=excluded.features,
	visibility=excluded.visibility,
	location_id=excluded.location_id,
	responsible=excluded.responsible,
	attachment=excluded.attachment,
	updated_at=excluded.updated_at
`

func itemWrite(v domain.Item) stagedWrite {
	return stagedWrite{query: itemUpsert, args: []any{
		v.ID, v.Name, v.Description, string(v.Status), encodeList(v.Features),
		string(v.Visibility), v.LocationID, encodeList(v.Responsible),
		v.Attachment, v.CreatedAt, v.UpdatedAt,
	}}
}

func (s *Store) InsertItem(v domain.Item) error {
	s.stage(itemWrite(v), func(snap *domain.Snapshot) {
		snap.Items = append(snap.Items, v)
	})
	return nil
}

func (s *Store) UpdateItem(v domain.Item) error {
	s.stage(itemWrite(v), func(snap *domain.Snapshot) {
		for i := range snap.Items {
			if snap.Items[i].ID == v.ID {
				snap.Items[i] = v
				return
			}
		}
	})
	return nil
}

func (s *Store) DeleteItem(id string) error {
	s.stage(stagedWrite{query: `DELETE FROM items WHERE id=?`, args: []any{id}}, func(snap *domain.Snapshot) {
		for i := range snap.Items {
			if snap.Items[i].ID == id {
				snap.Items = append(snap.Items[:i], snap.Items[i+1:]...)
				return
			}
		}
	})
	return nil
}

const locationUpsert = `
INSERT INTO locations (id, name, description, parent_id, visibility, responsible, created_at, updated_at)
VALUES(?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	description=excluded.description,
	parent_id=excluded.parent_id,
	visibility=excluded.visibility,
	responsible=excluded.responsible,
	updated_at=excluded.updated_at
`

func locationWrite(v domain.Location) stagedWrite {
	return stagedWrite{query: locationUpsert, args: []any{
		v.ID, v.Name, v.Description, v.ParentID, string(v.Visibility),
		encodeList(v.Responsible), v.CreatedAt, v.UpdatedAt,
	}}
}

func (s *Store) InsertLocation(v domain.Location) error {
	s.stage(locationWrite(v), func(snap *domain.Snapshot) {
		snap.Locations = append(snap.Locations, v)
	})
	return nil
}

func (s *Store) UpdateLocation(v domain.Location) error {
	s.stage(locationWrite(v), func(snap *domain.Snapshot) {
		for i := range snap.Locations {
			if snap.Locations[i].ID == v.ID {
				snap.Locations[i] = v
				return
			}
		}
	})
	return nil
}

func (s *Store) DeleteLocation(id string) error {
	s.stage(stagedWrite{query: `DELETE FROM locations WHERE id=?`, args: []any{id}}, func(snap *domain.Snapshot) {
		for i := range snap.Locations {
			if snap.Locations[i].ID == id {
				snap.Locations = append(snap.Locations[:i], snap.Locations[i+1:]...)
				return
			}
		}
	})
	return nil
}

const eventUpsert = `
INSERT INTO events (id, title, description, starts_at, ends_at, owner_id, location_id, participants, created_at, updated_at)
VALUES(?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title,
	description=excluded.description,
	starts_at=excluded.starts_at,
	ends_at=excluded.ends_at,
	owner_id=excluded.owner_id,
	location_id=excluded.location_id,
	participants=excluded.participants,
	updated_at=excluded.updated_at
`

func eventWrite(v domain.Event) stagedWrite {
	return stagedWrite{query: eventUpsert, args: []any{
		v.ID, v.Title, v.Description, nullTime(v.StartsAt), nullTime(v.EndsAt),
		v.OwnerID, v.LocationID, encodeList(v.Participants),
		v.CreatedAt, v.UpdatedAt,
	}}
}

func (s *Store) InsertEvent(v domain.Event) error {
	s.stage(eventWrite(v), func(snap *domain.Snapshot) {
		snap.Events = append(snap.Events, v)
	})
	return nil
}

func (s *Store) UpdateEvent(v domain.Event) error {
	s.stage(eventWrite(v), func(snap *domain.Snapshot) {
		for i := range snap.Events {
			if snap.Events[i].ID == v.ID {
				snap.Events[i] = v
				return
			}
		}
	})
	return nil
}

func (s *Store) DeleteEvent(id string) error {
	s.stage(stagedWrite{query: `DELETE FROM events WHERE id=?`, args: []any{id}}, func(snap *domain.Snapshot) {
		for i := range snap.Events {
			if snap.Events[i].ID == id {
				snap.Events = append(snap.Events[:i], snap.Events[i+1:]...)
				return
			}
		}
	})
	return nil
}

const memberUpsert = `
INSERT INTO members (id, name, username, email, created_at, updated_at)
VALUES(?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	username=excluded.username,
	email=excluded.email,
	updated_at=excluded.updated_at
`

func memberWrite(v domain.Member) stagedWrite {
	return stagedWrite{query: memberUpsert, args: []any{
		v.ID, v.Name, v.Username, v.Email, v.CreatedAt, v.UpdatedAt,
	}}
}

func (s *Store) InsertMember(v domain.Member) error {
	s.stage(memberWrite(v), func(snap *domain.Snapshot) {
		snap.Members = append(snap.Members, v)
	})
	return nil
}

func (s *Store) UpdateMember(v domain.Member) error {
	s.stage(memberWrite(v), func(snap *domain.Snapshot) {
		for i := range snap.Members {
			if snap.Members[i].ID == v.ID {
				snap.Members[i] = v
				return
			}
		}
	})
	return nil
}

func (s *Store) DeleteMember(id string) error {
	s.stage(stagedWrite{query: `DELETE FROM members WHERE id=?`, args: []any{id}}, func(snap *domain.Snapshot) {
		for i := range snap.Members {
			if snap.Members[i].ID == id {
				snap.Members = append(snap.Members[:i], snap.Members[i+1:]...)
				return
			}
		}
	})
	return nil
}
