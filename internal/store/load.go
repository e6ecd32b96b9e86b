package store

import (
	"database/sql"
	"fmt"

	"keeper/internal/domain"
)

func (s *Store) loadAll() error {
	snap := domain.Snapshot{}

	rows, err := s.db.Query(`SELECT id, name, description, status, features, visibility, location_id, responsible, attachment, created_at, updated_at FROM items ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	for rows.Next() {
		var v domain.Item
		var status, features, visibility, responsible string
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &status, &features, &visibility, &v.LocationID, &responsible, &v.Attachment, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan item: %w", err)
		}
		v.Status = domain.ItemStatus(status)
		v.Visibility = domain.Visibility(visibility)
		v.Features = decodeList[domain.Feature](features)
		v.Responsible = decodeList[string](responsible)
		snap.Items = append(snap.Items, v)
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("load items: %w", err)
	}

	rows, err = s.db.Query(`SELECT id, name, description, parent_id, visibility, responsible, created_at, updated_at FROM locations ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	for rows.Next() {
		var v domain.Location
		var visibility, responsible string
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.ParentID, &visibility, &responsible, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan location: %w", err)
		}
		v.Visibility = domain.Visibility(visibility)
		v.Responsible = decodeList[string](responsible)
		snap.Locations = append(snap.Locations, v)
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("load locations: %w", err)
	}

	rows, err = s.db.Query(`SELECT id, title, description, starts_at, ends_at, owner_id, location_id, participants, created_at, updated_at FROM events ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	for rows.Next() {
		var v domain.Event
		var starts, ends sql.NullTime
		var participants string
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &starts, &ends, &v.OwnerID, &v.LocationID, &participants, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan event: %w", err)
		}
		v.StartsAt = fromNullTime(starts)
		v.EndsAt = fromNullTime(ends)
		v.Participants = decodeList[string](participants)
		snap.Events = append(snap.Events, v)
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	rows, err = s.db.Query(`SELECT id, name, username, email, created_at, updated_at FROM members ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	for rows.Next() {
		var v domain.Member
		if err := rows.Scan(&v.ID, &v.Name, &v.Username, &v.Email, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan member: %w", err)
		}
		snap.Members = append(snap.Members, v)
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("load members: %w", err)
	}

	s.committed = snap
	return nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}
