package domain

import "time"

// EntityKind names one of the four record collections the agent operates on.
type EntityKind string

const (
	KindItem     EntityKind = "item"
	KindLocation EntityKind = "location"
	KindEvent    EntityKind = "event"
	KindMember   EntityKind = "member"
)

// ParseEntityKind validates a kind token from model output.
func ParseEntityKind(raw string) (EntityKind, bool) {
	switch EntityKind(raw) {
	case KindItem, KindLocation, KindEvent, KindMember:
		return EntityKind(raw), true
	}
	return "", false
}

// Item is a physical object tracked by the household. Responsible holds
// member ids; Location holds a location id.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      ItemStatus `json:"status"`
	Features    []Feature  `json:"features,omitempty"`
	Visibility  Visibility `json:"visibility"`
	LocationID  string     `json:"location_id,omitempty"`
	Responsible []string   `json:"responsible,omitempty"`
	Attachment  string     `json:"attachment,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Location is a place items live in. ParentID references another location;
// the tree must stay acyclic (see ValidateParent).
type Location struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    string     `json:"parent_id,omitempty"`
	Visibility  Visibility `json:"visibility"`
	Responsible []string   `json:"responsible,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Event is a scheduled activity owned by one member.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	StartsAt     time.Time `json:"starts_at,omitempty"`
	EndsAt       time.Time `json:"ends_at,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	LocationID   string    `json:"location_id,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Member is a person with access to the household.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is a value copy of every collection, taken at one point in time.
// The executor works against one snapshot; the verifier compares two.
type Snapshot struct {
	Items     []Item
	Locations []Location
	Events    []Event
	Members   []Member
}

// Clone deep-copies the snapshot so later mutations cannot leak backwards.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Items:     make([]Item, len(s.Items)),
		Locations: make([]Location, len(s.Locations)),
		Events:    make([]Event, len(s.Events)),
		Members:   make([]Member, len(s.Members)),
	}
	copy(out.Items, s.Items)
	copy(out.Locations, s.Locations)
	copy(out.Events, s.Events)
	copy(out.Members, s.Members)
	for i := range out.Items {
		out.Items[i].Features = append([]Feature(nil), out.Items[i].Features...)
		out.Items[i].Responsible = append([]string(nil), out.Items[i].Responsible...)
	}
	for i := range out.Locations {
		out.Locations[i].Responsible = append([]string(nil), out.Locations[i].Responsible...)
	}
	for i := range out.Events {
		out.Events[i].Participants = append([]string(nil), out.Events[i].Participants...)
	}
	return out
}

// Reader exposes read access to the repository collections.
type Reader interface {
	Snapshot() Snapshot
}

// Mutator stages single-entity writes. Nothing is visible to other readers
// until Commit; Commit flushes the whole staged batch atomically.
type Mutator interface {
	Reader
	InsertItem(Item) error
	UpdateItem(Item) error
	DeleteItem(id string) error
	InsertLocation(Location) error
	UpdateLocation(Location) error
	DeleteLocation(id string) error
	InsertEvent(Event) error
	UpdateEvent(Event) error
	DeleteEvent(id string) error
	InsertMember(Member) error
	UpdateMember(Member) error
	DeleteMember(id string) error
	Commit() error
}
