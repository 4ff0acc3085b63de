package record

import "time"

// Kind identifies the record variant.
type Kind string

const (
	// KindEvent is a calendar event record.
	KindEvent Kind = "event"
	// KindContact is an address book record.
	KindContact Kind = "contact"
)

// Record is the abstract item the matcher and engine operate on.
// Both concrete variants (Event, Contact) implement it.
type Record interface {
	// ID returns the record's native id in its own store.
	ID() string

	// Kind returns the record variant.
	Kind() Kind

	// Label returns a human-readable description for logging.
	// It is never used for matching or merging.
	Label() string

	// SummaryKey returns the text key used for property-based matching:
	// the subject for events, the display name for contacts.
	SummaryKey() string

	// StartsAt returns the record's start time. ok is false for records
	// without a time axis (contacts).
	StartsAt() (t time.Time, ok bool)

	// AllDay reports whether the record is an all-day/all-date item.
	// Always false for contacts.
	AllDay() bool

	// Cancelled reports whether the record carries a cancelled/deleted
	// status in its own store.
	Cancelled() bool

	// Participants returns the number of participants. Records with more
	// than one participant are treated as shared copies: the engine never
	// deletes them on a deletion conflict and never prompts for them.
	Participants() int

	// RecurringParentID returns the native id of the recurring parent when
	// this record is itself a recurrence-exception instance, or "" otherwise.
	RecurringParentID() string

	// Metadata returns the value stored under key in the record's
	// cross-store metadata bag.
	Metadata(key string) (string, bool)

	// SetMetadata stores value under key in the metadata bag. The change is
	// in-memory until the owning adapter's WriteMetadata persists it.
	SetMetadata(key, value string)
}

// Meta is the metadata bag shared by both concrete record types.
// The zero value is ready to use.
type Meta struct {
	kv map[string]string
}

// Metadata implements Record.
func (m *Meta) Metadata(key string) (string, bool) {
	v, ok := m.kv[key]
	return v, ok
}

// SetMetadata implements Record.
func (m *Meta) SetMetadata(key, value string) {
	if m.kv == nil {
		m.kv = make(map[string]string)
	}
	m.kv[key] = value
}

// DeleteMetadata removes key from the bag.
func (m *Meta) DeleteMetadata(key string) {
	delete(m.kv, key)
}

// MetadataMap returns a copy of the bag, for adapters persisting it.
func (m *Meta) MetadataMap() map[string]string {
	out := make(map[string]string, len(m.kv))
	for k, v := range m.kv {
		out[k] = v
	}
	return out
}

// SetMetadataMap replaces the bag wholesale, for adapters loading it.
func (m *Meta) SetMetadataMap(kv map[string]string) {
	m.kv = make(map[string]string, len(kv))
	for k, v := range kv {
		m.kv[k] = v
	}
}
