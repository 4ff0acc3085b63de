package localstore

import "time"

// EventRow is the relational shape of a calendar event. The payload column
// holds the full record JSON; the lifted columns exist for filtering and
// cross-reference lookups.
type EventRow struct {
	ID      string `gorm:"primaryKey;size:64"`
	Subject string `gorm:"size:255"`
	Start   time.Time
	End     time.Time
	AllDate bool
	Status  string `gorm:"size:32"`

	Payload string `gorm:"type:text"`

	CounterpartID string `gorm:"size:128;index"`
	LastSynced    string `gorm:"size:32"`
	Etag          string `gorm:"size:128"`

	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (EventRow) TableName() string { return "events" }

// ContactRow is the relational shape of an address book record.
type ContactRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	DisplayName string `gorm:"size:255"`

	Payload string `gorm:"type:text"`

	CounterpartID string `gorm:"size:128;index"`
	LastSynced    string `gorm:"size:32"`
	Etag          string `gorm:"size:128"`

	UpdatedAt time.Time
}

func (ContactRow) TableName() string { return "contacts" }
