package record

import (
	"fmt"
	"time"
)

// Event is a calendar event on either side.
type Event struct {
	Meta

	NativeID    string    `json:"native_id"`
	Subject     string    `json:"subject"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDate     bool      `json:"all_date"`
	Status      string    `json:"status,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`

	// Recurrence is nil for single events.
	Recurrence *Recurrence `json:"recurrence,omitempty"`

	// Exceptions holds the modified or cancelled occurrences of a
	// recurring parent, keyed by their original instance date.
	Exceptions []Exception `json:"exceptions,omitempty"`

	// RecurringEventID is set when this record is itself an exception
	// instance enumerated independently by the remote store.
	RecurringEventID string `json:"recurring_event_id,omitempty"`

	// OriginalStart is the original instance date of an exception instance.
	OriginalStart time.Time `json:"original_start,omitempty"`

	// Updated is the record's own last-modified timestamp. Zero means the
	// store did not report one (observed for cancelled occurrences).
	Updated time.Time `json:"updated,omitempty"`
}

// StatusCancelled marks an event as cancelled/deleted in its store.
const StatusCancelled = "cancelled"

// Recurrence describes a repetition pattern.
type Recurrence struct {
	Frequency string    `json:"frequency"` // daily, weekly, monthly, yearly
	Interval  int       `json:"interval,omitempty"`
	Count     int       `json:"count,omitempty"`
	Until     time.Time `json:"until,omitempty"`
	ByDay     []string  `json:"by_day,omitempty"`
}

// Exception is a single modified or cancelled occurrence of a recurring
// parent. Exceptions are discovered when enumerating the parent, never
// created independently by the engine.
type Exception struct {
	Deleted       bool      `json:"deleted"`
	OriginalStart time.Time `json:"original_start"`

	// Instance is the modified occurrence; nil when the occurrence was
	// deleted without a replacement.
	Instance *Event `json:"instance,omitempty"`
}

func (e *Event) ID() string { return e.NativeID }
func (e *Event) Kind() Kind { return KindEvent }
func (e *Event) AllDay() bool { return e.AllDate }

func (e *Event) Label() string {
	if e.AllDate {
		return fmt.Sprintf("%s (%s)", e.Subject, e.Start.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s (%s)", e.Subject, e.Start.Format("2006-01-02 15:04"))
}

func (e *Event) SummaryKey() string { return e.Subject }

func (e *Event) StartsAt() (time.Time, bool) { return e.Start, true }

func (e *Event) Cancelled() bool { return e.Status == StatusCancelled }

func (e *Event) Participants() int { return len(e.Attendees) }

func (e *Event) RecurringParentID() string { return e.RecurringEventID }

// Recurring reports whether the event is a recurring parent.
func (e *Event) Recurring() bool { return e.Recurrence != nil }

// ExceptionAt returns the exception whose original instance date matches t,
// using a three-tier fallback: exact date-time, date only, then date plus
// t's own time of day.
func (e *Event) ExceptionAt(t time.Time) (Exception, bool) {
	if i := e.exceptionIndex(t); i >= 0 {
		return e.Exceptions[i], true
	}
	return Exception{}, false
}

// SetException replaces the exception at ex's original instance date,
// located through the same fallback as ExceptionAt, or appends it.
func (e *Event) SetException(ex Exception) {
	if i := e.exceptionIndex(ex.OriginalStart); i >= 0 {
		e.Exceptions[i] = ex
		return
	}
	e.Exceptions = append(e.Exceptions, ex)
}

func (e *Event) exceptionIndex(t time.Time) int {
	for i, ex := range e.Exceptions {
		if ex.OriginalStart.Equal(t) {
			return i
		}
	}
	for i, ex := range e.Exceptions {
		if SameDate(ex.OriginalStart, t) {
			return i
		}
	}
	for i, ex := range e.Exceptions {
		shifted := time.Date(
			ex.OriginalStart.Year(), ex.OriginalStart.Month(), ex.OriginalStart.Day(),
			t.Hour(), t.Minute(), t.Second(), 0, t.Location())
		if shifted.Equal(t) {
			return i
		}
	}
	return -1
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
