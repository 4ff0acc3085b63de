package calendar

import (
	"fmt"
	"time"

	"pim-sync/core/record"
)

// MergeEvent overwrites dst's mutable fields from src and returns
// human-readable warnings for anything that could not be carried over.
// Native ids, metadata and update timestamps are left alone.
func MergeEvent(dst, src *record.Event) []string {
	var warnings []string

	dst.Subject = src.Subject
	dst.Location = src.Location
	dst.Description = src.Description
	dst.Start = src.Start
	dst.End = src.End
	dst.AllDate = src.AllDate
	dst.Status = src.Status

	dst.Attendees = append(dst.Attendees[:0], src.Attendees...)

	if src.Recurrence == nil {
		dst.Recurrence = nil
	} else {
		r := *src.Recurrence
		r.ByDay = append([]string(nil), src.Recurrence.ByDay...)
		dst.Recurrence = &r
	}

	warnings = append(warnings, mergeExceptions(dst, src)...)
	return warnings
}

// NewEventFrom builds a fresh event carrying src's merged projection, for
// create operations. The native id is left empty for the store to assign.
func NewEventFrom(src *record.Event) *record.Event {
	dst := &record.Event{}
	MergeEvent(dst, src)
	return dst
}

// mergeExceptions carries src's recurrence exceptions into dst. Each source
// exception is keyed by its original instance date and located in dst via
// the three-tier fallback (exact date-time, date only, date plus the
// counterpart's time of day); unmatched ones are appended.
func mergeExceptions(dst, src *record.Event) []string {
	var warnings []string
	for _, ex := range src.Exceptions {
		copied := record.Exception{
			Deleted:       ex.Deleted,
			OriginalStart: ex.OriginalStart,
		}
		if ex.Instance != nil {
			inst := &record.Event{}
			MergeEvent(inst, ex.Instance)
			copied.Instance = inst
		}

		idx := findException(dst.Exceptions, ex.OriginalStart)
		if idx < 0 {
			dst.Exceptions = append(dst.Exceptions, copied)
			continue
		}
		if dst.Exceptions[idx].Deleted && !ex.Deleted {
			warnings = append(warnings,
				fmt.Sprintf("occurrence %s deleted on target, restored from source",
					ex.OriginalStart.Format("2006-01-02")))
		}
		dst.Exceptions[idx] = copied
	}
	return warnings
}

// findException mirrors record.Event.ExceptionAt but returns the index.
func findException(exceptions []record.Exception, at time.Time) int {
	for i, ex := range exceptions {
		if ex.OriginalStart.Equal(at) {
			return i
		}
	}
	for i, ex := range exceptions {
		if record.SameDate(ex.OriginalStart, at) {
			return i
		}
	}
	for i, ex := range exceptions {
		shifted := time.Date(
			ex.OriginalStart.Year(), ex.OriginalStart.Month(), ex.OriginalStart.Day(),
			at.Hour(), at.Minute(), at.Second(), 0, at.Location())
		if shifted.Equal(at) {
			return i
		}
	}
	return -1
}
