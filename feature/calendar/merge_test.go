package calendar_test

import (
	"testing"
	"time"

	"pim-sync/core/record"
	"pim-sync/feature/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestMergeEventOverwritesMutableFields(t *testing.T) {
	src := &record.Event{
		NativeID:    "src",
		Subject:     "Planning",
		Location:    "Room 4",
		Description: "Quarterly planning",
		Start:       base,
		End:         base.Add(2 * time.Hour),
		Attendees:   []string{"a@example.com"},
	}
	dst := &record.Event{
		NativeID: "dst",
		Subject:  "Old title",
		Updated:  base.Add(-time.Hour),
	}
	dst.SetMetadata("sync.counterpart_id", "src")

	warnings := calendar.MergeEvent(dst, src)
	assert.Empty(t, warnings)

	assert.Equal(t, "Planning", dst.Subject)
	assert.Equal(t, "Room 4", dst.Location)
	assert.Equal(t, src.Start, dst.Start)
	assert.Equal(t, src.Attendees, dst.Attendees)

	// Identity and bookkeeping stay untouched.
	assert.Equal(t, "dst", dst.NativeID)
	assert.Equal(t, base.Add(-time.Hour), dst.Updated)
	cid, _ := dst.Metadata("sync.counterpart_id")
	assert.Equal(t, "src", cid)
}

func TestMergeEventCopiesRecurrence(t *testing.T) {
	src := &record.Event{
		Subject: "Weekly",
		Start:   base,
		Recurrence: &record.Recurrence{
			Frequency: "weekly",
			ByDay:     []string{"TU"},
		},
	}
	dst := &record.Event{}

	calendar.MergeEvent(dst, src)
	require.NotNil(t, dst.Recurrence)

	// A deep copy: mutating the source must not leak through.
	src.Recurrence.ByDay[0] = "WE"
	assert.Equal(t, "TU", dst.Recurrence.ByDay[0])

	calendar.MergeEvent(dst, &record.Event{Subject: "Single"})
	assert.Nil(t, dst.Recurrence)
}

func TestMergeExceptionsByOriginalDate(t *testing.T) {
	day := base.AddDate(0, 0, 7)
	src := &record.Event{
		Subject: "Weekly",
		Start:   base,
		Exceptions: []record.Exception{
			{Deleted: true, OriginalStart: day},
		},
	}
	// The target keys the same occurrence by date only (midnight).
	dst := &record.Event{
		Subject: "Weekly",
		Start:   base,
		Exceptions: []record.Exception{
			{OriginalStart: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)},
		},
	}

	calendar.MergeEvent(dst, src)
	require.Len(t, dst.Exceptions, 1)
	assert.True(t, dst.Exceptions[0].Deleted)
}

func TestMergeExceptionsAppendsUnmatched(t *testing.T) {
	day := base.AddDate(0, 0, 14)
	moved := &record.Event{Subject: "Weekly", Start: day.Add(time.Hour)}
	src := &record.Event{
		Subject: "Weekly",
		Start:   base,
		Exceptions: []record.Exception{
			{OriginalStart: day, Instance: moved},
		},
	}
	dst := &record.Event{Subject: "Weekly", Start: base}

	calendar.MergeEvent(dst, src)
	require.Len(t, dst.Exceptions, 1)
	require.NotNil(t, dst.Exceptions[0].Instance)
	assert.Equal(t, day.Add(time.Hour), dst.Exceptions[0].Instance.Start)
}

func TestMergeWarnsOnRestoredOccurrence(t *testing.T) {
	day := base.AddDate(0, 0, 7)
	src := &record.Event{
		Subject:    "Weekly",
		Start:      base,
		Exceptions: []record.Exception{{OriginalStart: day, Instance: &record.Event{Subject: "Weekly", Start: day}}},
	}
	dst := &record.Event{
		Subject:    "Weekly",
		Start:      base,
		Exceptions: []record.Exception{{Deleted: true, OriginalStart: day}},
	}

	warnings := calendar.MergeEvent(dst, src)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "restored")
	assert.False(t, dst.Exceptions[0].Deleted)
}

func TestNewEventFromLeavesIDEmpty(t *testing.T) {
	src := &record.Event{NativeID: "src", Subject: "Planning", Start: base}
	created := calendar.NewEventFrom(src)
	assert.Empty(t, created.NativeID)
	assert.Equal(t, "Planning", created.Subject)
}
