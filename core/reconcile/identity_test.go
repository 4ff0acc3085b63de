package reconcile_test

import (
	"testing"
	"time"

	"pim-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCounterpartIdempotent(t *testing.T) {
	identity := reconcile.NewIdentityStore()
	ev := newEvent("l1", "Standup", baseTime)
	at := time.Date(2026, 3, 10, 9, 30, 45, 0, time.UTC)

	assert.True(t, identity.SetCounterpart(ev, "r1", "tag", at))
	// Same values, even with different sub-minute time, change nothing.
	assert.False(t, identity.SetCounterpart(ev, "r1", "tag", at.Add(10*time.Second)))
	assert.True(t, identity.SetCounterpart(ev, "r2", "tag", at))
}

func TestWatermarkTruncatedToMinute(t *testing.T) {
	identity := reconcile.NewIdentityStore()
	ev := newEvent("l1", "Standup", baseTime)
	at := time.Date(2026, 3, 10, 9, 30, 45, 123456789, time.UTC)

	identity.SetCounterpart(ev, "r1", "", at)
	got, ok := identity.LastSyncedAt(ev)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), got.UTC())
}

func TestClearCounterpart(t *testing.T) {
	identity := reconcile.NewIdentityStore()
	ev := newEvent("l1", "Standup", baseTime)
	identity.SetCounterpart(ev, "r1", "tag", baseTime)

	identity.ClearCounterpart(ev)

	_, ok := identity.CounterpartID(ev)
	assert.False(t, ok)
	_, ok = identity.LastSyncedAt(ev)
	assert.False(t, ok)
	_, ok = identity.LastEtag(ev)
	assert.False(t, ok)
}

func TestCorruptWatermarkTreatedAsNeverSynced(t *testing.T) {
	identity := reconcile.NewIdentityStore()
	ev := newEvent("l1", "Standup", baseTime)
	ev.SetMetadata(reconcile.MetaLastSynced, "not a date")

	_, ok := identity.LastSyncedAt(ev)
	assert.False(t, ok)
}

func TestTruncateMinute(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 30, 59, 999999999, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), reconcile.TruncateMinute(at))
}
