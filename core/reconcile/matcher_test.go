package reconcile_test

import (
	"context"
	"testing"
	"time"

	"pim-sync/core/reconcile"
	"pim-sync/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMatcher(remote reconcile.StoreAdapter, scope reconcile.Scope) *reconcile.Matcher {
	return reconcile.NewMatcher(reconcile.NewIdentityStore(), remote, scope, zap.NewNop())
}

func TestMatchByCounterpartID(t *testing.T) {
	lv := newEvent("l1", "Standup", baseTime)
	lv.SetMetadata(reconcile.MetaCounterpartID, "r1")
	// Different subject and start: the stored id outranks properties.
	rv := newEvent("r1", "Renamed standup", baseTime.Add(time.Hour))
	remote := &fakeStore{name: "remote", records: []record.Record{rv}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, stats, err := m.Match(context.Background(), []record.Record{lv}, []record.Record{rv})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.True(t, matches[0].ByID)
	assert.Equal(t, "r1", matches[0].Remote.ID())
	assert.Equal(t, 1, stats.MatchedByID)
	assert.Equal(t, 0, stats.MatchedByProp)
}

func TestMatchByProperties(t *testing.T) {
	lv := newEvent("l1", "Standup", baseTime)
	rv := newEvent("r1", "Standup", baseTime)
	other := newEvent("r2", "Retro", baseTime.Add(time.Hour))
	remote := &fakeStore{name: "remote", records: []record.Record{rv, other}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, stats, err := m.Match(context.Background(), []record.Record{lv}, []record.Record{rv, other})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.MatchedByProp)
	require.Len(t, matches, 2)
	assert.Equal(t, "r1", matches[0].Remote.ID())
	assert.False(t, matches[0].ByID)
	// The unrelated remote record becomes a remote-only match.
	assert.Nil(t, matches[1].Local)
	assert.Equal(t, "r2", matches[1].Remote.ID())
}

func TestAllDayMatchesByDateOnly(t *testing.T) {
	lv := newEvent("l1", "Conference", baseTime)
	lv.AllDate = true
	rv := newEvent("r1", "Conference", baseTime.Add(3*time.Hour))
	rv.AllDate = true
	remote := &fakeStore{name: "remote", records: []record.Record{rv}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, stats, err := m.Match(context.Background(), []record.Record{lv}, []record.Record{rv})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.MatchedByProp)
	require.Len(t, matches, 1)
	assert.Equal(t, "r1", matches[0].Remote.ID())
}

func TestDuplicateCandidatesAccumulate(t *testing.T) {
	lv := newEvent("l1", "Standup", baseTime)
	r1 := newEvent("r1", "Standup", baseTime)
	r2 := newEvent("r2", "Standup", baseTime)
	remote := &fakeStore{name: "remote", records: []record.Record{r1, r2}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, _, err := m.Match(context.Background(), []record.Record{lv}, []record.Record{r1, r2})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Len(t, matches[0].RemoteCandidates, 2)
	// Reverse iteration makes the last enumerated record primary.
	assert.Equal(t, "r2", matches[0].Remote.ID())
}

func TestLocalExceptionInstanceSkipped(t *testing.T) {
	ex := newEvent("l1", "Weekly sync", baseTime)
	ex.RecurringEventID = "l-parent"
	remote := &fakeStore{name: "remote"}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, stats, err := m.Match(context.Background(), []record.Record{ex}, nil)
	require.NoError(t, err)

	assert.Empty(t, matches)
	assert.Equal(t, 1, stats.Skipped)
}

func TestLocalOutsideWindowSkipped(t *testing.T) {
	lv := newEvent("l1", "Old meeting", baseTime.AddDate(-1, 0, 0))
	remote := &fakeStore{name: "remote"}

	scope := reconcile.Scope{
		Kind: record.KindEvent,
		From: baseTime.AddDate(0, 0, -30),
		To:   baseTime.AddDate(0, 0, 60),
	}
	m := newMatcher(remote, scope)
	matches, stats, err := m.Match(context.Background(), []record.Record{lv}, nil)
	require.NoError(t, err)

	assert.Empty(t, matches)
	assert.Equal(t, 1, stats.Skipped)
}

func TestCancelledRemoteLeftoverDropped(t *testing.T) {
	rv := newEvent("r1", "Cancelled meeting", baseTime)
	rv.Status = record.StatusCancelled
	remote := &fakeStore{name: "remote", records: []record.Record{rv}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, stats, err := m.Match(context.Background(), nil, []record.Record{rv})
	require.NoError(t, err)

	assert.Empty(t, matches)
	assert.Equal(t, 1, stats.Skipped)
}

func TestRemoteExceptionAttachedToParent(t *testing.T) {
	parent := newEvent("r1", "Weekly sync", baseTime)
	ex := newEvent("r1-ex", "Weekly sync", baseTime.AddDate(0, 0, 7))
	ex.RecurringEventID = "r1"
	remote := &fakeStore{name: "remote", records: []record.Record{parent, ex}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, _, err := m.Match(context.Background(), nil, []record.Record{parent, ex})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	require.Len(t, matches[0].Exceptions, 1)
	assert.Equal(t, "r1-ex", matches[0].Exceptions[0].ID())
}

func TestOrphanExceptionDropped(t *testing.T) {
	ex := newEvent("r1-ex", "Weekly sync", baseTime)
	ex.RecurringEventID = "r-unknown"
	remote := &fakeStore{name: "remote", records: []record.Record{ex}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, _, err := m.Match(context.Background(), nil, []record.Record{ex})
	require.NoError(t, err)

	assert.Empty(t, matches)
}

func TestUntitledStartlessRemoteDropped(t *testing.T) {
	rv := &record.Event{NativeID: "r1"}
	remote := &fakeStore{name: "remote", records: []record.Record{rv}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindEvent})
	matches, _, err := m.Match(context.Background(), nil, []record.Record{rv})
	require.NoError(t, err)

	assert.Empty(t, matches)
}

func TestContactsMatchBySummaryAlone(t *testing.T) {
	lc := &record.Contact{NativeID: "l1", Name: record.StructuredName{Given: "Ada", Family: "Lovelace"}}
	rc := &record.Contact{NativeID: "r1", Name: record.StructuredName{Display: "Ada Lovelace"}}
	remote := &fakeStore{name: "remote", records: []record.Record{rc}}

	m := newMatcher(remote, reconcile.Scope{Kind: record.KindContact})
	matches, stats, err := m.Match(context.Background(), []record.Record{lc}, []record.Record{rc})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.MatchedByProp)
	require.Len(t, matches, 1)
	assert.Equal(t, "r1", matches[0].Remote.ID())
}
