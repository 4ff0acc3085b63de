package reconcile

import (
	"context"

	"go.uber.org/zap"

	"pim-sync/core/record"
)

// Match pairs a local record with its remote counterpart. At least one side
// is always non-nil.
type Match struct {
	// Local is the local-side record, nil for remote-only matches.
	Local record.Record

	// Remote is the chosen remote counterpart, nil when the remote side is
	// missing.
	Remote record.Record

	// RemoteCandidates accumulates every remote record that matched by
	// property similarity, including the chosen one. Needed later to attach
	// recurrence exceptions to the right parent.
	RemoteCandidates []record.Record

	// ByID is true when the pair was established through the stored
	// counterpart id rather than property similarity.
	ByID bool

	// Exceptions holds remote recurrence-exception instances whose parent
	// is this match's remote record.
	Exceptions []*record.Event
}

// Label describes the match for logging.
func (m *Match) Label() string {
	if m.Local != nil {
		return m.Local.Label()
	}
	return m.Remote.Label()
}

// MatchStats counts what the matcher saw and dropped.
type MatchStats struct {
	LocalRecords  int
	RemoteRecords int
	MatchedByID   int
	MatchedByProp int
	Skipped       int
}

// Matcher pairs enumerated records from both sides.
type Matcher struct {
	identity IdentityStore
	remote   StoreAdapter
	scope    Scope
	log      *zap.Logger
}

// NewMatcher creates a matcher. remote is consulted for direct id lookups
// in pass 1.
func NewMatcher(identity IdentityStore, remote StoreAdapter, scope Scope, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{identity: identity, remote: remote, scope: scope, log: log}
}

// Match pairs the two record sets into an ordered match list.
func (m *Matcher) Match(ctx context.Context, locals, remotes []record.Record) ([]*Match, *MatchStats, error) {
	stats := &MatchStats{LocalRecords: len(locals), RemoteRecords: len(remotes)}

	pending := make([]record.Record, len(remotes))
	copy(pending, remotes)

	var matches []*Match
	var unmatched []record.Record

	// Pass 1: match by stable counterpart id.
	for _, local := range locals {
		if reason := m.skipReason(local); reason != "" {
			stats.Skipped++
			m.log.Debug("skipping local record",
				zap.String("record", local.Label()),
				zap.String("reason", reason))
			continue
		}

		counterpartID, ok := m.identity.CounterpartID(local)
		if ok {
			remote, err := m.remote.FetchByID(ctx, counterpartID)
			if err != nil {
				return nil, nil, err
			}
			if remote != nil && !remote.Cancelled() {
				matches = append(matches, &Match{Local: local, Remote: remote, ByID: true})
				pending = removeByID(pending, remote.ID())
				stats.MatchedByID++
				continue
			}
		}
		unmatched = append(unmatched, local)
	}

	// Pass 2: match the rest by property similarity.
	for _, local := range unmatched {
		match := &Match{Local: local}
		// Reverse order keeps the tie-break deterministic: the last
		// enumerated pending record wins as primary.
		for i := len(pending) - 1; i >= 0; i-- {
			candidate := pending[i]
			// A cancelled record is not an active counterpart; it stays in
			// the pool and is dropped in pass 3.
			if candidate.Cancelled() || !propertiesMatch(local, candidate) {
				continue
			}
			if match.Remote == nil {
				match.Remote = candidate
				stats.MatchedByProp++
			}
			match.RemoteCandidates = append(match.RemoteCandidates, candidate)
			pending = append(pending[:i], pending[i+1:]...)
		}
		if match.Remote == nil {
			if _, stale := m.identity.CounterpartID(local); stale {
				m.log.Debug("no remote match; counterpart id is stale",
					zap.String("record", local.Label()),
					zap.String("action_hint", "would delete locally"))
			} else {
				m.log.Debug("no remote match",
					zap.String("record", local.Label()),
					zap.String("action_hint", "would add to remote"))
			}
		}
		matches = append(matches, match)
	}

	// Pass 3: leftover remote records become remote-only matches, except
	// exception instances, cancelled records, and records with nothing to
	// match or display.
	var exceptions []*record.Event
	for _, remote := range pending {
		if ev, ok := remote.(*record.Event); ok && ev.RecurringParentID() != "" {
			exceptions = append(exceptions, ev)
			continue
		}
		if remote.Cancelled() {
			stats.Skipped++
			m.log.Debug("dropping cancelled remote record",
				zap.String("record", remote.Label()))
			continue
		}
		if start, ok := remote.StartsAt(); remote.SummaryKey() == "" && (!ok || start.IsZero()) {
			m.log.Warn("dropping remote record with no title and no start time",
				zap.String("id", remote.ID()))
			continue
		}
		matches = append(matches, &Match{Remote: remote})
	}

	// Pass 4: attach exception instances to their parent's match.
	for _, ex := range exceptions {
		owner := findByRemoteID(matches, ex.RecurringParentID())
		if owner == nil {
			m.log.Warn("orphan recurrence exception, parent not matched",
				zap.String("exception", ex.Label()),
				zap.String("parent_id", ex.RecurringParentID()))
			continue
		}
		owner.Exceptions = append(owner.Exceptions, ex)
	}

	return matches, stats, nil
}

// skipReason returns a non-empty reason when the local record is excluded
// from matching.
func (m *Matcher) skipReason(local record.Record) string {
	if local.RecurringParentID() != "" {
		return "recurrence exception instance"
	}
	if start, ok := local.StartsAt(); ok && !m.scope.Contains(start) {
		return "outside sync window"
	}
	return ""
}

// propertiesMatch tests the fallback identity heuristic: same summary text
// and same normalized start time. All-day records compare by date only;
// records without a time axis compare by summary alone.
func propertiesMatch(a, b record.Record) bool {
	if a.SummaryKey() == "" || a.SummaryKey() != b.SummaryKey() {
		return false
	}
	aStart, aOK := a.StartsAt()
	bStart, bOK := b.StartsAt()
	if !aOK {
		return !bOK
	}
	if !bOK {
		return false
	}
	if a.AllDay() {
		return record.SameDate(aStart, bStart)
	}
	return aStart.Equal(bStart)
}

func removeByID(pool []record.Record, id string) []record.Record {
	for i, r := range pool {
		if r.ID() == id {
			return append(pool[:i], pool[i+1:]...)
		}
	}
	return pool
}

func findByRemoteID(matches []*Match, id string) *Match {
	for _, m := range matches {
		if m.Remote != nil && m.Remote.ID() == id {
			return m
		}
	}
	return nil
}
