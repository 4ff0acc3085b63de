package reconcile

import (
	"fmt"
	"time"
)

// SyncOption governs every branch of the engine's decision machine.
// It is immutable for the duration of a run.
type SyncOption string

const (
	// TwoWayLocalWins merges both directions; conflicts resolve to the
	// local record.
	TwoWayLocalWins SyncOption = "two-way-local-wins"
	// TwoWayRemoteWins merges both directions; conflicts resolve to the
	// remote record.
	TwoWayRemoteWins SyncOption = "two-way-remote-wins"
	// TwoWayPrompt merges both directions and asks the resolver on
	// conflicts.
	TwoWayPrompt SyncOption = "two-way-prompt"
	// OneWayLocalToRemote only ever writes to the remote store.
	OneWayLocalToRemote SyncOption = "one-way-local-to-remote"
	// OneWayRemoteToLocal only ever writes to the local store.
	OneWayRemoteToLocal SyncOption = "one-way-remote-to-local"
)

// ParseSyncOption converts a config/CLI string into a SyncOption.
func ParseSyncOption(s string) (SyncOption, error) {
	switch SyncOption(s) {
	case TwoWayLocalWins, TwoWayRemoteWins, TwoWayPrompt, OneWayLocalToRemote, OneWayRemoteToLocal:
		return SyncOption(s), nil
	}
	return "", fmt.Errorf("unknown sync option %q", s)
}

// TwoWay reports whether the option merges in both directions.
func (o SyncOption) TwoWay() bool {
	return o != OneWayLocalToRemote && o != OneWayRemoteToLocal
}

// DefaultTolerance absorbs minute truncation of the watermark plus clock
// reset skew between the two stores.
const DefaultTolerance = 120 * time.Second

// Options configures a reconciliation run.
type Options struct {
	// Mode selects the merge direction and conflict default.
	Mode SyncOption

	// SyncDeletes enables propagating deletions. When disabled, a record
	// missing on one side is skipped instead of deleted or recreated.
	SyncDeletes bool

	// PromptOnDelete routes deletion conflicts through the resolver even
	// when an automatic resolution would apply.
	PromptOnDelete bool

	// Tolerance is the clock-skew window below which a record does not
	// count as updated since the last sync. Zero means DefaultTolerance.
	Tolerance time.Duration

	// Scope bounds enumeration on both stores.
	Scope Scope
}

// tolerance returns the effective skew window.
func (o Options) tolerance() time.Duration {
	if o.Tolerance <= 0 {
		return DefaultTolerance
	}
	return o.Tolerance
}

// UpdatedSince reports whether modified is later than the watermark by more
// than the tolerance window. Differences at or below the window are treated
// as clock noise, not edits.
func UpdatedSince(modified, lastSynced time.Time, tolerance time.Duration) bool {
	if modified.IsZero() {
		return false
	}
	return modified.Sub(lastSynced) > tolerance
}
