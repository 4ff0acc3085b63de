package reconcile

import (
	"context"
	"time"

	"pim-sync/core/record"
)

// Scope narrows enumeration to one record kind and, for events, a time
// window. Both adapters must agree on the window semantics.
type Scope struct {
	Kind record.Kind

	// From/To bound the sync window for events. Zero values mean unbounded
	// on that end. Contacts ignore the window.
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the scope's window.
func (s Scope) Contains(t time.Time) bool {
	if !s.From.IsZero() && t.Before(s.From) {
		return false
	}
	if !s.To.IsZero() && t.After(s.To) {
		return false
	}
	return true
}

// StoreAdapter is the capability set the matcher and engine require from
// each side. Implementations translate to their store's native API and
// field model; the engine treats both sides as the same abstraction.
//
// Lookup methods return (nil, nil) when the record does not exist or was
// deleted between enumeration and fetch. Only true connectivity failures
// are returned as errors, wrapped in ConnectivityError.
type StoreAdapter interface {
	// Name identifies the adapter in logs.
	Name() string

	// Enumerate returns the records in scope. The sequence is finite and
	// consumed once per run.
	Enumerate(ctx context.Context, scope Scope) ([]record.Record, error)

	// FetchByID fetches a record by its native id.
	FetchByID(ctx context.Context, id string) (record.Record, error)

	// FetchByCounterpartID fetches the record whose stored counterpart id
	// equals counterpartID.
	FetchByCounterpartID(ctx context.Context, counterpartID string) (record.Record, error)

	// InSyncWindow reports whether a record dated t falls inside this
	// adapter's configured sync window.
	InSyncWindow(t time.Time) bool

	// Create writes a new record built from the source record's merged
	// projection and returns it with its native id assigned.
	Create(ctx context.Context, from record.Record) (record.Record, error)

	// Update overwrites target's mutable fields from the source record.
	// The full field set is constructed before a single commit-style write.
	Update(ctx context.Context, target, from record.Record) error

	// Delete removes the record from the store.
	Delete(ctx context.Context, rec record.Record) error

	// LastModified returns the record's own update timestamp as reported
	// by the store. Recurrence-exception awareness is layered on top by the
	// engine, which sees the exceptions on the Match.
	LastModified(rec record.Record) time.Time

	// WriteMetadata persists the record's metadata bag, including the
	// cross-reference written by the engine after a successful write.
	WriteMetadata(ctx context.Context, rec record.Record) error

	// ReleaseHandle releases any native handle backing rec. Adapters over
	// plain data stores implement it as a no-op, but the obligation stays
	// explicit for backends with real handle-count limits.
	ReleaseHandle(rec record.Record)
}
