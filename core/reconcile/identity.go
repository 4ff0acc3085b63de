package reconcile

import (
	"time"

	"pim-sync/core/record"
)

// Metadata keys under which the cross-reference lives on a record.
const (
	MetaCounterpartID = "sync.counterpart_id"
	MetaLastSynced    = "sync.last_synced"
	MetaEtag          = "sync.etag"
)

// watermarkLayout truncates the last-synced watermark to whole minutes: the
// local store's native storage cannot hold sub-minute precision, so both
// sides round identically.
const watermarkLayout = "2006-01-02T15:04Z07:00"

// IdentityStore maps a record on one side to the cross-reference of its
// counterpart on the other side. At most one cross-reference exists per
// record, and it is written only after a successful write to the
// counterpart side.
type IdentityStore interface {
	// CounterpartID returns the stored counterpart id, if any.
	CounterpartID(rec record.Record) (string, bool)

	// SetCounterpart stores the counterpart id, last-synced watermark and
	// etag. It is idempotent and reports whether anything changed, so
	// callers can skip redundant metadata writes.
	SetCounterpart(rec record.Record, counterpartID, etag string, at time.Time) (changed bool)

	// LastSyncedAt returns the minute-truncated last-synced watermark.
	LastSyncedAt(rec record.Record) (time.Time, bool)

	// LastEtag returns the opaque change tag recorded at the last sync.
	LastEtag(rec record.Record) (string, bool)

	// ClearCounterpart removes the cross-reference, used when the user
	// keeps a record after a deletion conflict so it can be re-paired on a
	// later run.
	ClearCounterpart(rec record.Record)
}

// MetadataIdentity is the default IdentityStore: it reads and writes the
// cross-reference through the record's metadata bag, leaving persistence to
// the owning adapter.
type MetadataIdentity struct{}

// NewIdentityStore returns the metadata-backed identity store.
func NewIdentityStore() *MetadataIdentity { return &MetadataIdentity{} }

func (MetadataIdentity) CounterpartID(rec record.Record) (string, bool) {
	v, ok := rec.Metadata(MetaCounterpartID)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (MetadataIdentity) SetCounterpart(rec record.Record, counterpartID, etag string, at time.Time) bool {
	stamp := TruncateMinute(at).Format(watermarkLayout)

	curID, _ := rec.Metadata(MetaCounterpartID)
	curStamp, _ := rec.Metadata(MetaLastSynced)
	curEtag, _ := rec.Metadata(MetaEtag)
	if curID == counterpartID && curStamp == stamp && curEtag == etag {
		return false
	}

	rec.SetMetadata(MetaCounterpartID, counterpartID)
	rec.SetMetadata(MetaLastSynced, stamp)
	rec.SetMetadata(MetaEtag, etag)
	return true
}

func (MetadataIdentity) LastSyncedAt(rec record.Record) (time.Time, bool) {
	v, ok := rec.Metadata(MetaLastSynced)
	if !ok || v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(watermarkLayout, v)
	if err != nil {
		// A corrupt watermark is treated as never synced; the next
		// successful write rewrites it.
		return time.Time{}, false
	}
	return t, true
}

func (MetadataIdentity) LastEtag(rec record.Record) (string, bool) {
	v, ok := rec.Metadata(MetaEtag)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (MetadataIdentity) ClearCounterpart(rec record.Record) {
	rec.SetMetadata(MetaCounterpartID, "")
	rec.SetMetadata(MetaLastSynced, "")
	rec.SetMetadata(MetaEtag, "")
}

// TruncateMinute drops seconds and sub-second precision.
func TruncateMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
