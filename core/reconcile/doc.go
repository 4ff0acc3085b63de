// Package reconcile pairs records from two independently edited stores and
// drives them to a merged, eventually consistent state.
//
// The package consists of four main components:
//
//  1. Matcher: pairs local and remote records into Match values, first by
//     stable cross-reference id, then by property similarity, and finally
//     buckets the orphans of either side.
//
//  2. Engine: classifies each Match (remote missing, local missing, both
//     present), consults the identity store's last-synced watermark, and
//     dispatches creates, updates and deletes against the store adapters.
//
//  3. IdentityStore: maps a record to its counterpart's native id on the
//     other side, plus the last-synced timestamp and etag. The default
//     implementation stores all three in the record's metadata bag, so
//     persistence is delegated entirely to the adapters.
//
//  4. Resolver: invoked when both sides changed since the last sync or a
//     record disappeared on one side. The interactive implementation lives
//     outside this package; PolicyResolver answers from a fixed strategy.
//
// A run is single threaded: one pass over all records, resolver callbacks
// block until answered, and each Match's write is committed independently
// (a Cancel resolution aborts the rest of the run without rollback). The
// engine holds no lock across stores; external edits between read and write
// are caught by the next run's watermark comparison.
package reconcile
