// Package record defines the store-neutral model for calendar events and
// contacts, plus the uniform metadata bag both store adapters expose.
//
// Records are read fresh from the adapters on every run; the only state that
// survives a run is the cross-reference metadata written by the reconcile
// engine (counterpart id, last-synced watermark, etag).
package record
