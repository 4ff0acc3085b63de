// Package remotestore adapts an S3-compatible object store to the
// reconcile StoreAdapter contract. Each record is one JSON object under
// records/<kind>/<id>.json; the cross-reference travels inside the object
// so no side channel is needed.
package remotestore
