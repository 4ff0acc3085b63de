// Package server exposes the status API: run history, health, and a
// trigger endpoint for starting a reconciliation.
//
// The server never runs two reconciliations concurrently; a trigger while
// a run is in flight answers 409. The Config struct defines the HTTP port
// and the API key protecting the trigger endpoint.
package server
