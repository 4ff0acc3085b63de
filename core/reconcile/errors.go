package reconcile

import (
	"errors"
	"fmt"
)

// ConnectivityError reports that a backing store is unreachable. It is
// fatal to the run: the engine aborts and surfaces it to the caller.
// Routine per-record misses must be returned as (nil, nil) by adapters,
// never as an error.
type ConnectivityError struct {
	Store string
	Err   error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("store %s unreachable: %v", e.Store, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// ErrRunCancelled is returned when a resolver answers Cancel. Writes already
// applied for earlier matches are not rolled back.
var ErrRunCancelled = errors.New("reconciliation cancelled by resolver")
