package reconcile

import "time"

// Summary is the run's user-visible output: counts of everything the engine
// skipped, created, updated and deleted, per side.
type Summary struct {
	LocalRecords  int `json:"local_records"`
	RemoteRecords int `json:"remote_records"`
	Matched       int `json:"matched"`
	Skipped       int `json:"skipped"`

	CreatedLocal  int `json:"created_local"`
	CreatedRemote int `json:"created_remote"`
	UpdatedLocal  int `json:"updated_local"`
	UpdatedRemote int `json:"updated_remote"`
	DeletedLocal  int `json:"deleted_local"`
	DeletedRemote int `json:"deleted_remote"`

	Conflicts int `json:"conflicts"`

	Errors []string `json:"errors,omitempty"`

	Cancelled bool          `json:"cancelled,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Writes returns the total number of mutations the run applied.
func (s *Summary) Writes() int {
	return s.CreatedLocal + s.CreatedRemote +
		s.UpdatedLocal + s.UpdatedRemote +
		s.DeletedLocal + s.DeletedRemote
}

// runContext carries run-scoped mutable state: the summary counters and the
// sticky "always" resolutions a resolver may hand back. It is passed by
// reference through the engine, never stored globally.
type runContext struct {
	summary Summary

	// Sticky resolutions for the remainder of the run.
	conflict     *Resolution
	deleteLocal  *DeleteResolution
	deleteRemote *DeleteResolution
}

func newRunContext(stats *MatchStats) *runContext {
	run := &runContext{}
	if stats != nil {
		run.summary.LocalRecords = stats.LocalRecords
		run.summary.RemoteRecords = stats.RemoteRecords
		run.summary.Skipped = stats.Skipped
	}
	return run
}

func (r *runContext) recordError(err error) {
	r.summary.Errors = append(r.summary.Errors, err.Error())
}
