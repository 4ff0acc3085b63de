package reconcile

import (
	"context"

	"pim-sync/core/record"
)

// Resolution is the answer to a both-sides-changed conflict. The Always
// variants additionally suppress further prompts for the rest of the run.
type Resolution string

const (
	ResolutionSkip         Resolution = "skip"
	ResolutionSkipAlways   Resolution = "skip-always"
	ResolutionLocalWins    Resolution = "local-wins"
	ResolutionLocalAlways  Resolution = "local-wins-always"
	ResolutionRemoteWins   Resolution = "remote-wins"
	ResolutionRemoteAlways Resolution = "remote-wins-always"
	ResolutionCancel       Resolution = "cancel"
)

// sticky reports whether the resolution applies to the rest of the run.
func (r Resolution) sticky() bool {
	switch r {
	case ResolutionSkipAlways, ResolutionLocalAlways, ResolutionRemoteAlways:
		return true
	}
	return false
}

// base strips the Always variant.
func (r Resolution) base() Resolution {
	switch r {
	case ResolutionSkipAlways:
		return ResolutionSkip
	case ResolutionLocalAlways:
		return ResolutionLocalWins
	case ResolutionRemoteAlways:
		return ResolutionRemoteWins
	}
	return r
}

// DeleteResolution is the answer to a deletion conflict: one side still has
// the record, the other deleted it since the last sync.
type DeleteResolution string

const (
	DeleteCancel       DeleteResolution = "cancel"
	DeleteLocal        DeleteResolution = "delete-local"
	DeleteLocalAlways  DeleteResolution = "delete-local-always"
	DeleteRemote       DeleteResolution = "delete-remote"
	DeleteRemoteAlways DeleteResolution = "delete-remote-always"
	KeepLocal          DeleteResolution = "keep-local"
	KeepLocalAlways    DeleteResolution = "keep-local-always"
	KeepRemote         DeleteResolution = "keep-remote"
	KeepRemoteAlways   DeleteResolution = "keep-remote-always"
)

func (r DeleteResolution) sticky() bool {
	switch r {
	case DeleteLocalAlways, DeleteRemoteAlways, KeepLocalAlways, KeepRemoteAlways:
		return true
	}
	return false
}

func (r DeleteResolution) base() DeleteResolution {
	switch r {
	case DeleteLocalAlways:
		return DeleteLocal
	case DeleteRemoteAlways:
		return DeleteRemote
	case KeepLocalAlways:
		return KeepLocal
	case KeepRemoteAlways:
		return KeepRemote
	}
	return r
}

// Resolver answers conflicts the engine cannot decide on its own. Calls are
// synchronous and block the run until answered; the interactive
// implementation is a UI concern outside this package.
type Resolver interface {
	// Resolve answers a both-sides-changed conflict. isNew is true when the
	// pair was matched by property similarity and has never been synced.
	Resolve(ctx context.Context, m *Match, isNew bool) (Resolution, error)

	// ResolveDuplicate picks one of several equally valid property-match
	// candidates for source. The chosen record may be nil together with a
	// Skip resolution.
	ResolveDuplicate(ctx context.Context, source record.Record, candidates []record.Record) (Resolution, record.Record, error)

	// ResolveDelete answers a deletion conflict. surviving is the record
	// still present on its side.
	ResolveDelete(ctx context.Context, surviving record.Record) (DeleteResolution, error)
}

// PolicyResolver answers every conflict from a fixed strategy, for
// non-interactive runs.
type PolicyResolver struct {
	// Conflict answers Resolve and ResolveDuplicate.
	Conflict Resolution
	// Delete answers ResolveDelete.
	Delete DeleteResolution
}

func (p PolicyResolver) Resolve(_ context.Context, _ *Match, _ bool) (Resolution, error) {
	if p.Conflict == "" {
		return ResolutionSkip, nil
	}
	return p.Conflict, nil
}

func (p PolicyResolver) ResolveDuplicate(_ context.Context, _ record.Record, candidates []record.Record) (Resolution, record.Record, error) {
	if p.Conflict == "" || p.Conflict == ResolutionSkip || p.Conflict == ResolutionSkipAlways {
		return ResolutionSkip, nil, nil
	}
	if len(candidates) == 0 {
		return p.Conflict, nil, nil
	}
	return p.Conflict, candidates[0], nil
}

func (p PolicyResolver) ResolveDelete(_ context.Context, _ record.Record) (DeleteResolution, error) {
	if p.Delete == "" {
		return KeepLocal, nil
	}
	return p.Delete, nil
}
