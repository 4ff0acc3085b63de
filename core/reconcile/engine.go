package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pim-sync/core/record"
)

// Etagger is implemented by adapters whose store exposes an opaque change
// tag. The engine records it alongside the watermark as a supplementary
// modification check.
type Etagger interface {
	Etag(rec record.Record) string
}

// Engine drives a full reconciliation run over two store adapters.
type Engine struct {
	local    StoreAdapter
	remote   StoreAdapter
	identity IdentityStore
	resolver Resolver
	opts     Options
	log      *zap.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewEngine wires the engine. resolver may be nil, in which case conflicts
// are skipped and deletions kept.
func NewEngine(local, remote StoreAdapter, identity IdentityStore, resolver Resolver, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if resolver == nil {
		resolver = PolicyResolver{Conflict: ResolutionSkip, Delete: KeepLocal}
	}
	return &Engine{
		local:    local,
		remote:   remote,
		identity: identity,
		resolver: resolver,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Run enumerates both stores, matches the record sets and reconciles every
// match. It returns the run summary; the summary is non-nil even when the
// run was cancelled partway.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	start := e.now()

	locals, err := e.local.Enumerate(ctx, e.opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", e.local.Name(), err)
	}
	remotes, err := e.remote.Enumerate(ctx, e.opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", e.remote.Name(), err)
	}

	matcher := NewMatcher(e.identity, e.remote, e.opts.Scope, e.log)
	matches, stats, err := matcher.Match(ctx, locals, remotes)
	if err != nil {
		return nil, err
	}

	run := newRunContext(stats)
	run.summary.Matched = stats.MatchedByID + stats.MatchedByProp

	for _, m := range matches {
		err := e.reconcileMatch(ctx, run, m)
		if errors.Is(err, ErrRunCancelled) {
			run.summary.Cancelled = true
			run.summary.Duration = e.now().Sub(start)
			return &run.summary, err
		}
		if err != nil {
			if IsConnectivity(err) {
				run.summary.Duration = e.now().Sub(start)
				return &run.summary, err
			}
			// Per-record failures do not stop the run.
			e.log.Error("match failed", zap.String("match", m.Label()), zap.Error(err))
			run.recordError(err)
		}
	}

	run.summary.Duration = e.now().Sub(start)
	e.log.Info("reconciliation complete",
		zap.Int("matched", run.summary.Matched),
		zap.Int("skipped", run.summary.Skipped),
		zap.Int("created_local", run.summary.CreatedLocal),
		zap.Int("created_remote", run.summary.CreatedRemote),
		zap.Int("updated_local", run.summary.UpdatedLocal),
		zap.Int("updated_remote", run.summary.UpdatedRemote),
		zap.Int("deleted_local", run.summary.DeletedLocal),
		zap.Int("deleted_remote", run.summary.DeletedRemote),
		zap.Int("conflicts", run.summary.Conflicts),
		zap.Duration("duration", run.summary.Duration))
	return &run.summary, nil
}

// reconcileMatch classifies the match into one of three cases and
// dispatches. Native handles are released once the match is settled.
func (e *Engine) reconcileMatch(ctx context.Context, run *runContext, m *Match) error {
	defer func() {
		if m.Local != nil {
			e.local.ReleaseHandle(m.Local)
		}
		if m.Remote != nil {
			e.remote.ReleaseHandle(m.Remote)
		}
	}()

	if m.Local != nil && !m.ByID && len(m.RemoteCandidates) > 1 {
		handled, err := e.resolveDuplicate(ctx, run, m)
		if err != nil || handled {
			return err
		}
	}
	e.foldExceptions(m)

	switch {
	case m.Remote == nil:
		return e.remoteMissing(ctx, run, m)
	case m.Local == nil:
		return e.localMissing(ctx, run, m)
	default:
		return e.bothPresent(ctx, run, m)
	}
}

// resolveDuplicate settles a property match with several equally valid
// remote candidates. The choice is never made silently: the candidates are
// logged and the resolver picks. handled is true when the match needs no
// further reconciliation.
func (e *Engine) resolveDuplicate(ctx context.Context, run *runContext, m *Match) (bool, error) {
	labels := make([]string, 0, len(m.RemoteCandidates))
	for _, c := range m.RemoteCandidates {
		labels = append(labels, c.Label())
	}
	e.log.Warn("multiple remote candidates",
		zap.String("record", m.Local.Label()),
		zap.Strings("candidates", labels))

	res, chosen, err := e.resolver.ResolveDuplicate(ctx, m.Local, m.RemoteCandidates)
	if err != nil {
		return false, err
	}
	switch res.base() {
	case ResolutionCancel:
		return false, ErrRunCancelled
	case ResolutionSkip:
		run.summary.Skipped++
		return true, nil
	}
	if chosen != nil {
		m.Remote = chosen
	}
	return false, nil
}

// remoteMissing handles a local record without a remote counterpart.
func (e *Engine) remoteMissing(ctx context.Context, run *runContext, m *Match) error {
	// The matcher enumerates a bounded window; an item can still exist
	// out of window. Re-fetch by counterpart id before concluding deletion.
	counterpartID, hasCounterpart := e.identity.CounterpartID(m.Local)
	if hasCounterpart {
		remote, err := e.remote.FetchByID(ctx, counterpartID)
		if err != nil {
			return err
		}
		if remote != nil && !remote.Cancelled() {
			m.Remote = remote
			return e.bothPresent(ctx, run, m)
		}
	}

	switch e.opts.Mode {
	case OneWayLocalToRemote:
		return e.createRemote(ctx, run, m.Local)
	case OneWayRemoteToLocal:
		run.summary.Skipped++
		return nil
	}

	if !hasCounterpart {
		// Never synced: the record is simply new on this side.
		return e.createRemote(ctx, run, m.Local)
	}

	// A counterpart id exists, so the remote side deleted the record.
	if !e.opts.SyncDeletes {
		run.summary.Skipped++
		return nil
	}

	res, err := e.deleteResolution(ctx, run, m.Local, &run.deleteLocal, DeleteLocal)
	if err != nil {
		return err
	}
	switch res {
	case DeleteCancel:
		return ErrRunCancelled
	case DeleteLocal:
		if m.Local.Participants() > 1 {
			// Shared copy: only the organizer's record is authoritative,
			// so refuse the delete and keep the local record.
			e.log.Warn("refusing to delete record with multiple participants",
				zap.String("record", m.Local.Label()))
			run.summary.Skipped++
			return nil
		}
		e.log.Info("deleting local record removed remotely",
			zap.String("record", m.Local.Label()))
		if err := e.local.Delete(ctx, m.Local); err != nil {
			return fmt.Errorf("deleting %s: %w", m.Local.Label(), err)
		}
		run.summary.DeletedLocal++
		return nil
	default: // KeepLocal and anything orthogonal.
		// Clearing the counterpart id makes the record look new on the
		// next run, so it is recreated remotely only if still wanted.
		e.identity.ClearCounterpart(m.Local)
		if err := e.local.WriteMetadata(ctx, m.Local); err != nil {
			return err
		}
		run.summary.Skipped++
		return nil
	}
}

// localMissing mirrors remoteMissing with the sides swapped.
func (e *Engine) localMissing(ctx context.Context, run *runContext, m *Match) error {
	counterpartID, hasCounterpart := e.identity.CounterpartID(m.Remote)
	if hasCounterpart {
		local, err := e.local.FetchByID(ctx, counterpartID)
		if err != nil {
			return err
		}
		if local != nil && !local.Cancelled() {
			m.Local = local
			return e.bothPresent(ctx, run, m)
		}
	}

	switch e.opts.Mode {
	case OneWayRemoteToLocal:
		return e.createLocal(ctx, run, m.Remote)
	case OneWayLocalToRemote:
		run.summary.Skipped++
		return nil
	}

	if !hasCounterpart {
		return e.createLocal(ctx, run, m.Remote)
	}

	if !e.opts.SyncDeletes {
		run.summary.Skipped++
		return nil
	}

	res, err := e.deleteResolution(ctx, run, m.Remote, &run.deleteRemote, DeleteRemote)
	if err != nil {
		return err
	}
	switch res {
	case DeleteCancel:
		return ErrRunCancelled
	case DeleteRemote:
		// No participant guard on this side: removing the remote copy does
		// not cancel the meeting for the other attendees.
		e.log.Info("deleting remote record removed locally",
			zap.String("record", m.Remote.Label()))
		if err := e.remote.Delete(ctx, m.Remote); err != nil {
			return fmt.Errorf("deleting %s: %w", m.Remote.Label(), err)
		}
		run.summary.DeletedRemote++
		return nil
	default:
		e.identity.ClearCounterpart(m.Remote)
		if err := e.remote.WriteMetadata(ctx, m.Remote); err != nil {
			return err
		}
		run.summary.Skipped++
		return nil
	}
}

// deleteResolution decides the fate of the surviving record of a deletion
// conflict, using the run's sticky policy, the automatic single-participant
// rule, or the resolver.
func (e *Engine) deleteResolution(ctx context.Context, run *runContext, surviving record.Record, cache **DeleteResolution, auto DeleteResolution) (DeleteResolution, error) {
	if *cache != nil {
		return (*cache).base(), nil
	}
	if !e.opts.PromptOnDelete && surviving.Participants() <= 1 {
		return auto, nil
	}
	res, err := e.resolver.ResolveDelete(ctx, surviving)
	if err != nil {
		return DeleteCancel, err
	}
	if res.sticky() {
		base := res.base()
		*cache = &base
	}
	return res.base(), nil
}

// bothPresent reconciles a matched pair using the last-synced watermark.
func (e *Engine) bothPresent(ctx context.Context, run *runContext, m *Match) error {
	lastSynced, synced := e.identity.LastSyncedAt(m.Local)
	if !synced {
		return e.mergeNew(ctx, run, m)
	}

	tol := e.opts.tolerance()
	localChanged := UpdatedSince(e.effectiveLocalModified(m), lastSynced, tol)
	remoteChanged := UpdatedSince(e.effectiveRemoteModified(ctx, m), lastSynced, tol)

	// One-way modes force the fixed direction even when only the other
	// side changed.
	switch e.opts.Mode {
	case OneWayLocalToRemote:
		if localChanged || remoteChanged {
			return e.updateRemote(ctx, run, m)
		}
		return nil
	case OneWayRemoteToLocal:
		if localChanged || remoteChanged {
			return e.updateLocal(ctx, run, m)
		}
		return nil
	}

	switch {
	case localChanged && remoteChanged:
		return e.mergeConflict(ctx, run, m)
	case localChanged:
		return e.updateRemote(ctx, run, m)
	case remoteChanged:
		return e.updateLocal(ctx, run, m)
	default:
		return nil
	}
}

// mergeNew handles a pair matched for the first time, before any watermark
// exists.
func (e *Engine) mergeNew(ctx context.Context, run *runContext, m *Match) error {
	switch e.opts.Mode {
	case TwoWayLocalWins, OneWayLocalToRemote:
		return e.updateRemote(ctx, run, m)
	case TwoWayRemoteWins, OneWayRemoteToLocal:
		return e.updateLocal(ctx, run, m)
	}
	return e.promptConflict(ctx, run, m, true)
}

// mergeConflict handles both sides changed since the last sync.
func (e *Engine) mergeConflict(ctx context.Context, run *runContext, m *Match) error {
	run.summary.Conflicts++
	switch e.opts.Mode {
	case TwoWayLocalWins:
		return e.updateRemote(ctx, run, m)
	case TwoWayRemoteWins:
		return e.updateLocal(ctx, run, m)
	}
	if m.Local.Participants() > 1 {
		// Group-invitation items: only the organizer's copy is
		// authoritative, never prompt for them.
		e.log.Info("conflict on shared record, local side wins",
			zap.String("record", m.Local.Label()))
		return e.updateRemote(ctx, run, m)
	}
	return e.promptConflict(ctx, run, m, false)
}

// promptConflict consults the run-sticky policy, then the resolver.
func (e *Engine) promptConflict(ctx context.Context, run *runContext, m *Match, isNew bool) error {
	var res Resolution
	if run.conflict != nil {
		res = *run.conflict
	} else {
		var err error
		res, err = e.resolver.Resolve(ctx, m, isNew)
		if err != nil {
			return err
		}
		if res.sticky() {
			base := res.base()
			run.conflict = &base
		}
	}

	switch res.base() {
	case ResolutionCancel:
		return ErrRunCancelled
	case ResolutionLocalWins:
		return e.updateRemote(ctx, run, m)
	case ResolutionRemoteWins:
		return e.updateLocal(ctx, run, m)
	default:
		// Skip keeps both sides untouched; without a watermark they stay
		// two independent matches on the next run.
		e.log.Info("conflict skipped", zap.String("record", m.Label()))
		run.summary.Skipped++
		return nil
	}
}

// effectiveLocalModified folds recurrence exceptions into the local
// record's modified time: a deleted exception inside the window, or a live
// exception instance modified after the parent, bumps the effective time.
func (e *Engine) effectiveLocalModified(m *Match) time.Time {
	mod := e.local.LastModified(m.Local)
	ev, ok := m.Local.(*record.Event)
	if !ok || !ev.Recurring() {
		return mod
	}
	for _, ex := range ev.Exceptions {
		if !e.opts.Scope.Contains(ex.OriginalStart) {
			continue
		}
		if ex.Deleted {
			return e.now()
		}
		if ex.Instance != nil && ex.Instance.Updated.After(mod) {
			mod = ex.Instance.Updated
		}
	}
	return mod
}

// effectiveRemoteModified folds the remote exception sub-events attached by
// the matcher into the remote record's modified time. An exception without
// an update timestamp (seen for cancelled occurrences) is resolved through
// the corresponding local occurrence; when that occurrence is missing or
// itself cancelled, the exception counts as just updated so the
// cancellation gets reconciled.
func (e *Engine) effectiveRemoteModified(ctx context.Context, m *Match) time.Time {
	mod := e.remote.LastModified(m.Remote)
	for _, ex := range m.Exceptions {
		if !e.opts.Scope.Contains(ex.OriginalStart) && !e.opts.Scope.Contains(ex.Start) {
			continue
		}
		if !ex.Updated.IsZero() {
			if ex.Updated.After(mod) {
				mod = ex.Updated
			}
			continue
		}
		if e.localOccurrenceGone(m, ex) {
			return e.now()
		}
	}
	return mod
}

// foldExceptions embeds the separately enumerated remote occurrence
// records into the remote parent's exception list, so occurrence edits
// travel with the parent through the update and create paths.
func (e *Engine) foldExceptions(m *Match) {
	if len(m.Exceptions) == 0 {
		return
	}
	parent, ok := m.Remote.(*record.Event)
	if !ok {
		return
	}
	for _, ex := range m.Exceptions {
		at := ex.OriginalStart
		if at.IsZero() {
			at = ex.Start
		}
		folded := record.Exception{OriginalStart: at, Deleted: ex.Cancelled()}
		if !folded.Deleted {
			folded.Instance = ex
		}
		parent.SetException(folded)
	}
}

// localOccurrenceGone reports whether the local parent has no live
// occurrence for the remote exception's original date.
func (e *Engine) localOccurrenceGone(m *Match, ex *record.Event) bool {
	parent, ok := m.Local.(*record.Event)
	if !ok {
		return true
	}
	at := ex.OriginalStart
	if at.IsZero() {
		at = ex.Start
	}
	local, found := parent.ExceptionAt(at)
	if !found {
		// No recorded exception means the occurrence is an unmodified live
		// instance of the series, which is present.
		return false
	}
	return local.Deleted
}

// createRemote creates a remote record from the local one, then writes the
// cross-reference on both sides.
func (e *Engine) createRemote(ctx context.Context, run *runContext, local record.Record) error {
	e.log.Info("creating remote record", zap.String("record", local.Label()))
	created, err := e.remote.Create(ctx, local)
	if err != nil {
		return fmt.Errorf("creating remote %s: %w", local.Label(), err)
	}
	defer e.remote.ReleaseHandle(created)
	run.summary.CreatedRemote++
	return e.writeCrossReference(ctx, local, created)
}

// createLocal mirrors createRemote.
func (e *Engine) createLocal(ctx context.Context, run *runContext, remote record.Record) error {
	e.log.Info("creating local record", zap.String("record", remote.Label()))
	created, err := e.local.Create(ctx, remote)
	if err != nil {
		return fmt.Errorf("creating local %s: %w", remote.Label(), err)
	}
	defer e.local.ReleaseHandle(created)
	run.summary.CreatedLocal++
	return e.writeCrossReference(ctx, created, remote)
}

// updateRemote overwrites the remote record from the local one.
func (e *Engine) updateRemote(ctx context.Context, run *runContext, m *Match) error {
	e.log.Info("updating remote record", zap.String("record", m.Local.Label()))
	if err := e.remote.Update(ctx, m.Remote, m.Local); err != nil {
		return fmt.Errorf("updating remote %s: %w", m.Remote.Label(), err)
	}
	run.summary.UpdatedRemote++
	return e.writeCrossReference(ctx, m.Local, m.Remote)
}

// updateLocal overwrites the local record from the remote one.
func (e *Engine) updateLocal(ctx context.Context, run *runContext, m *Match) error {
	e.log.Info("updating local record", zap.String("record", m.Remote.Label()))
	if err := e.local.Update(ctx, m.Local, m.Remote); err != nil {
		return fmt.Errorf("updating local %s: %w", m.Local.Label(), err)
	}
	run.summary.UpdatedLocal++
	return e.writeCrossReference(ctx, m.Local, m.Remote)
}

// writeCrossReference stores the counterpart id, minute-truncated watermark
// and etag on both records after a successful write. This is what makes a
// decision idempotent across runs.
func (e *Engine) writeCrossReference(ctx context.Context, local, remote record.Record) error {
	now := e.now()
	var etag string
	if tagger, ok := e.remote.(Etagger); ok {
		etag = tagger.Etag(remote)
	}

	if e.identity.SetCounterpart(local, remote.ID(), etag, now) {
		if err := e.local.WriteMetadata(ctx, local); err != nil {
			return fmt.Errorf("writing local cross-reference: %w", err)
		}
	}
	if e.identity.SetCounterpart(remote, local.ID(), etag, now) {
		if err := e.remote.WriteMetadata(ctx, remote); err != nil {
			return fmt.Errorf("writing remote cross-reference: %w", err)
		}
	}
	return nil
}
