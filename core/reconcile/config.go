package reconcile

import (
	"fmt"
	"time"

	"pim-sync/core/record"
)

// Config is the externally supplied sync configuration, bound from
// environment variables by core/config.
type Config struct {
	// Mode is the SyncOption string, see ParseSyncOption.
	Mode string `mapstructure:"mode" default:"two-way-prompt"`

	// SyncDeletes enables propagating deletions across sides.
	SyncDeletes bool `mapstructure:"sync_deletes" default:"true"`

	// PromptOnDelete routes every deletion conflict through the resolver.
	PromptOnDelete bool `mapstructure:"prompt_on_delete" default:"false"`

	// ToleranceSeconds is the clock-skew window for change detection.
	ToleranceSeconds int `mapstructure:"tolerance_seconds" default:"120"`

	// WindowDaysPast and WindowDaysFuture bound the event sync window
	// around the current day.
	WindowDaysPast   int `mapstructure:"window_days_past" default:"30"`
	WindowDaysFuture int `mapstructure:"window_days_future" default:"60"`

	// ConflictPolicy and DeletePolicy drive the non-interactive resolver.
	ConflictPolicy string `mapstructure:"conflict_policy" default:"skip"`
	DeletePolicy   string `mapstructure:"delete_policy" default:"keep-local"`
}

// Options converts the config into engine options for one record kind.
func (c Config) Options(kind record.Kind) (Options, error) {
	mode, err := ParseSyncOption(c.Mode)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Mode:           mode,
		SyncDeletes:    c.SyncDeletes,
		PromptOnDelete: c.PromptOnDelete,
		Tolerance:      time.Duration(c.ToleranceSeconds) * time.Second,
		Scope:          c.Window(kind),
	}, nil
}

// Window builds the enumeration scope for one record kind. Contacts carry
// no time window.
func (c Config) Window(kind record.Kind) Scope {
	scope := Scope{Kind: kind}
	if kind != record.KindEvent {
		return scope
	}
	now := time.Now()
	if c.WindowDaysPast > 0 {
		scope.From = now.AddDate(0, 0, -c.WindowDaysPast)
	}
	if c.WindowDaysFuture > 0 {
		scope.To = now.AddDate(0, 0, c.WindowDaysFuture)
	}
	return scope
}

// Policy builds the fixed-strategy resolver from the configured policies.
func (c Config) Policy() (PolicyResolver, error) {
	var p PolicyResolver
	switch Resolution(c.ConflictPolicy) {
	case ResolutionSkip, ResolutionSkipAlways, ResolutionLocalWins, ResolutionLocalAlways,
		ResolutionRemoteWins, ResolutionRemoteAlways:
		p.Conflict = Resolution(c.ConflictPolicy)
	default:
		return p, fmt.Errorf("unknown conflict policy %q", c.ConflictPolicy)
	}
	switch DeleteResolution(c.DeletePolicy) {
	case DeleteLocal, DeleteLocalAlways, DeleteRemote, DeleteRemoteAlways,
		KeepLocal, KeepLocalAlways, KeepRemote, KeepRemoteAlways:
		p.Delete = DeleteResolution(c.DeletePolicy)
	default:
		return p, fmt.Errorf("unknown delete policy %q", c.DeletePolicy)
	}
	return p, nil
}
