package enforcement

import (
	"time"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/config"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// PendingGrace is the single in-flight grace period: a deadline plus the
// payload needed to fire the deferred action. Represented as data and
// evaluated by the driving clock rather than as a live timer.
type PendingGrace struct {
	Target    domain.Target
	Reason    string
	Revisit   bool
	Unplanned bool
	Deadline  time.Time
}

// GraceScheduler delays the first enforcement action for newly-seen
// off-target native apps and for unplanned time. At most one grace is
// pending: repeat observations of the same target coalesce into the
// original deadline, and a different target supersedes the pending one.
type GraceScheduler struct {
	cfg     config.Grace
	pending *PendingGrace
}

// NewGraceScheduler creates a scheduler with the given grace durations.
func NewGraceScheduler(cfg config.Grace) *GraceScheduler {
	return &GraceScheduler{cfg: cfg}
}

// duration picks the grace length, first match wins: unplanned time,
// deep work native app, revisit of an already-warned target, default.
func (g *GraceScheduler) duration(kind domain.BlockKind, revisit, unplanned bool) time.Duration {
	secs := g.cfg.DefaultSeconds
	switch {
	case unplanned:
		secs = g.cfg.UnplannedSeconds
	case kind == domain.BlockDeepWork:
		secs = g.cfg.DeepWorkAppSeconds
	case revisit:
		secs = g.cfg.RevisitSeconds
	}
	return time.Duration(secs * float64(time.Second))
}

// Start schedules a grace for the target. A grace already pending for the
// same target is left running (coalescing); one for a different target is
// cancelled and replaced.
func (g *GraceScheduler) Start(target domain.Target, kind domain.BlockKind, reason string, revisit, unplanned bool, now time.Time) {
	if g.pending != nil && g.pending.Target.Key == target.Key {
		return
	}
	g.pending = &PendingGrace{
		Target:    target,
		Reason:    reason,
		Revisit:   revisit,
		Unplanned: unplanned,
		Deadline:  now.Add(g.duration(kind, revisit, unplanned)),
	}
}

// Due returns the pending grace if its deadline has passed, clearing it.
func (g *GraceScheduler) Due(now time.Time) *PendingGrace {
	if g.pending == nil || now.Before(g.pending.Deadline) {
		return nil
	}
	fired := g.pending
	g.pending = nil
	return fired
}

// Pending returns the in-flight grace, or nil.
func (g *GraceScheduler) Pending() *PendingGrace {
	return g.pending
}

// CancelTarget drops the pending grace if it is for the given target.
// Called when that target is observed on-target again.
func (g *GraceScheduler) CancelTarget(key domain.TargetKey) {
	if g.pending != nil && g.pending.Target.Key == key {
		g.pending = nil
	}
}

// CancelAll drops any pending grace. Called on block change.
func (g *GraceScheduler) CancelAll() {
	g.pending = nil
}
