package enforcement

import (
	"time"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// RunState tracks the one-shot and escalating flags for the current block.
// It is one value object constructed fresh on block change, so there is no
// scattered set of booleans to forget to reset.
//
// Most fields are scoped to the current off-target run (a contiguous streak
// of off-target observations); the per-block sets and the grayscale trigger
// survive until the block changes.
type RunState struct {
	// Per-run flags, cleared on return to on-target.
	NudgeShownForRun bool
	LastNudgeAt      float64 // counter value when the last nudge fired
	RedirectFired    bool    // deep work one-shot, re-armed by decay

	// Per-block escalation trackers.
	InterventionCount  int
	LastInterventionAt float64 // counter value at the last intervention
	GrayscaleTriggered bool

	// RedirectedTargets holds targets already redirected this block
	// (deep work): revisiting one redirects instantly.
	RedirectedTargets map[domain.TargetKey]struct{}

	// WarnedTargets holds native-app targets that already received their
	// grace-period warning this block: revisits get a shorter grace.
	WarnedTargets map[domain.TargetKey]struct{}

	// LastOffTargetEnd is when the user last returned to on-target content;
	// it drives the graduated grayscale recovery model.
	LastOffTargetEnd time.Time

	// LastOffTargetKey is the target of the current/most recent run. Deep
	// work resets the nudge flag when the off-target target changes.
	LastOffTargetKey domain.TargetKey
}

// NewRunState returns an empty run state for a freshly started block.
func NewRunState() *RunState {
	return &RunState{
		RedirectedTargets: make(map[domain.TargetKey]struct{}),
		WarnedTargets:     make(map[domain.TargetKey]struct{}),
	}
}

// EndRun records a return to on-target content at the given instant and
// clears the per-run flags. Per-block state (intervention escalation,
// grayscale trigger, warned/redirected sets) is kept.
func (s *RunState) EndRun(now time.Time) {
	s.NudgeShownForRun = false
	s.LastNudgeAt = 0
	s.RedirectFired = false
	s.LastOffTargetEnd = now
	s.LastOffTargetKey = ""
}

// NoteOffTarget records the target of the current run. For deep work, a
// switch to a different off-target target starts a fresh per-target nudge
// cycle within the same run.
func (s *RunState) NoteOffTarget(kind domain.BlockKind, key domain.TargetKey) {
	if kind == domain.BlockDeepWork && s.LastOffTargetKey != "" && s.LastOffTargetKey != key {
		s.NudgeShownForRun = false
	}
	s.LastOffTargetKey = key
}

// RearmBelow clears decay-re-armable one-shots whose threshold the counter
// has dropped back under. Crossed warning state is deliberately not
// un-crossed here; only the redirect re-arms.
func (s *RunState) RearmBelow(counterSeconds, redirectThreshold float64) {
	if redirectThreshold > 0 && counterSeconds < redirectThreshold {
		s.RedirectFired = false
	}
}
