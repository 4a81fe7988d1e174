package enforcement

import (
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/config"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// ActionKind enumerates the enforcement actions a threshold table can fire.
type ActionKind int

const (
	ActionNudge ActionKind = iota
	ActionWarningNudge
	ActionPersistentNudge
	ActionGrayscale
	ActionRedirect
	ActionIntervention
)

func (k ActionKind) String() string {
	switch k {
	case ActionNudge:
		return "nudge"
	case ActionWarningNudge:
		return "warning_nudge"
	case ActionPersistentNudge:
		return "persistent_nudge"
	case ActionGrayscale:
		return "grayscale"
	case ActionRedirect:
		return "redirect"
	case ActionIntervention:
		return "intervention"
	default:
		return "unknown"
	}
}

// Action is one due enforcement action.
type Action struct {
	Kind            ActionKind
	DurationSeconds int    // interventions only
	Warning         string // warning nudges only
}

// EvalInput is the state snapshot a threshold table evaluates against.
type EvalInput struct {
	CounterSeconds float64
	Run            *RunState
	TargetKey      domain.TargetKey

	// Delegated: the target is an extension-delegated social host and a
	// companion extension is connected. Deep work withholds its own
	// popups for these; the counter and visual state still run.
	Delegated bool

	// Presentation state, so repeating actions don't stack widgets.
	NudgeVisible        bool
	InterventionVisible bool
}

// BlockPolicy is the per-block-kind threshold table. Evaluate is consulted
// once per observation tick and returns at most one newly-due action,
// highest threshold first, so a single tick can never double-escalate.
type BlockPolicy interface {
	Kind() domain.BlockKind
	Evaluate(in EvalInput) *Action
}

// NewPolicies builds the policy table set from configuration.
func NewPolicies(cfg *config.Config) map[domain.BlockKind]BlockPolicy {
	return map[domain.BlockKind]BlockPolicy{
		domain.BlockDeepWork:   &deepWorkPolicy{th: cfg.DeepWork, iv: cfg.Intervention},
		domain.BlockFocusHours: &focusHoursPolicy{th: cfg.FocusHours, iv: cfg.Intervention},
	}
}

// interventionDuration escalates with each repeat: base, base+step, ...
// capped at max. count is the number of interventions already shown.
func interventionDuration(iv config.Intervention, count int) int {
	d := iv.BaseSeconds + iv.StepSeconds*count
	if d > iv.MaxSeconds {
		d = iv.MaxSeconds
	}
	return d
}

// interventionDue: first at the intervention threshold, then every
// repeat-interval of additional accrual.
func interventionDue(counter, threshold, repeat float64, run *RunState) bool {
	if counter < threshold {
		return false
	}
	if run.InterventionCount == 0 {
		return true
	}
	return counter >= run.LastInterventionAt+repeat
}

// deepWorkPolicy is the strict table: nudge at 10s, auto-redirect plus
// grayscale at 20s (instant on revisit), intervention at 300s.
type deepWorkPolicy struct {
	th config.Thresholds
	iv config.Intervention
}

func (p *deepWorkPolicy) Kind() domain.BlockKind { return domain.BlockDeepWork }

func (p *deepWorkPolicy) Evaluate(in EvalInput) *Action {
	if in.Delegated {
		// Extension owns nudge/redirect/intervention for social hosts.
		// The grayscale side effect stays engine-owned and still fires at
		// the redirect threshold.
		if !in.Run.GrayscaleTriggered && in.CounterSeconds >= p.th.Redirect {
			return &Action{Kind: ActionGrayscale}
		}
		return nil
	}

	if interventionDue(in.CounterSeconds, p.th.Intervention, p.th.InterventionRepeat, in.Run) {
		return &Action{
			Kind:            ActionIntervention,
			DurationSeconds: interventionDuration(p.iv, in.Run.InterventionCount),
		}
	}

	_, revisit := in.Run.RedirectedTargets[in.TargetKey]
	if !in.Run.RedirectFired && (revisit || in.CounterSeconds >= p.th.Redirect) {
		return &Action{Kind: ActionRedirect}
	}

	if !in.Run.NudgeShownForRun && in.CounterSeconds >= p.th.Nudge {
		return &Action{Kind: ActionNudge}
	}

	return nil
}

// focusHoursPolicy is the graduated table: repeating level-1 nudges from
// 10s, grayscale at 30s, a warning at 240s, interventions from 300s with a
// persistent level-2 nudge between repeats. Focus hours keeps its own nudge
// escalation even for extension-delegated targets.
type focusHoursPolicy struct {
	th config.Thresholds
	iv config.Intervention
}

func (p *focusHoursPolicy) Kind() domain.BlockKind { return domain.BlockFocusHours }

func (p *focusHoursPolicy) Evaluate(in EvalInput) *Action {
	if interventionDue(in.CounterSeconds, p.th.Intervention, p.th.InterventionRepeat, in.Run) {
		return &Action{
			Kind:            ActionIntervention,
			DurationSeconds: interventionDuration(p.iv, in.Run.InterventionCount),
		}
	}

	// Past the intervention threshold but between repeats: keep the level-2
	// nudge on screen whenever nothing else is visible.
	if in.CounterSeconds >= p.th.Intervention && !in.NudgeVisible && !in.InterventionVisible {
		return &Action{Kind: ActionPersistentNudge}
	}

	if in.CounterSeconds >= p.th.Warning && in.Run.LastNudgeAt < p.th.Warning {
		return &Action{Kind: ActionWarningNudge, Warning: "Intervention in 60s"}
	}

	if !in.Run.GrayscaleTriggered && in.CounterSeconds >= p.th.Grayscale {
		return &Action{Kind: ActionGrayscale}
	}

	if in.CounterSeconds < p.th.Warning {
		first := !in.Run.NudgeShownForRun && in.CounterSeconds >= p.th.Nudge
		repeat := in.Run.NudgeShownForRun && in.CounterSeconds >= in.Run.LastNudgeAt+p.th.NudgeRepeat
		if first || repeat {
			return &Action{Kind: ActionNudge}
		}
	}

	return nil
}

var (
	_ BlockPolicy = (*deepWorkPolicy)(nil)
	_ BlockPolicy = (*focusHoursPolicy)(nil)
)
