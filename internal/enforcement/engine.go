package enforcement

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/config"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

const scoreTimeout = 30 * time.Second

// Engine is the enforcement state machine. All counter, run-state and
// suppression mutations happen under one lock, so observations, grace
// deadlines and justification results are serialized no matter which
// goroutine delivers them.
//
// Inbound calls never fail across the boundary: anomalies degrade to safe
// defaults and are logged. The worst case of any internal fault is
// under-enforcement, never wrongly blocking the user's work.
type Engine struct {
	mu sync.Mutex

	cfg       *config.Config
	log       *zap.Logger
	presenter domain.Presenter
	scorer    domain.RelevanceScorer // may be nil: fail-open for scoring, fail-closed for justification
	store     domain.AssessmentStore // may be nil

	now func() time.Time

	policies    map[domain.BlockKind]BlockPolicy
	grayModel   *GrayscaleModel
	socialHosts map[domain.TargetKey]struct{}

	block       *domain.TimeBlock
	phase       domain.BlockPhase
	counter     *Counter
	run         *RunState
	grace       *GraceScheduler
	suppression *SuppressionRegistry

	frontmost *domain.Target
	offTarget bool

	// Last-commanded presentation state, used for idempotent reconciliation.
	nudgeVisible        bool
	interventionVisible bool
	overlayVisible      bool
	grayOn              bool
	grayIntensity       float64
	timerDistracted     bool

	lastRelevantURL    string
	extensionConnected bool
	snoozeUsedDay      string // one global snooze per day for unplanned time
}

// NewEngine creates an engine. scorer and store are optional.
func NewEngine(cfg *config.Config, presenter domain.Presenter, scorer domain.RelevanceScorer, store domain.AssessmentStore, logger *zap.Logger) *Engine {
	social := make(map[domain.TargetKey]struct{}, len(cfg.SocialHosts))
	for _, h := range cfg.SocialHosts {
		social[domain.TargetKey(h)] = struct{}{}
	}
	return &Engine{
		cfg:         cfg,
		log:         logger,
		presenter:   presenter,
		scorer:      scorer,
		store:       store,
		now:         time.Now,
		policies:    NewPolicies(cfg),
		grayModel:   NewGrayscaleModel(cfg.Grayscale),
		socialHosts: social,
		counter:     NewCounter(cfg.DecayRatio),
		run:         NewRunState(),
		grace:       NewGraceScheduler(cfg.Grace),
		suppression: NewSuppressionRegistry(),
	}
}

// SetExtensionConnected records whether a companion browser extension is
// attached. While connected, deep work defers nudge/redirect/intervention
// for social hosts to the extension; the counter and visual state stay here.
func (e *Engine) SetExtensionConnected(connected bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extensionConnected = connected
}

// SetBlock switches the current time block. This is the single reset point:
// counter, run state, per-block suppression and pending graces are all
// cleared together, so nothing leaks across blocks.
func (e *Engine) SetBlock(block *domain.TimeBlock) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if block != nil && e.block != nil && block.ID == e.block.ID {
		e.block = block
		return
	}

	e.block = block
	e.counter.Reset()
	e.run = NewRunState()
	e.suppression.ClearBlockScoped()
	e.grace.CancelAll()
	e.offTarget = false
	e.lastRelevantURL = ""

	e.clearVisuals()

	if block != nil && block.Kind.Enforced() {
		e.phase = domain.PhaseActive
	} else {
		e.phase = domain.PhaseIdle
	}

	if block == nil {
		e.log.Info("block changed", zap.String("block", "none"), zap.String("phase", e.phase.String()))
	} else {
		e.log.Info("block changed",
			zap.String("block", block.ID),
			zap.String("kind", string(block.Kind)),
			zap.String("phase", e.phase.String()))
	}
}

// SetFrontmost records the current foreground target. A pending grace for
// a different target is cancelled; every async result arriving later is
// staleness-checked against this value.
func (e *Engine) SetFrontmost(target *domain.Target) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frontmost = target
	if p := e.grace.Pending(); p != nil && target != nil && p.Target.Key != target.Key {
		e.grace.CancelAll()
	}
	e.reconcile()
}

// HandleObservation applies one relevance verdict for a target. Results for
// a target that is no longer frontmost are discarded: this is the staleness
// guard that keeps slow scorer round trips from mutating state for the
// wrong target.
func (e *Engine) HandleObservation(target domain.Target, verdict domain.Verdict) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()

	if e.frontmost != nil && e.frontmost.Key != target.Key {
		e.log.Debug("discarding stale observation",
			zap.String("target", string(target.Key)),
			zap.String("frontmost", string(e.frontmost.Key)))
		return
	}
	if e.frontmost == nil {
		e.frontmost = &target
	}

	if e.block == nil {
		e.observeUnplanned(target, verdict, now)
		e.fireDueGrace(now)
		e.reconcile()
		return
	}
	if !e.block.Kind.Enforced() {
		return
	}

	if e.suppression.IsSuppressed(target.Key, now) {
		// Approved content is fully exempt: the counter does not advance.
		e.grace.CancelTarget(target.Key)
		if e.offTarget && e.run.LastOffTargetKey == target.Key {
			e.run.EndRun(now)
			e.offTarget = false
		}
		e.reconcile()
		return
	}

	if verdict.Relevant {
		e.observeOnTarget(target, now)
	} else {
		e.observeOffTarget(target, verdict, now)
	}

	e.recordAssessment(target, verdict, now)
	e.fireDueGrace(now)
	e.reconcile()
}

// HandleTick is the poll heartbeat for ticks that produced no usable
// observation (unreadable tab, no frontmost target). It never escalates:
// grace deadlines are evaluated and visual state is reconciled, nothing else.
func (e *Engine) HandleTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	e.fireDueGrace(now)
	e.reconcile()
}

func (e *Engine) observeOnTarget(target domain.Target, now time.Time) {
	e.grace.CancelTarget(target.Key)
	e.counter.Observe(true, e.cfg.PollIntervalSeconds)
	e.run.RearmBelow(e.counter.Seconds(), e.redirectThreshold())

	if target.URL != "" {
		e.lastRelevantURL = target.URL
	}

	if e.offTarget {
		e.offTarget = false
		e.run.EndRun(now)
		if e.nudgeVisible {
			e.presenter.DismissNudge()
			e.nudgeVisible = false
		}
	}
}

func (e *Engine) observeOffTarget(target domain.Target, verdict domain.Verdict, now time.Time) {
	wasOff := e.offTarget
	e.counter.Observe(false, e.cfg.PollIntervalSeconds)
	e.run.NoteOffTarget(e.block.Kind, target.Key)
	e.offTarget = true
	e.setTimerIndicator(true)

	// Entering a fresh run with grayscale already earned this block:
	// re-trigger instantly at graduated intensity, or start fully fresh
	// if the recovery window has elapsed.
	if !wasOff && e.run.GrayscaleTriggered && !e.run.LastOffTargetEnd.IsZero() {
		recovery := now.Sub(e.run.LastOffTargetEnd)
		if e.grayModel.FullyRecovered(recovery) {
			e.run.GrayscaleTriggered = false
		} else {
			e.setGrayscale(true, e.grayModel.Intensity(recovery))
		}
	}

	if target.Class == domain.TargetApp {
		// Native apps skip the cumulative table: one grace-delayed action.
		// While that action is still on screen, no new grace starts, so the
		// user is not re-warned every grace window.
		if !e.overlayVisible && !e.nudgeVisible {
			_, revisit := e.run.WarnedTargets[target.Key]
			e.grace.Start(target, e.block.Kind, verdict.Reason, revisit, false, now)
		}
		return
	}

	policy, ok := e.policies[e.block.Kind]
	if !ok {
		return
	}
	action := policy.Evaluate(EvalInput{
		CounterSeconds:      e.counter.Seconds(),
		Run:                 e.run,
		TargetKey:           target.Key,
		Delegated:           e.delegated(target),
		NudgeVisible:        e.nudgeVisible,
		InterventionVisible: e.interventionVisible,
	})
	if action != nil {
		e.apply(action, target, verdict, now)
	}
}

// observeUnplanned handles observations when no block is scheduled: a short
// grace, then the no-plan overlay, all suppressible by the global snooze.
// There is no block to attribute distraction to, so the counter stays put.
func (e *Engine) observeUnplanned(target domain.Target, verdict domain.Verdict, now time.Time) {
	if e.suppression.SnoozeActive(now) || e.overlayVisible {
		return
	}
	_, revisit := e.run.WarnedTargets[target.Key]
	e.grace.Start(target, "", verdict.Reason, revisit, true, now)
}

func (e *Engine) apply(action *Action, target domain.Target, verdict domain.Verdict, now time.Time) {
	e.log.Info("enforcement action",
		zap.String("action", action.Kind.String()),
		zap.String("target", string(target.Key)),
		zap.Float64("counter_seconds", e.counter.Seconds()))

	switch action.Kind {
	case ActionNudge:
		e.presenter.ShowNudge(domain.NudgeCommand{
			Intention:          e.block.Intention(),
			DisplayName:        target.DisplayName,
			DistractionMinutes: e.counter.Minutes(),
		})
		e.nudgeVisible = true
		e.run.NudgeShownForRun = true
		e.run.LastNudgeAt = e.counter.Seconds()

	case ActionWarningNudge:
		e.presenter.ShowNudge(domain.NudgeCommand{
			Intention:          e.block.Intention(),
			DisplayName:        target.DisplayName,
			DistractionMinutes: e.counter.Minutes(),
			Warning:            action.Warning,
		})
		e.nudgeVisible = true
		e.run.NudgeShownForRun = true
		e.run.LastNudgeAt = e.counter.Seconds()

	case ActionPersistentNudge:
		e.presenter.ShowNudge(domain.NudgeCommand{
			Intention:          e.block.Intention(),
			DisplayName:        target.DisplayName,
			Escalated:          true,
			DistractionMinutes: e.counter.Minutes(),
		})
		e.nudgeVisible = true
		e.run.NudgeShownForRun = true
		e.run.LastNudgeAt = e.counter.Seconds()

	case ActionGrayscale:
		e.run.GrayscaleTriggered = true
		e.setGrayscale(true, 1.0)

	case ActionRedirect:
		if e.lastRelevantURL != "" {
			e.presenter.RedirectToURL(e.lastRelevantURL)
		} else {
			e.presenter.RedirectToBlockPage(verdict.Reason)
		}
		e.run.RedirectedTargets[target.Key] = struct{}{}
		e.run.RedirectFired = true
		e.run.GrayscaleTriggered = true
		e.setGrayscale(true, 1.0)
		e.counter.Reset()

	case ActionIntervention:
		if e.nudgeVisible {
			e.presenter.DismissNudge()
			e.nudgeVisible = false
		}
		e.presenter.ShowIntervention(domain.InterventionCommand{
			Intention:          e.block.Intention(),
			DisplayName:        target.DisplayName,
			DistractionMinutes: e.counter.Minutes(),
			DurationSeconds:    action.DurationSeconds,
		})
		e.interventionVisible = true
		e.run.InterventionCount++
		e.run.LastInterventionAt = e.counter.Seconds()
	}
}

// fireDueGrace fires the pending grace once its deadline has passed.
// The handler re-checks current state: a target that got suppressed or is
// no longer frontmost fires nothing.
func (e *Engine) fireDueGrace(now time.Time) {
	fired := e.grace.Due(now)
	if fired == nil {
		return
	}
	key := fired.Target.Key
	if e.frontmost == nil || e.frontmost.Key != key {
		return
	}
	if !fired.Unplanned && e.suppression.IsSuppressed(key, now) {
		return
	}

	e.run.WarnedTargets[key] = struct{}{}
	e.offTarget = true

	reason := fired.Reason
	if reason == "" {
		reason = "Off-target application"
	}

	switch {
	case fired.Unplanned:
		e.presenter.ShowOverlay(domain.OverlayCommand{
			Reason: "No plan for this time",
			NoPlan: true,
		})
		e.overlayVisible = true

	case e.block != nil && e.block.Kind == domain.BlockDeepWork:
		e.presenter.ShowOverlay(domain.OverlayCommand{
			Intention:            e.block.Intention(),
			Reason:               reason,
			FocusDurationMinutes: e.block.EndMinute - e.block.StartMinute,
		})
		e.overlayVisible = true

	case e.block != nil:
		e.presenter.ShowNudge(domain.NudgeCommand{
			Intention:          e.block.Intention(),
			DisplayName:        fired.Target.DisplayName,
			DistractionMinutes: e.counter.Minutes(),
		})
		e.nudgeVisible = true
		e.run.NudgeShownForRun = true
		e.run.LastNudgeAt = e.counter.Seconds()
	}

	e.log.Info("grace expired",
		zap.String("target", string(key)),
		zap.Bool("revisit", fired.Revisit),
		zap.Bool("unplanned", fired.Unplanned))
}

// reconcile is the idempotent sync step run after every state change: it
// recomputes whether grayscale and the timer indicator should be active and
// corrects the presentation layer if they drifted, independent of which
// event triggered the check.
func (e *Engine) reconcile() {
	st := GrayscaleState{
		InWorkBlock:        e.block != nil && e.block.Kind.Enforced(),
		GrayscaleTriggered: e.run.GrayscaleTriggered,
		CurrentlyOffTarget: e.offTarget,
	}
	if e.grayOn && !st.ShouldBeGray() {
		e.setGrayscale(false, 0)
	}
	if e.timerDistracted && !e.offTarget {
		e.setTimerIndicator(false)
	}
}

func (e *Engine) setGrayscale(active bool, intensity float64) {
	if e.grayOn == active && e.grayIntensity == intensity {
		return
	}
	e.grayOn = active
	e.grayIntensity = intensity
	e.presenter.SetGrayscale(active, intensity)
}

func (e *Engine) setTimerIndicator(distracted bool) {
	if e.timerDistracted == distracted {
		return
	}
	e.timerDistracted = distracted
	e.presenter.SetTimerIndicator(distracted)
}

func (e *Engine) clearVisuals() {
	if e.nudgeVisible {
		e.presenter.DismissNudge()
		e.nudgeVisible = false
	}
	if e.overlayVisible {
		e.presenter.DismissOverlay()
		e.overlayVisible = false
	}
	e.interventionVisible = false
	e.setGrayscale(false, 0)
	e.setTimerIndicator(false)
}

func (e *Engine) delegated(target domain.Target) bool {
	if !e.extensionConnected || target.Class != domain.TargetTab {
		return false
	}
	_, ok := e.socialHosts[target.Key]
	return ok
}

func (e *Engine) redirectThreshold() float64 {
	if e.block != nil && e.block.Kind == domain.BlockDeepWork {
		return e.cfg.DeepWork.Redirect
	}
	return 0
}

func (e *Engine) recordAssessment(target domain.Target, verdict domain.Verdict, now time.Time) {
	if e.store == nil {
		return
	}
	blockID := ""
	if e.block != nil {
		blockID = e.block.ID
	}
	a := domain.Assessment{
		TargetKey:      target.Key,
		DisplayName:    target.DisplayName,
		BlockID:        blockID,
		Relevant:       verdict.Relevant,
		Confidence:     verdict.Confidence,
		Reason:         verdict.Reason,
		CounterSeconds: e.counter.Seconds(),
		AssessedAt:     now,
	}
	if err := e.store.Append(a); err != nil {
		e.log.Warn("failed to record assessment", zap.Error(err))
	}
}

// Snapshot is the engine state surfaced to the status command.
type Snapshot struct {
	BlockID            string
	BlockKind          domain.BlockKind
	Phase              domain.BlockPhase
	CounterSeconds     float64
	OffTarget          bool
	GrayscaleActive    bool
	InterventionCount  int
	ExtensionConnected bool
}

// State returns a copy of the externally-interesting engine state.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Phase:              e.phase,
		CounterSeconds:     e.counter.Seconds(),
		OffTarget:          e.offTarget,
		GrayscaleActive:    e.grayOn,
		InterventionCount:  e.run.InterventionCount,
		ExtensionConnected: e.extensionConnected,
	}
	if e.block != nil {
		s.BlockID = e.block.ID
		s.BlockKind = e.block.Kind
	}
	return s
}

// ScoreAndObserve runs the relevance scorer for the target and feeds the
// result back through the staleness-guarded observation path. Intended to be
// called on its own goroutine; the scorer round trip holds no engine state.
// A missing scorer or a scoring error fails open: the target is treated as
// relevant rather than punished for a transient failure.
func (e *Engine) ScoreAndObserve(ctx context.Context, target domain.Target) {
	e.mu.Lock()
	scorer := e.scorer
	block := e.block
	e.mu.Unlock()

	if block == nil || !block.Kind.Enforced() {
		e.HandleObservation(target, domain.Verdict{Relevant: true, Reason: "no enforced block"})
		return
	}
	if scorer == nil {
		e.HandleObservation(target, domain.Verdict{Relevant: true, Reason: "no scorer configured"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, scoreTimeout)
	defer cancel()

	verdict, err := scorer.Score(ctx, target, block.Intention())
	if err != nil {
		e.log.Warn("scoring failed, assuming relevant",
			zap.String("target", string(target.Key)),
			zap.Error(err))
		verdict = domain.Verdict{Relevant: true, Reason: "scoring unavailable"}
	}
	e.HandleObservation(target, verdict)
}
