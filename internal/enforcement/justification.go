package enforcement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// SubmitJustification starts the justification-escalation protocol for the
// current off-target content: the relevance scorer is re-invoked with the
// block's intention augmented by the user's free-text justification, and the
// outcome is applied asymmetrically per block kind.
//
// The nudge is dismissed immediately. If the re-score never resolves, the
// nudge simply stays dismissed; the next poll re-evaluates relevance anyway.
func (e *Engine) SubmitJustification(text string) {
	e.mu.Lock()

	if e.nudgeVisible {
		e.presenter.DismissNudge()
		e.nudgeVisible = false
	}

	// Absence of a scorer or a block after the user already triggered the
	// escalation flow fails closed: that is a rejection, not a shrug.
	if e.block == nil || e.scorer == nil || e.frontmost == nil {
		e.log.Warn("justification with no scorer or block, rejecting")
		e.rejectLocked()
		e.mu.Unlock()
		return
	}

	target := *e.frontmost
	block := e.block
	scorer := e.scorer
	e.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), scoreTimeout)
		defer cancel()

		augmented := block.Intention() + "\nUser justification: " + text
		verdict, err := scorer.Score(ctx, target, augmented)
		e.resolveJustification(target, block.ID, verdict, err)
	}()
}

// resolveJustification applies an async re-score result. Stale results
// (block changed, or the target is no longer frontmost) are discarded.
func (e *Engine) resolveJustification(target domain.Target, blockID string, verdict domain.Verdict, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.block == nil || e.block.ID != blockID {
		e.log.Debug("discarding stale justification result", zap.String("target", string(target.Key)))
		return
	}
	if e.frontmost == nil || e.frontmost.Key != target.Key {
		e.log.Debug("discarding stale justification result", zap.String("target", string(target.Key)))
		return
	}

	if err != nil || !verdict.Relevant {
		e.log.Info("justification rejected",
			zap.String("target", string(target.Key)),
			zap.String("reason", verdict.Reason),
			zap.Error(err))
		e.rejectLocked()
		return
	}

	now := e.now()
	switch e.block.Kind {
	case domain.BlockDeepWork:
		// Deep work never fully trusts a justification: a short time-boxed
		// approval, no durable whitelist.
		d := time.Duration(e.cfg.Suppression.DeepWorkApprovalSeconds * float64(time.Second))
		e.suppression.Approve(target.Key, d, now)

	case domain.BlockFocusHours:
		e.suppression.SessionOverride(target.Key)
		if err := e.scorer.ApproveTitle(target.DisplayName, e.block.Intention()); err != nil {
			e.log.Warn("failed to whitelist approved title", zap.Error(err))
		}
	}

	e.log.Info("justification accepted",
		zap.String("target", string(target.Key)),
		zap.String("kind", string(e.block.Kind)))

	// Clear the distraction state immediately rather than waiting a poll.
	e.offTarget = false
	e.run.EndRun(now)
	e.setGrayscale(false, 0)
	e.setTimerIndicator(false)
	e.reconcile()
}

// rejectLocked escalates a rejected justification. Deep work gets the full
// blocking overlay with no grace; focus hours gets the persistent level-2
// nudge carrying the current off-target minute count.
func (e *Engine) rejectLocked() {
	if e.block != nil && e.block.Kind == domain.BlockFocusHours {
		displayName := ""
		if e.frontmost != nil {
			displayName = e.frontmost.DisplayName
		}
		e.presenter.ShowNudge(domain.NudgeCommand{
			Intention:          e.block.Intention(),
			DisplayName:        displayName,
			Escalated:          true,
			DistractionMinutes: e.counter.Minutes(),
		})
		e.nudgeVisible = true
		e.run.NudgeShownForRun = true
		e.run.LastNudgeAt = e.counter.Seconds()
		return
	}

	cmd := domain.OverlayCommand{Reason: "Justification rejected"}
	if e.block != nil {
		cmd.Intention = e.block.Intention()
		cmd.FocusDurationMinutes = e.block.EndMinute - e.block.StartMinute
	} else {
		cmd.NoPlan = true
	}
	e.presenter.ShowOverlay(cmd)
	e.overlayVisible = true
}

// HandleNudgeDismissed records that the user (or the auto-dismiss timer)
// closed the nudge.
func (e *Engine) HandleNudgeDismissed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nudgeVisible = false
}

// HandleOverlayDismissed records that the blocking overlay was closed.
func (e *Engine) HandleOverlayDismissed() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlayVisible = false
}

// HandleInterventionComplete records that the user finished (or escaped)
// the full-screen intervention.
func (e *Engine) HandleInterventionComplete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interventionVisible = false
}

// HandleSnoozeRequested consumes the user's single daily snooze, suppressing
// all unplanned-time enforcement for the configured window. Returns false if
// a block is active (snooze is unplanned-time only) or the snooze is spent.
func (e *Engine) HandleSnoozeRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.block != nil {
		return false
	}
	now := e.now()
	day := now.Format("2006-01-02")
	if e.snoozeUsedDay == day {
		e.log.Info("snooze already used today")
		return false
	}

	e.snoozeUsedDay = day
	d := time.Duration(e.cfg.Suppression.SnoozeSeconds * float64(time.Second))
	e.suppression.SnoozeGlobal(d, now)
	e.grace.CancelAll()
	if e.overlayVisible {
		e.presenter.DismissOverlay()
		e.overlayVisible = false
	}
	e.log.Info("global snooze granted", zap.Duration("duration", d))
	return true
}

// HandleBackToWork handles the user's "back to work" click: visuals are
// dismissed and the tab is pointed back at the last known relevant URL.
func (e *Engine) HandleBackToWork() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.nudgeVisible {
		e.presenter.DismissNudge()
		e.nudgeVisible = false
	}
	if e.overlayVisible {
		e.presenter.DismissOverlay()
		e.overlayVisible = false
	}
	if e.lastRelevantURL != "" {
		e.presenter.RedirectToURL(e.lastRelevantURL)
	}
}
