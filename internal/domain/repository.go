package domain

import (
	"context"
	"time"
)

// Presenter receives one-way display commands from the enforcement engine.
// Implementations must be idempotent: the reconciler may repeat a command
// that is already in effect.
type Presenter interface {
	// ShowNudge displays a dismissible nudge card.
	ShowNudge(cmd NudgeCommand)

	// DismissNudge removes any visible nudge.
	DismissNudge()

	// ShowOverlay displays the full blocking overlay.
	ShowOverlay(cmd OverlayCommand)

	// DismissOverlay removes any visible overlay.
	DismissOverlay()

	// ShowIntervention displays the time-gated intervention screen.
	ShowIntervention(cmd InterventionCommand)

	// SetGrayscale turns the desaturation effect on or off.
	// Intensity is 0.0..1.0 and only meaningful when active.
	SetGrayscale(active bool, intensity float64)

	// SetTimerIndicator marks the floating timer pill as distracted or not.
	SetTimerIndicator(distracted bool)

	// RedirectToURL navigates the active browser tab.
	RedirectToURL(url string)

	// RedirectToBlockPage navigates the active tab to the built-in block page.
	RedirectToBlockPage(reason string)
}

// RelevanceScorer decides whether a target matches the block's intention.
// Score may take a slow round trip; callers must staleness-check the result
// against the current frontmost target before applying it.
type RelevanceScorer interface {
	// Score evaluates the target against the intention text.
	Score(ctx context.Context, target Target, intention string) (Verdict, error)

	// ApproveTitle durably whitelists a page title for an intention, so
	// future polls score it relevant without a round trip.
	ApproveTitle(title, intention string) error
}

// TargetObserver supplies the current frontmost target.
// Implementation: gopsutil-based process observer, or an OS window adapter.
type TargetObserver interface {
	// Frontmost returns the current foreground target, or nil when it
	// cannot be determined (treated as a neutral tick, never an error).
	Frontmost() (*Target, error)
}

// Schedule supplies the time block that is current at a given instant.
type Schedule interface {
	// CurrentBlock returns the active block, or nil for unplanned time.
	CurrentBlock(now time.Time) *TimeBlock
}

// AssessmentStore persists scoring history.
// Implementation: SQLCipher encrypted SQLite database.
type AssessmentStore interface {
	// Append records one assessment.
	Append(a Assessment) error

	// Recent returns the newest assessments, most recent first.
	Recent(limit int) ([]Assessment, error)

	// Close releases the underlying database.
	Close() error
}
