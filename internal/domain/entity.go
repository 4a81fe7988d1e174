// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// BlockKind selects which enforcement table applies to a time block.
type BlockKind string

const (
	BlockDeepWork   BlockKind = "deep_work"
	BlockFocusHours BlockKind = "focus_hours"
	BlockFreeTime   BlockKind = "free_time"
)

// Enforced reports whether this block kind is subject to enforcement at all.
// Free time never enters the enforcement engine.
func (k BlockKind) Enforced() bool {
	return k == BlockDeepWork || k == BlockFocusHours
}

// TimeBlock is a scheduled interval with a declared intention.
// Supplied by the schedule collaborator; read-only to the engine.
type TimeBlock struct {
	ID          string
	Title       string
	Description string
	Kind        BlockKind
	StartMinute int // minutes since midnight
	EndMinute   int
}

// Intention is the text the relevance scorer matches content against.
// Falls back to the title when no description was written.
func (b *TimeBlock) Intention() string {
	if b.Description != "" {
		return b.Description
	}
	return b.Title
}

// TargetKey is the stable identity of a focusable thing: a bundle/app
// identifier for native apps, or a hostname for browser tabs.
type TargetKey string

// TargetClass distinguishes native apps from browser tabs.
// Tabs go through the cumulative threshold tables; native apps and
// unplanned time go through the grace scheduler.
type TargetClass int

const (
	TargetTab TargetClass = iota
	TargetApp
)

// Target identifies what the user currently has frontmost.
type Target struct {
	Key         TargetKey
	DisplayName string
	Class       TargetClass
	URL         string // tabs only; last known URL for redirects
}

// Verdict is a relevance decision for a target against an intention.
type Verdict struct {
	Relevant   bool
	Confidence int
	Reason     string
}

// Assessment is one persisted row of scoring history.
type Assessment struct {
	TargetKey      TargetKey
	DisplayName    string
	BlockID        string
	Relevant       bool
	Confidence     int
	Reason         string
	CounterSeconds float64
	AssessedAt     time.Time
}

// BlockPhase is the engine's lifecycle state for the current block.
// One explicit enum instead of a cross-product of booleans.
type BlockPhase int

const (
	// PhaseIdle: no enforced block is current (free time or unplanned).
	PhaseIdle BlockPhase = iota
	// PhaseActive: an enforced block is current and observations are processed.
	PhaseActive
)

func (p BlockPhase) String() string {
	if p == PhaseActive {
		return "active"
	}
	return "idle"
}

// NudgeCommand tells the presentation layer to show a nudge card.
type NudgeCommand struct {
	Intention          string
	DisplayName        string
	Escalated          bool // level-2 persistent nudge
	DistractionMinutes int
	Warning            string // e.g. "Intervention in 60s"
}

// OverlayCommand tells the presentation layer to show the blocking overlay.
type OverlayCommand struct {
	Intention            string
	Reason               string
	FocusDurationMinutes int
	NoPlan               bool
}

// InterventionCommand tells the presentation layer to show the full-screen
// mandatory-engagement intervention.
type InterventionCommand struct {
	Intention          string
	DisplayName        string
	DistractionMinutes int
	DurationSeconds    int
}
