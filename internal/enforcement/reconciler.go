package enforcement

import (
	"time"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/config"
)

// GrayscaleModel computes the graduated-recovery intensity for grayscale
// re-triggering, as a pure function of time spent back on-target.
type GrayscaleModel struct {
	cfg config.Grayscale
}

// NewGrayscaleModel creates a model with the given recovery windows.
func NewGrayscaleModel(cfg config.Grayscale) *GrayscaleModel {
	return &GrayscaleModel{cfg: cfg}
}

// Intensity returns the re-trigger intensity for the given recovery time
// (time since the last return to on-target content):
//
//   - under the full window: 1.0, so rapid tab-flipping never earns a
//     fresh fade-in;
//   - between the windows: linear falloff from 1.0 to 0.0;
//   - at or past the reset window: 0.0, and FullyRecovered reports true.
func (m *GrayscaleModel) Intensity(recovery time.Duration) float64 {
	full := time.Duration(m.cfg.FullWindowSeconds * float64(time.Second))
	reset := time.Duration(m.cfg.ResetWindowSeconds * float64(time.Second))

	switch {
	case recovery < full:
		return 1.0
	case recovery >= reset:
		return 0.0
	default:
		span := reset - full
		return 1.0 - float64(recovery-full)/float64(span)
	}
}

// FullyRecovered reports whether the recovery window has elapsed, which
// clears the per-block grayscale trigger entirely: the next excursion
// starts fresh, threshold wait included.
func (m *GrayscaleModel) FullyRecovered(recovery time.Duration) bool {
	return recovery >= time.Duration(m.cfg.ResetWindowSeconds*float64(time.Second))
}

// GrayscaleState is the engine's view of what the visual effect should be.
type GrayscaleState struct {
	InWorkBlock        bool
	GrayscaleTriggered bool
	CurrentlyOffTarget bool
}

// ShouldBeGray is the single reconciliation predicate: the effect should be
// active exactly when all three conditions hold. Every poll tick and target
// switch re-evaluates this and corrects the presentation layer, so visual
// state self-heals after races instead of depending on each code path to
// tear it down.
func (s GrayscaleState) ShouldBeGray() bool {
	return s.InWorkBlock && s.GrayscaleTriggered && s.CurrentlyOffTarget
}
