// Package enforcement implements the distraction-tracking and enforcement
// state machine: the cumulative counter, per-block-kind threshold tables,
// run state, grace scheduling, suppression, and grayscale reconciliation.
package enforcement

// Counter is the cumulative distraction counter for the active block,
// in seconds. It accrues at the poll rate while off-target and decays at
// a fraction of that rate while on-target, so recovering costs more time
// than drifting.
type Counter struct {
	seconds    float64
	decayRatio float64
}

// NewCounter creates a counter with the given decay ratio (reference: 0.5).
func NewCounter(decayRatio float64) *Counter {
	return &Counter{decayRatio: decayRatio}
}

// Observe applies one poll observation. pollInterval is the poll cadence
// in seconds.
func (c *Counter) Observe(relevant bool, pollInterval float64) {
	if relevant {
		c.seconds -= pollInterval * c.decayRatio
		if c.seconds < 0 {
			c.seconds = 0
		}
		return
	}
	c.seconds += pollInterval
}

// Seconds returns the current counter value. Never negative.
func (c *Counter) Seconds() float64 {
	return c.seconds
}

// Minutes returns the counter rounded down to whole minutes, for display.
func (c *Counter) Minutes() int {
	return int(c.seconds / 60)
}

// Reset zeroes the counter. Called on block change and after a full tab
// redirect in deep work.
func (c *Counter) Reset() {
	c.seconds = 0
}
