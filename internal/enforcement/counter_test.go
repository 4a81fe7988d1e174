package enforcement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCounter_AccruesOffTarget verifies off-target observations add the full
// poll interval.
func TestCounter_AccruesOffTarget(t *testing.T) {
	c := NewCounter(0.5)

	c.Observe(false, 10)
	c.Observe(false, 10)

	assert.Equal(t, 20.0, c.Seconds())
}

// TestCounter_DecaysAtHalfRate verifies recovery costs more time than
// drifting: decay runs at the configured ratio of the accrual rate.
func TestCounter_DecaysAtHalfRate(t *testing.T) {
	c := NewCounter(0.5)

	c.Observe(false, 10) // 10
	c.Observe(false, 10) // 20
	c.Observe(true, 10)  // 15
	c.Observe(true, 10)  // 10

	assert.Equal(t, 10.0, c.Seconds())
}

// TestCounter_NeverNegative verifies the counter clamps at zero for any
// observation sequence.
func TestCounter_NeverNegative(t *testing.T) {
	c := NewCounter(0.5)

	for i := 0; i < 100; i++ {
		c.Observe(true, 10)
		assert.GreaterOrEqual(t, c.Seconds(), 0.0)
	}

	c.Observe(false, 10)
	for i := 0; i < 100; i++ {
		c.Observe(true, 10)
		assert.GreaterOrEqual(t, c.Seconds(), 0.0)
	}
}

// TestCounter_Reset verifies reset zeroes the counter.
func TestCounter_Reset(t *testing.T) {
	c := NewCounter(0.5)
	c.Observe(false, 10)
	c.Observe(false, 10)

	c.Reset()

	assert.Equal(t, 0.0, c.Seconds())
}

// TestCounter_Minutes verifies whole-minute display rounding.
func TestCounter_Minutes(t *testing.T) {
	c := NewCounter(0.5)
	for i := 0; i < 13; i++ {
		c.Observe(false, 10)
	}

	assert.Equal(t, 2, c.Minutes()) // 130s
}
