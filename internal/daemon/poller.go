// Package daemon implements the ticker-driven enforcement loop.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/enforcement"
)

// PollerConfig holds the loop cadences.
type PollerConfig struct {
	PollInterval          time.Duration // observation cadence (reference: 10s)
	ScheduleCheckInterval time.Duration // block-transition detection
}

// DefaultPollerConfig returns the reference cadences.
func DefaultPollerConfig(pollSeconds float64) PollerConfig {
	return PollerConfig{
		PollInterval:          time.Duration(pollSeconds * float64(time.Second)),
		ScheduleCheckInterval: 15 * time.Second,
	}
}

// Poller drives the enforcement engine: each poll reads the frontmost
// target, records it for staleness checking, and dispatches a scoring task
// whose result re-enters the engine through the guarded observation path.
// A second ticker watches the schedule for block transitions.
type Poller struct {
	config   PollerConfig
	engine   *enforcement.Engine
	observer domain.TargetObserver
	schedule domain.Schedule
	logger   *zap.Logger

	currentBlockID string
	started        bool
}

// NewPoller creates the enforcement loop.
func NewPoller(config PollerConfig, engine *enforcement.Engine, observer domain.TargetObserver, schedule domain.Schedule, logger *zap.Logger) *Poller {
	return &Poller{
		config:   config,
		engine:   engine,
		observer: observer,
		schedule: schedule,
		logger:   logger,
	}
}

// Run blocks until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("enforcement loop started",
		zap.Duration("poll_interval", p.config.PollInterval))

	// Pick up the current block immediately rather than waiting a tick.
	p.checkSchedule()

	pollTicker := time.NewTicker(p.config.PollInterval)
	scheduleTicker := time.NewTicker(p.config.ScheduleCheckInterval)
	defer func() {
		pollTicker.Stop()
		scheduleTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("enforcement loop stopping")
			return ctx.Err()

		case <-pollTicker.C:
			p.poll(ctx)

		case <-scheduleTicker.C:
			p.checkSchedule()
		}
	}
}

// poll runs one observation cycle.
func (p *Poller) poll(ctx context.Context) {
	target, err := p.observer.Frontmost()
	if err != nil || target == nil {
		// Unreadable frontmost state is a neutral tick, never an
		// escalation trigger.
		p.engine.HandleTick()
		return
	}

	p.engine.SetFrontmost(target)

	// Scoring may be slow; it runs off-loop and its result is
	// staleness-checked by the engine on arrival.
	t := *target
	go p.engine.ScoreAndObserve(ctx, t)
}

// checkSchedule switches the engine's block when the schedule moves on.
func (p *Poller) checkSchedule() {
	block := p.schedule.CurrentBlock(time.Now())

	id := ""
	if block != nil {
		id = block.ID
	}
	if p.started && id == p.currentBlockID {
		return
	}

	p.started = true
	p.currentBlockID = id
	p.engine.SetBlock(block)
}
