//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/config"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/daemon"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/enforcement"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/infra"
)

// TestDaemonLoop_EndToEnd drives the real loop: a schedule file covering the
// whole day, a frontmost.json pointing at a social tab, and the heuristic
// scorer. The engine must pick up the block, mark the tab off-target and
// start accruing.
func TestDaemonLoop_EndToEnd(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "intentiond-integration-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	schedulePath := filepath.Join(tmpDir, "schedule.yaml")
	scheduleYAML := `
blocks:
  - id: all-day
    title: Write the parser
    kind: deep_work
    start: "00:00"
    end: "23:59"
`
	if err := os.WriteFile(schedulePath, []byte(scheduleYAML), 0644); err != nil {
		t.Fatal(err)
	}
	schedule, err := infra.LoadSchedule(schedulePath)
	if err != nil {
		t.Fatalf("failed to load schedule: %v", err)
	}

	frontmost := `{"key":"reddit.com","display_name":"r/aww","kind":"tab","url":"https://reddit.com/r/aww"}`
	if err := os.WriteFile(filepath.Join(tmpDir, "frontmost.json"), []byte(frontmost), 0644); err != nil {
		t.Fatal(err)
	}

	key, err := infra.EnsureKey(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	store, err := infra.NewHistoryStore(tmpDir, key)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := config.Default()
	scorer := infra.NewHeuristicScorer(cfg.AlwaysAllowed, cfg.SocialHosts, cfg.Distracting, store, nil)
	presenter := &recordingPresenter{}
	engine := enforcement.NewEngine(cfg, presenter, scorer, store, zap.NewNop())
	observer := infra.NewFileTargetObserver(tmpDir)

	pollerCfg := daemon.PollerConfig{
		PollInterval:          10 * time.Millisecond,
		ScheduleCheckInterval: 10 * time.Millisecond,
	}
	poller := daemon.NewPoller(pollerCfg, engine, observer, schedule, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := engine.State()
		if s.BlockID == "all-day" && s.OffTarget && s.CounterSeconds > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	s := engine.State()
	if s.BlockID != "all-day" {
		t.Fatalf("expected block all-day, got %q", s.BlockID)
	}
	if !s.OffTarget {
		t.Error("expected the social tab to be off-target")
	}
	if s.CounterSeconds <= 0 {
		t.Errorf("expected counter accrual, got %v", s.CounterSeconds)
	}
	if presenter.nudgeCount() == 0 && presenter.blockPageCount() == 0 {
		t.Error("expected at least one enforcement action")
	}

	rows, err := store.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		t.Fatal("expected persisted assessments")
	}
	if got := fmt.Sprint(rows[0].TargetKey); got != "reddit.com" {
		t.Errorf("unexpected target key %q", got)
	}
}
