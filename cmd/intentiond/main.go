// Package main is the CLI entry point for intentiond.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/config"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/daemon"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/enforcement"
	"github.com/ameerry1998/intentional-macos-app-sub000/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

var (
	configPath   string
	schedulePath string
	jsonOutput   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "intentiond",
	Short: "Focus enforcement daemon - keeps you on your declared intention",
	Long: `intentiond watches what you have frontmost, scores it against the
intention of your current time block, and escalates interventions
(nudges, grayscale, redirects, blocking overlays) when you drift.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enforcement daemon in the foreground",
	RunE:  runDaemon,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent assessment history",
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")
	runCmd.Flags().StringVar(&schedulePath, "schedule", defaultSchedulePath(), "Path to day plan YAML")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".intentional", "config.yaml")
}

func defaultSchedulePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".intentional", "schedule.yaml")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := createLogger(cfg.LogPath)
	defer func() { _ = logger.Sync() }()

	schedule, err := infra.LoadSchedule(schedulePath)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	key, err := infra.EnsureKey(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to set up store key: %w", err)
	}
	store, err := infra.NewHistoryStore(cfg.DataDir, key)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	scorer := infra.NewHeuristicScorer(cfg.AlwaysAllowed, cfg.SocialHosts, cfg.Distracting, store, nil)

	presenter := infra.NewNotifyPresenter(logger)
	defer presenter.Close()

	engine := enforcement.NewEngine(cfg, presenter, scorer, store, logger)

	observer := infra.NewChainTargetObserver(
		infra.NewFileTargetObserver(cfg.DataDir),
		infra.NewProcessTargetObserver(cfg.Distracting),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	poller := daemon.NewPoller(
		daemon.DefaultPollerConfig(cfg.PollIntervalSeconds),
		engine,
		observer,
		schedule,
		logger,
	)

	err = poller.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	key, err := infra.EnsureKey(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to read store key: %w", err)
	}
	store, err := infra.NewHistoryStore(cfg.DataDir, key)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	assessments, err := store.Recent(20)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	fmt.Println("\n=== Recent Assessments ===")
	if len(assessments) == 0 {
		fmt.Println("No assessments recorded yet.")
	}
	for _, a := range assessments {
		verdict := "off-target"
		if a.Relevant {
			verdict = "on-target"
		}
		fmt.Printf("%s  %-10s  %s (%s)  counter=%.0fs\n",
			a.AssessedAt.Format("15:04:05"), verdict, a.DisplayName, a.TargetKey, a.CounterSeconds)
	}
	fmt.Println("==========================")
	return nil
}

func createLogger(logPath string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logPath, "stdout"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("intentiond %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
