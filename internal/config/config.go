// Package config loads daemon configuration from YAML.
// Every tuned constant of the enforcement engine lives here so the
// reference values can be adjusted without a rebuild.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Thresholds holds the cumulative-counter thresholds for one block kind,
// in seconds of accrued distraction.
type Thresholds struct {
	Nudge              float64 `yaml:"nudge"`
	NudgeRepeat        float64 `yaml:"nudge_repeat"`  // focus hours: level-1 nudge cadence
	Grayscale          float64 `yaml:"grayscale"`     // focus hours only
	Redirect           float64 `yaml:"redirect"`      // deep work only
	Warning            float64 `yaml:"warning"`       // focus hours: "intervention in 60s"
	Intervention       float64 `yaml:"intervention"`
	InterventionRepeat float64 `yaml:"intervention_repeat"`
}

// Grace holds the delays before the first enforcement action on a
// newly-seen off-target target.
type Grace struct {
	UnplannedSeconds   float64 `yaml:"unplanned_seconds"`
	DeepWorkAppSeconds float64 `yaml:"deep_work_app_seconds"`
	RevisitSeconds     float64 `yaml:"revisit_seconds"`
	DefaultSeconds     float64 `yaml:"default_seconds"`
}

// Grayscale holds the graduated-recovery model constants.
type Grayscale struct {
	// FullWindowSeconds: returning off-target within this window re-triggers
	// at full intensity (anti-gaming).
	FullWindowSeconds float64 `yaml:"full_window_seconds"`
	// ResetWindowSeconds: staying on-target this long fully resets the
	// per-block grayscale trigger.
	ResetWindowSeconds float64 `yaml:"reset_window_seconds"`
}

// Intervention holds the escalating-duration model for the full-screen
// intervention.
type Intervention struct {
	BaseSeconds int `yaml:"base_seconds"`
	StepSeconds int `yaml:"step_seconds"`
	MaxSeconds  int `yaml:"max_seconds"`
}

// Suppression holds the post-justification exemption durations.
type Suppression struct {
	// DeepWorkApprovalSeconds: deep work never fully trusts a justification,
	// so approval is time-boxed rather than permanent.
	DeepWorkApprovalSeconds float64 `yaml:"deep_work_approval_seconds"`
	SnoozeSeconds           float64 `yaml:"snooze_seconds"`
}

// Config is the full daemon configuration.
type Config struct {
	DataDir             string  `yaml:"data_dir"`
	LogPath             string  `yaml:"log_path"`
	PollIntervalSeconds float64 `yaml:"poll_interval_seconds"`
	DecayRatio          float64 `yaml:"decay_ratio"`

	DeepWork   Thresholds `yaml:"deep_work"`
	FocusHours Thresholds `yaml:"focus_hours"`

	Grace        Grace        `yaml:"grace"`
	Grayscale    Grayscale    `yaml:"grayscale"`
	Intervention Intervention `yaml:"intervention"`
	Suppression  Suppression  `yaml:"suppression"`

	// AlwaysAllowed are target keys that are never scored (system utilities).
	AlwaysAllowed []string `yaml:"always_allowed"`
	// SocialHosts are the extension-delegated social-media hostnames.
	SocialHosts []string `yaml:"social_hosts"`
	// Distracting are user-configured always-irrelevant target keys.
	Distracting []string `yaml:"distracting"`
}

// Default returns the reference configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:             filepath.Join(home, ".intentional"),
		LogPath:             "/var/tmp/intentiond.log",
		PollIntervalSeconds: 10,
		DecayRatio:          0.5,
		DeepWork: Thresholds{
			Nudge:              10,
			Redirect:           20,
			Intervention:       300,
			InterventionRepeat: 300,
		},
		FocusHours: Thresholds{
			Nudge:              10,
			NudgeRepeat:        60,
			Grayscale:          30,
			Warning:            240,
			Intervention:       300,
			InterventionRepeat: 300,
		},
		Grace: Grace{
			UnplannedSeconds:   5,
			DeepWorkAppSeconds: 5,
			RevisitSeconds:     15,
			DefaultSeconds:     30,
		},
		Grayscale: Grayscale{
			FullWindowSeconds:  60,
			ResetWindowSeconds: 180,
		},
		Intervention: Intervention{
			BaseSeconds: 60,
			StepSeconds: 30,
			MaxSeconds:  120,
		},
		Suppression: Suppression{
			DeepWorkApprovalSeconds: 180,
			SnoozeSeconds:           900,
		},
		AlwaysAllowed: []string{
			"com.apple.finder",
			"com.apple.systempreferences",
			"com.apple.Terminal",
			"org.gnome.Terminal",
		},
		SocialHosts: []string{
			"facebook.com",
			"instagram.com",
			"twitter.com",
			"x.com",
			"tiktok.com",
			"reddit.com",
			"youtube.com",
		},
	}
}

// Load reads a YAML config file on top of the defaults.
// A missing file is not an error; defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot operate with.
func (c *Config) Validate() error {
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive, got %v", c.PollIntervalSeconds)
	}
	if c.DecayRatio < 0 {
		return fmt.Errorf("decay_ratio must be non-negative, got %v", c.DecayRatio)
	}
	if c.Grayscale.ResetWindowSeconds < c.Grayscale.FullWindowSeconds {
		return fmt.Errorf("grayscale reset_window_seconds (%v) must be >= full_window_seconds (%v)",
			c.Grayscale.ResetWindowSeconds, c.Grayscale.FullWindowSeconds)
	}
	if c.Intervention.BaseSeconds <= 0 || c.Intervention.MaxSeconds < c.Intervention.BaseSeconds {
		return fmt.Errorf("invalid intervention durations: base=%d max=%d",
			c.Intervention.BaseSeconds, c.Intervention.MaxSeconds)
	}
	return nil
}
