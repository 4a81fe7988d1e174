package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10.0, cfg.PollIntervalSeconds)
	assert.Equal(t, 0.5, cfg.DecayRatio)
	assert.Equal(t, 20.0, cfg.DeepWork.Redirect)
	assert.Equal(t, 30.0, cfg.FocusHours.Grayscale)
	assert.Equal(t, 240.0, cfg.FocusHours.Warning)
	assert.Equal(t, 5.0, cfg.Grace.UnplannedSeconds)
	assert.Equal(t, 180.0, cfg.Grayscale.ResetWindowSeconds)
	assert.Contains(t, cfg.SocialHosts, "reddit.com")
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().PollIntervalSeconds, cfg.PollIntervalSeconds)
}

func TestLoad_OverridesOnTopOfDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
poll_interval_seconds: 5
deep_work:
  nudge: 15
  redirect: 45
social_hosts:
  - news.ycombinator.com
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.PollIntervalSeconds)
	assert.Equal(t, 15.0, cfg.DeepWork.Nudge)
	assert.Equal(t, 45.0, cfg.DeepWork.Redirect)
	assert.Equal(t, []string{"news.ycombinator.com"}, cfg.SocialHosts)
	// Untouched sections keep their defaults.
	assert.Equal(t, 0.5, cfg.DecayRatio)
	assert.Equal(t, 300.0, cfg.FocusHours.Intervention)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval_seconds: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.PollIntervalSeconds = 0 }},
		{"negative decay ratio", func(c *Config) { c.DecayRatio = -0.1 }},
		{"grayscale windows inverted", func(c *Config) { c.Grayscale.ResetWindowSeconds = 30 }},
		{"intervention max below base", func(c *Config) { c.Intervention.MaxSeconds = 10 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
