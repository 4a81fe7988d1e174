package infra

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

const frontmostFileName = "frontmost.json"

// frontmostRecord is the wire shape the OS-side helper (window watcher or
// browser extension bridge) writes for the current foreground target.
type frontmostRecord struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"` // "tab" or "app"
	URL         string `json:"url,omitempty"`
}

// FileTargetObserver reads the current frontmost target from a JSON file
// maintained by the OS-side helper. This is the primary observation source;
// the helper itself (AppleScript, extension bridge) is outside this daemon.
type FileTargetObserver struct {
	path string
}

// NewFileTargetObserver creates an observer for the given data directory.
func NewFileTargetObserver(dataDir string) *FileTargetObserver {
	return &FileTargetObserver{path: filepath.Join(dataDir, frontmostFileName)}
}

// Frontmost returns the helper-reported target, or nil when the file is
// missing or unreadable. Read failures are a neutral tick, never an error
// that escalates enforcement.
func (o *FileTargetObserver) Frontmost() (*domain.Target, error) {
	data, err := os.ReadFile(o.path)
	if err != nil {
		return nil, nil
	}
	var rec frontmostRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil
	}
	if rec.Key == "" {
		return nil, nil
	}

	class := domain.TargetApp
	if rec.Kind == "tab" {
		class = domain.TargetTab
	}
	return &domain.Target{
		Key:         domain.TargetKey(rec.Key),
		DisplayName: rec.DisplayName,
		Class:       class,
		URL:         rec.URL,
	}, nil
}

// ProcessTargetObserver is the gopsutil fallback when no helper file exists:
// it scans running processes for watched app patterns and reports the first
// match as the foreground candidate. Coarse, but enough for native-app
// grace enforcement on a machine without the helper installed.
type ProcessTargetObserver struct {
	// watched maps a case-insensitive process-name pattern to a target.
	watched map[string]domain.Target
}

// NewProcessTargetObserver creates an observer watching the given target
// keys as process-name patterns.
func NewProcessTargetObserver(keys []string) *ProcessTargetObserver {
	watched := make(map[string]domain.Target, len(keys))
	for _, k := range keys {
		watched[strings.ToLower(k)] = domain.Target{
			Key:         domain.TargetKey(k),
			DisplayName: k,
			Class:       domain.TargetApp,
		}
	}
	return &ProcessTargetObserver{watched: watched}
}

// Frontmost scans running processes for a watched pattern.
func (o *ProcessTargetObserver) Frontmost() (*domain.Target, error) {
	if len(o.watched) == 0 {
		return nil, nil
	}

	procs, err := process.Processes()
	if err != nil {
		return nil, nil // unreadable process table: neutral tick
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // process may have exited
		}
		lower := strings.ToLower(name)
		for pattern, target := range o.watched {
			if strings.Contains(lower, pattern) {
				t := target
				return &t, nil
			}
		}
	}
	return nil, nil
}

// ChainTargetObserver tries observers in order, returning the first target.
type ChainTargetObserver struct {
	observers []domain.TargetObserver
}

// NewChainTargetObserver chains observers, first hit wins.
func NewChainTargetObserver(observers ...domain.TargetObserver) *ChainTargetObserver {
	return &ChainTargetObserver{observers: observers}
}

// Frontmost returns the first observer's non-nil target.
func (o *ChainTargetObserver) Frontmost() (*domain.Target, error) {
	for _, obs := range o.observers {
		t, err := obs.Frontmost()
		if err != nil {
			continue
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, nil
}

var (
	_ domain.TargetObserver = (*FileTargetObserver)(nil)
	_ domain.TargetObserver = (*ProcessTargetObserver)(nil)
	_ domain.TargetObserver = (*ChainTargetObserver)(nil)
)
