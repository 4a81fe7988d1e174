package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// scheduleFile is the YAML day plan.
type scheduleFile struct {
	Blocks []scheduleBlock `yaml:"blocks"`
}

type scheduleBlock struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"` // deep_work | focus_hours | free_time
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
}

// FileSchedule implements domain.Schedule from a YAML day plan.
type FileSchedule struct {
	blocks []domain.TimeBlock
}

// LoadSchedule parses a day plan file.
func LoadSchedule(path string) (*FileSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}

	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}

	s := &FileSchedule{}
	for i, b := range f.Blocks {
		start, err := parseMinute(b.Start)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		end, err := parseMinute(b.End)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		if end <= start {
			return nil, fmt.Errorf("block %d: end %q must be after start %q", i, b.End, b.Start)
		}

		kind := domain.BlockKind(b.Kind)
		switch kind {
		case domain.BlockDeepWork, domain.BlockFocusHours, domain.BlockFreeTime:
		default:
			return nil, fmt.Errorf("block %d: unknown kind %q", i, b.Kind)
		}

		id := b.ID
		if id == "" {
			id = fmt.Sprintf("block-%d", i)
		}
		s.blocks = append(s.blocks, domain.TimeBlock{
			ID:          id,
			Title:       b.Title,
			Description: b.Description,
			Kind:        kind,
			StartMinute: start,
			EndMinute:   end,
		})
	}
	return s, nil
}

// parseMinute converts "HH:MM" to minutes since midnight.
func parseMinute(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CurrentBlock returns the block containing the given instant, or nil for
// unplanned time.
func (s *FileSchedule) CurrentBlock(now time.Time) *domain.TimeBlock {
	minute := now.Hour()*60 + now.Minute()
	for i := range s.blocks {
		b := &s.blocks[i]
		if minute >= b.StartMinute && minute < b.EndMinute {
			blk := *b
			return &blk
		}
	}
	return nil
}

var _ domain.Schedule = (*FileSchedule)(nil)
