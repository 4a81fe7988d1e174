package enforcement

import (
	"time"

	"github.com/ameerry1998/intentional-macos-app-sub000/internal/domain"
)

// SuppressionRegistry holds enforcement exemptions: time-boxed per-target
// approvals from accepted justifications, permanent-for-block session
// overrides (focus hours), and the global unplanned-time snooze.
//
// Expiry is lazy: entries are checked at observation time, never swept.
type SuppressionRegistry struct {
	perTarget        map[domain.TargetKey]time.Time
	sessionOverrides map[domain.TargetKey]struct{}
	globalSnoozeEnd  time.Time
}

// NewSuppressionRegistry returns an empty registry.
func NewSuppressionRegistry() *SuppressionRegistry {
	return &SuppressionRegistry{
		perTarget:        make(map[domain.TargetKey]time.Time),
		sessionOverrides: make(map[domain.TargetKey]struct{}),
	}
}

// Approve exempts a target until now+duration. While suppressed, its
// observations are a full no-op: the counter is not advanced.
func (s *SuppressionRegistry) Approve(key domain.TargetKey, duration time.Duration, now time.Time) {
	s.perTarget[key] = now.Add(duration)
}

// SessionOverride exempts a target for the remainder of the block.
// Only focus hours grants these; deep work stays with time-boxed approvals.
func (s *SuppressionRegistry) SessionOverride(key domain.TargetKey) {
	s.sessionOverrides[key] = struct{}{}
}

// SnoozeGlobal suppresses all unplanned-time enforcement until now+duration.
func (s *SuppressionRegistry) SnoozeGlobal(duration time.Duration, now time.Time) {
	s.globalSnoozeEnd = now.Add(duration)
}

// IsSuppressed reports whether enforcement for the target is exempt right now.
func (s *SuppressionRegistry) IsSuppressed(key domain.TargetKey, now time.Time) bool {
	if _, ok := s.sessionOverrides[key]; ok {
		return true
	}
	if expiry, ok := s.perTarget[key]; ok {
		if now.Before(expiry) {
			return true
		}
		delete(s.perTarget, key)
	}
	return false
}

// SnoozeActive reports whether the global unplanned-time snooze is in effect.
func (s *SuppressionRegistry) SnoozeActive(now time.Time) bool {
	return now.Before(s.globalSnoozeEnd)
}

// ClearBlockScoped drops all per-block entries on block change. The global
// snooze is a daily allowance, not block state, and survives.
func (s *SuppressionRegistry) ClearBlockScoped() {
	s.perTarget = make(map[domain.TargetKey]time.Time)
	s.sessionOverrides = make(map[domain.TargetKey]struct{})
}
