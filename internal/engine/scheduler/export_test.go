package scheduler

import (
	"maps"

	"go.trai.ch/bake/internal/core/domain"
)

// StatusSnapshot returns a copy of the per-target status of the last run.
// This is exported for testing purposes only.
func (s *Scheduler) StatusSnapshot() map[string]domain.TargetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.status)
}
