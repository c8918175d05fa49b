package domain

// TargetStatus is the per-run lifecycle state of a target.
type TargetStatus string

const (
	// StatusPending means the target still waits on at least one gate.
	StatusPending TargetStatus = "pending"
	// StatusReady means every gate retired but the queue is full, so the target waits for a later scan.
	StatusReady TargetStatus = "ready"
	// StatusQueued means the target was stale and handed to a worker.
	StatusQueued TargetStatus = "queued"
	// StatusExecuting means an action for the target is running.
	StatusExecuting TargetStatus = "executing"
	// StatusDone means the action succeeded and the target retired.
	StatusDone TargetStatus = "done"
	// StatusUpToDate means the target retired without running its action.
	StatusUpToDate TargetStatus = "up-to-date"
	// StatusFailed means the action reported failure.
	StatusFailed TargetStatus = "failed"
)

// IsTerminal reports whether the status can no longer change within a run.
func (s TargetStatus) IsTerminal() bool {
	switch s {
	case StatusDone, StatusUpToDate, StatusFailed:
		return true
	default:
		return false
	}
}
