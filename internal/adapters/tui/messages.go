package tui

import "time"

// MsgPlan announces the targets of a run.
type MsgPlan struct {
	Targets []string
}

// MsgTaskStart reports that an action began.
type MsgTaskStart struct {
	SpanID    string
	Name      string
	StartTime time.Time
}

// MsgTaskLog carries output of a running action.
type MsgTaskLog struct {
	SpanID string
	Data   []byte
}

// MsgTaskComplete reports that an action finished.
type MsgTaskComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}
