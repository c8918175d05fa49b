package domain

import "time"

// StaleReason says why a target has to be rebuilt.
type StaleReason string

const (
	// ReasonUpToDate is the reason of a target that does not need a rebuild.
	ReasonUpToDate StaleReason = ""
	// ReasonOutputMissing means the output file does not exist.
	ReasonOutputMissing StaleReason = "output missing"
	// ReasonNoRecord means the store has no record of a previous successful build.
	ReasonNoRecord StaleReason = "never built"
	// ReasonInputChanged means an input's signature differs from the recorded one.
	ReasonInputChanged StaleReason = "input changed"
	// ReasonInputAdded means an input is not part of the recorded build.
	ReasonInputAdded StaleReason = "input added"
	// ReasonInputRebuilt means an input target was rebuilt earlier in this run.
	ReasonInputRebuilt StaleReason = "input rebuilt"
)

// Staleness is the verdict of the staleness check for one target.
type Staleness struct {
	Stale  bool
	Reason StaleReason
	// Path is the file the reason refers to, if any.
	Path string
}

// RunReport summarises one scheduler run.
type RunReport struct {
	Total      int
	Dispatched []string
	UpToDate   int
	Failed     string
	DryRun     bool
	Elapsed    time.Duration
	Warnings   []string
}
