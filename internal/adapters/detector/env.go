// Package detector picks the output mode from the environment.
package detector

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputMode represents how build progress is rendered.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeLinear prints one line per started and finished target.
	ModeLinear
	// ModeQuiet prints only failures and the final report.
	ModeQuiet
	// ModeTUI shows an interactive view of the run.
	ModeTUI
)

// String returns the flag spelling of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeQuiet:
		return "quiet"
	case ModeTUI:
		return "tui"
	default:
		return "auto"
	}
}

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd)) //nolint:gosec // File descriptors fit in an int
}

// IsCI reports whether the CI environment variable marks a CI run.
func IsCI() bool {
	ci := strings.ToLower(os.Getenv("CI"))
	return ci == "true" || ci == "1"
}

// DetectEnvironment returns the recommended output mode based on the environment.
// CI logs get per-target lines, terminals the TUI, and output piped elsewhere stays quiet.
func DetectEnvironment() OutputMode {
	switch {
	case IsCI():
		return ModeLinear
	case IsTerminal(os.Stdout.Fd()):
		return ModeTUI
	default:
		return ModeQuiet
	}
}

// ResolveMode applies the user's --output flag to auto-detection.
// userFlag should be one of: "auto", "tui", "linear", "ci", "quiet", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "linear", "ci":
		return ModeLinear
	case "quiet":
		return ModeQuiet
	case "tui":
		return ModeTUI
	default:
		return autoDetected
	}
}
