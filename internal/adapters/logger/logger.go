// Package logger implements a logging adapter using log/slog.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/ui/style"
	"go.trai.ch/zerr"
)

// messager is an error that reports its own message without the chain.
type messager interface {
	Message() string
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	output   io.Writer
}

// New creates a Logger writing human-readable lines to stderr.
func New() ports.Logger {
	return &Logger{
		logger: slog.New(newHandler(os.Stderr, false)),
		output: os.Stderr,
	}
}

func newHandler(w io.Writer, jsonMode bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if jsonMode {
		return slog.NewJSONHandler(w, opts)
	}
	return newLineHandler(w, opts.Level.Level())
}

// SetOutput redirects the logger. A nil w restores stderr. The JSON setting is kept.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.logger = slog.New(newHandler(w, l.jsonMode))
}

// SetJSON switches between JSON and pretty logging on the current output.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.logger = slog.New(newHandler(l.output, enable))
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Error logs err with its cause chain. Metadata attached with zerr is shown
// next to the message it belongs to.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}

	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}

// errorEntry is one message of an error chain and the metadata attached to it.
type errorEntry struct {
	message  string
	metadata map[string]any
}

// collectErrorEntries flattens err into its messages, outermost first.
// Joined errors contribute each branch in order.
func collectErrorEntries(err error) []errorEntry {
	var entries []errorEntry
	pending := map[string]any{}

	var walk func(error)
	walk = func(current error) {
		for current != nil {
			if joined, ok := current.(interface{ Unwrap() []error }); ok {
				for _, branch := range joined.Unwrap() {
					walk(branch)
				}
				return
			}

			m, ok := current.(messager)
			if !ok {
				entries = append(entries, errorEntry{message: current.Error(), metadata: pending})
				pending = map[string]any{}
				return
			}

			if z, ok := current.(*zerr.Error); ok {
				for k, v := range z.Metadata() {
					pending[k] = v
				}
			}
			if m.Message() != "" {
				entries = append(entries, errorEntry{message: m.Message(), metadata: pending})
				pending = map[string]any{}
			}

			next, ok := current.(interface{ Unwrap() error })
			if !ok {
				break
			}
			current = next.Unwrap()
		}
	}
	walk(err)

	if len(pending) > 0 && len(entries) > 0 {
		last := &entries[len(entries)-1]
		for k, v := range pending {
			last.metadata[k] = v
		}
	}
	return entries
}

// formatErrorEntries renders entries as an "Error:" line followed by a "Caused by:" list.
func formatErrorEntries(entries []errorEntry) string {
	var lines []string
	for i, e := range entries {
		msgLines := strings.Split(e.message, "\n")
		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0]+inlineMetadata(e.metadata))
			for _, line := range msgLines[1:] {
				lines = append(lines, "       "+line)
			}
			lines = append(lines, blockMetadata(e.metadata, "       ")...)
			continue
		}
		if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}
		lines = append(lines, "    "+style.Arrow+" "+msgLines[0]+inlineMetadata(e.metadata))
		for _, line := range msgLines[1:] {
			lines = append(lines, "      "+line)
		}
		lines = append(lines, blockMetadata(e.metadata, "      ")...)
	}
	return strings.Join(lines, "\n")
}

// inlineMetadata renders single-line values as sorted key=value pairs.
func inlineMetadata(meta map[string]any) string {
	var parts []string
	for _, k := range sortedKeys(meta) {
		v := fmt.Sprint(meta[k])
		if strings.Contains(v, "\n") {
			continue
		}
		parts = append(parts, k+"="+v)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// blockMetadata renders multi-line values, such as captured tool output, below the message.
func blockMetadata(meta map[string]any, indent string) []string {
	var lines []string
	for _, k := range sortedKeys(meta) {
		v := fmt.Sprint(meta[k])
		if !strings.Contains(v, "\n") {
			continue
		}
		lines = append(lines, indent+k+":")
		for _, line := range strings.Split(strings.TrimRight(v, "\n"), "\n") {
			lines = append(lines, indent+"  "+line)
		}
	}
	return lines
}

func sortedKeys(meta map[string]any) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
