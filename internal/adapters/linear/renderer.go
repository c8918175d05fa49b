// Package linear provides a synchronous, line-buffered renderer for terminals and CI logs.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/ui/output"
	"go.trai.ch/bake/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer prints one line per started and finished action, and the
// action output prefixed with the target name.
// In quiet mode only failures are printed, together with their buffered output.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output
	quiet  bool

	mu       sync.Mutex
	tasks    map[string]*taskState // spanID -> task state
	total    int
	finished int
}

type taskState struct {
	name      string
	startTime time.Time
	partial   bytes.Buffer
	// lines holds complete output lines in quiet mode until the task finishes.
	lines [][]byte
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithQuiet hides successful actions and their output.
func WithQuiet() Option {
	return func(r *Renderer) {
		r.quiet = true
	}
}

// NewRenderer creates a Renderer. Nil writers default to stdout and stderr.
func NewRenderer(stdout, stderr io.Writer, opts ...Option) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	r := &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, output.ColorProfileANSI),
		tasks:  make(map[string]*taskState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start is a no-op; the renderer writes synchronously.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes partial lines of actions that never completed.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, task := range r.tasks {
		r.flushPartialLocked(task)
		if !r.quiet {
			continue
		}
		for _, line := range task.lines {
			r.printLineLocked(task.name, line)
		}
		task.lines = nil
	}
	return nil
}

// OnPlanEmit announces how many targets the run checks.
func (r *Renderer) OnPlanEmit(targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = len(targets)
	r.finished = 0
	if r.quiet {
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "Checking %d target(s)\n", len(targets))
}

// OnTaskStart prints a start line.
func (r *Renderer) OnTaskStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = &taskState{name: name, startTime: startTime}
	if r.quiet {
		return
	}

	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s Building...\n", prefix)
}

// OnTaskLog prints complete lines with the target name as prefix.
// In quiet mode lines are held back until the action fails.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	task.partial.Write(data)
	for {
		idx := bytes.IndexByte(task.partial.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := bytes.Clone(task.partial.Next(idx + 1))
		r.emitLocked(task, line)
	}
}

// OnTaskComplete flushes the remaining output and prints the outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	delete(r.tasks, spanID)
	r.finished++

	r.flushPartialLocked(task)

	duration := endTime.Sub(task.startTime).Round(time.Millisecond)
	prefix := fmt.Sprintf("[%s]", task.name)

	if err != nil {
		for _, line := range task.lines {
			r.printLineLocked(task.name, line)
		}
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
		return
	}
	if r.quiet {
		return
	}

	symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s Built in %v\n", prefix, symbol, duration)
}

func (r *Renderer) emitLocked(task *taskState, line []byte) {
	if r.quiet {
		task.lines = append(task.lines, line)
		return
	}
	r.printLineLocked(task.name, line)
}

func (r *Renderer) flushPartialLocked(task *taskState) {
	if task.partial.Len() == 0 {
		return
	}
	r.emitLocked(task, bytes.Clone(task.partial.Bytes()))
	task.partial.Reset()
}

// printLineLocked prints a line with the target name prefix. Must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
