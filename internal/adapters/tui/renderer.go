// Package tui renders a run as an interactive terminal interface.
package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/bake/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer wraps the bubbletea model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model

	mu      sync.Mutex
	started bool
	stopped bool
	err     error
	done    chan error
}

// NewRenderer creates a TUI renderer for model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		done:    make(chan error, 1),
	}
}

// Start launches the program in the background.
func (r *Renderer) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	r.started = true
	go func() {
		_, err := r.program.Run()
		r.done <- err
	}()
	return nil
}

// Stop quits the program and waits until the terminal is restored.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || r.stopped {
		return r.err
	}
	r.stopped = true
	r.program.Quit()
	r.err = <-r.done
	return r.err
}

// Model returns the model. Only safe to inspect after Stop.
func (r *Renderer) Model() *Model {
	return r.model
}

// OnPlanEmit forwards the plan to the program.
func (r *Renderer) OnPlanEmit(targets []string) {
	r.program.Send(MsgPlan{Targets: targets})
}

// OnTaskStart forwards action start events to the program.
func (r *Renderer) OnTaskStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.program.Send(MsgTaskStart{SpanID: spanID, Name: name, StartTime: startTime})
}

// OnTaskLog forwards action output to the program.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.program.Send(MsgTaskLog{SpanID: spanID, Data: data})
}

// OnTaskComplete forwards action completion to the program.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.program.Send(MsgTaskComplete{SpanID: spanID, EndTime: endTime, Err: err})
}
