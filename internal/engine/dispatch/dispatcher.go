// Package dispatch binds targets to the actions that build them.
package dispatch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Dispatcher = (*Dispatcher)(nil)

// Table maps action kinds to their implementation.
type Table map[domain.ActionKind]ports.Action

// Validate checks that every target in the frozen graph has an action.
func (tbl Table) Validate(g *domain.Graph) error {
	if !g.Frozen() {
		return domain.ErrGraphNotFrozen
	}
	var errs error
	reported := make(map[domain.ActionKind]bool)
	for t := range g.Targets() {
		if t.IsPhony() || reported[t.Kind] {
			continue
		}
		if _, ok := tbl[t.Kind]; !ok {
			reported[t.Kind] = true
			err := zerr.With(domain.ErrNoActionForKind, "kind", t.Kind.String())
			errs = errors.Join(errs, zerr.With(err, "target", t.Output()))
		}
	}
	return errs
}

// Dispatcher invokes the action registered for a target's kind.
type Dispatcher struct {
	table    Table
	verifier ports.Verifier
}

// New creates a Dispatcher. Phony targets need no entry in table.
func New(table Table, verifier ports.Verifier) *Dispatcher {
	return &Dispatcher{table: table, verifier: verifier}
}

// Table returns the action table.
func (d *Dispatcher) Table() Table {
	return d.table
}

// Dispatch runs the action for t once. It prepares the output directory,
// starts aggregating actions from an empty output and checks that the
// output exists afterwards.
func (d *Dispatcher) Dispatch(ctx context.Context, bc *domain.BuildContext, t *domain.Target, out io.Writer) error {
	if t.IsPhony() {
		return nil
	}

	action, ok := d.table[t.Kind]
	if !ok {
		err := zerr.With(domain.ErrNoActionForKind, "kind", t.Kind.String())
		return zerr.With(err, "target", t.Output())
	}

	output := t.Output()
	path := output
	if !filepath.IsAbs(path) {
		path = filepath.Join(bc.Root, output)
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return d.wrap(zerr.Wrap(err, "failed to create output directory"), t)
	}
	if t.Kind.Aggregates() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return d.wrap(zerr.Wrap(err, "failed to remove previous output"), t)
		}
	}

	req := domain.ActionRequest{
		Output:    output,
		Inputs:    t.InputPaths(),
		Options:   t.Options,
		Root:      bc.Root,
		Toolchain: bc.Toolchain,
	}
	if err := action.Execute(ctx, req, out); err != nil {
		return d.wrap(err, t)
	}

	if d.verifier != nil {
		produced, err := d.verifier.VerifyOutputs(bc.Root, []string{output})
		if err != nil {
			return d.wrap(err, t)
		}
		if !produced {
			return d.wrap(zerr.New("action did not produce its output"), t)
		}
	}
	return nil
}

func (d *Dispatcher) wrap(err error, t *domain.Target) error {
	return zerr.With(zerr.With(err, "target", t.Output()), "kind", t.Kind.String())
}
