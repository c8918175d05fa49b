// Package domain contains the core models of the build: targets, the target graph,
// signatures and the errors shared across the engine and adapters.
package domain

import (
	"errors"
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is the accumulated set of declared targets.
// Targets live in an arena indexed by TargetID; names map to their index.
type Graph struct {
	targets []Target
	index   map[InternedString]TargetID
	frozen  bool
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[InternedString]TargetID),
	}
}

// Declare merges d into the graph. A new name creates a target; a known name has the
// declaration's inputs, alternate inputs and dependencies appended and its options merged.
// No cycle detection happens here: cycles surface as unsatisfied dependencies when scheduled.
func (g *Graph) Declare(d Declaration) error {
	if g.frozen {
		return zerr.With(ErrGraphFrozen, "target", d.Name)
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return ErrTargetNameRequired
	}

	var kind ActionKind
	if d.Kind != "" {
		k, err := ParseActionKind(d.Kind)
		if err != nil {
			return zerr.With(err, "target", name)
		}
		kind = k
	}

	key := NewInternedString(name)
	id, ok := g.index[key]
	if !ok {
		id = TargetID(len(g.targets))
		g.targets = append(g.targets, Target{ID: id, Name: key})
		g.index[key] = id
	}

	t := &g.targets[id]
	if kind != KindUnknown {
		if t.explicitKind != KindUnknown && t.explicitKind != kind {
			err := zerr.With(ErrConflictingKind, "target", name)
			err = zerr.With(err, "declared", t.explicitKind.String())
			return zerr.With(err, "redeclared", kind.String())
		}
		t.explicitKind = kind
	}

	t.Inputs = append(t.Inputs, NewInternedStrings(d.Inputs)...)
	t.AltInputs = append(t.AltInputs, NewInternedStrings(d.AltInputs)...)
	t.DependsOn = append(t.DependsOn, NewInternedStrings(d.DependsOn)...)
	t.Options.Add(d.Options...)
	return nil
}

// Freeze classifies every target and resolves dependency handles.
// After Freeze the graph is read-only. Every misdeclared target is reported.
func (g *Graph) Freeze() error {
	if g.frozen {
		return nil
	}

	var errs error
	for i := range g.targets {
		t := &g.targets[i]
		if err := t.classify(); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		t.deps = g.resolve(t.Inputs, t.DependsOn)
		t.gates = g.resolve(t.Inputs, t.DependsOn, t.AltInputs)
	}
	if errs != nil {
		return errs
	}

	g.frozen = true
	return nil
}

// ResolveKind returns the explicitly declared kind, or the kind Classify derives
// from the declarations so far. It is valid before Freeze.
func (t *Target) ResolveKind() (ActionKind, error) {
	if t.explicitKind != KindUnknown {
		return t.explicitKind, nil
	}
	var first string
	if len(t.Inputs) > 0 {
		first = t.Inputs[0].String()
	}
	return Classify(t.Output(), first, t.Options)
}

func (t *Target) classify() error {
	kind, err := t.ResolveKind()
	if err != nil {
		return err
	}
	t.Kind = kind

	if t.Kind != KindPhony && len(t.Inputs) == 0 {
		return zerr.With(ErrNoInputs, "target", t.Output())
	}
	return nil
}

// resolve maps the paths that name declared targets to their handles, deduplicated, in first-seen order.
// A self-reference is kept: such a target never becomes ready and is reported as stuck.
func (g *Graph) resolve(lists ...[]InternedString) []TargetID {
	var ids []TargetID
	for _, list := range lists {
		for _, p := range list {
			id, ok := g.index[p]
			if !ok || slices.Contains(ids, id) {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

// Frozen reports whether Freeze has succeeded.
func (g *Graph) Frozen() bool {
	return g.frozen
}

// Len returns the number of declared targets.
func (g *Graph) Len() int {
	return len(g.targets)
}

// Get returns the target with the given handle.
func (g *Graph) Get(id TargetID) *Target {
	return &g.targets[id]
}

// Lookup finds a target by exact name.
func (g *Graph) Lookup(name string) (*Target, bool) {
	id, ok := g.index[NewInternedString(name)]
	if !ok {
		return nil, false
	}
	return &g.targets[id], true
}

// IsTarget reports whether path names a declared target.
func (g *Graph) IsTarget(path InternedString) bool {
	_, ok := g.index[path]
	return ok
}

// Targets iterates over the targets in declaration order.
func (g *Graph) Targets() iter.Seq[*Target] {
	return func(yield func(*Target) bool) {
		for i := range g.targets {
			if !yield(&g.targets[i]) {
				return
			}
		}
	}
}

// Select returns a frozen graph holding the requested targets and everything they
// transitively wait on, in the original declaration order.
func (g *Graph) Select(names []string) (*Graph, error) {
	if !g.frozen {
		return nil, ErrGraphNotFrozen
	}

	keep := make([]bool, len(g.targets))
	var stack []TargetID
	for _, name := range names {
		t, ok := g.Lookup(name)
		if !ok {
			return nil, zerr.With(ErrTargetNotFound, "target", name)
		}
		stack = append(stack, t.ID)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if keep[id] {
			continue
		}
		keep[id] = true
		stack = append(stack, g.targets[id].gates...)
	}

	sub := NewGraph()
	for i := range g.targets {
		if !keep[i] {
			continue
		}
		t := &g.targets[i]
		if err := sub.Declare(Declaration{
			Name:      t.Output(),
			Inputs:    Strings(t.Inputs),
			AltInputs: Strings(t.AltInputs),
			DependsOn: Strings(t.DependsOn),
			Options:   t.Options.Tokens(),
			Kind:      t.Kind.String(),
		}); err != nil {
			return nil, err
		}
	}
	if err := sub.Freeze(); err != nil {
		return nil, err
	}
	return sub, nil
}
