// Package staleness decides which targets need their action run.
package staleness

import (
	"errors"
	"path/filepath"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

type fingerprint struct {
	sig domain.Signature
	ok  bool
}

// Oracle compares current file signatures against the signature store.
// It is created per run and is not safe for concurrent use: only the
// coordinating goroutine calls it.
type Oracle struct {
	bc    *domain.BuildContext
	store ports.SignatureStore
	fp    ports.Fingerprinter
	algo  domain.SignatureAlgorithm

	memo     map[string]fingerprint
	rebuilt  []bool
	observed map[domain.TargetID]map[string]domain.Signature
}

// New creates an Oracle for the frozen graph held by bc.
func New(
	bc *domain.BuildContext,
	store ports.SignatureStore,
	fp ports.Fingerprinter,
	algo domain.SignatureAlgorithm,
) *Oracle {
	return &Oracle{
		bc:       bc,
		store:    store,
		fp:       fp,
		algo:     algo,
		memo:     make(map[string]fingerprint),
		rebuilt:  make([]bool, bc.Graph.Len()),
		observed: make(map[domain.TargetID]map[string]domain.Signature),
	}
}

// NeedsBuild reports whether t must be dispatched and the first reason why.
// The input signatures seen here are the ones RecordSuccess stores.
func (o *Oracle) NeedsBuild(t *domain.Target) (domain.Staleness, error) {
	inputs, verdict, err := o.observe(t)
	if err != nil {
		return domain.Staleness{}, err
	}
	o.observed[t.ID] = inputs

	if !t.IsPhony() {
		out, err := o.fingerprint(t.Output())
		if err != nil {
			return domain.Staleness{}, err
		}
		if !out.ok {
			return stale(domain.ReasonOutputMissing, t.Output()), nil
		}
	}

	record, ok := o.store.Get(t.Output())
	if !ok {
		return stale(domain.ReasonNoRecord, ""), nil
	}

	for _, id := range t.Deps() {
		if o.rebuilt[id] {
			return stale(domain.ReasonInputRebuilt, o.bc.Graph.Get(id).Output()), nil
		}
	}
	if verdict.Stale {
		return verdict, nil
	}

	for _, p := range t.StalenessInputs() {
		path := p.String()
		sig, seen := inputs[path]
		if !seen {
			continue
		}
		prev, recorded := record.Inputs[path]
		if !recorded {
			return stale(domain.ReasonInputAdded, path), nil
		}
		if !prev.Equal(sig) {
			return stale(domain.ReasonInputChanged, path), nil
		}
	}

	return domain.Staleness{}, nil
}

// observe fingerprints every input that decides staleness.
// A missing source file is an unsatisfied dependency. A missing target output
// contributes nothing: either the target is phony or it is stale in its own right.
func (o *Oracle) observe(t *domain.Target) (map[string]domain.Signature, domain.Staleness, error) {
	inputs := make(map[string]domain.Signature, len(t.Inputs)+len(t.DependsOn))
	var verdict domain.Staleness

	for _, p := range t.StalenessInputs() {
		path := p.String()
		if _, done := inputs[path]; done {
			continue
		}
		fp, err := o.fingerprint(path)
		if err != nil {
			return nil, domain.Staleness{}, zerr.With(err, "target", t.Output())
		}
		if fp.ok {
			inputs[path] = fp.sig
			continue
		}
		if !o.bc.Graph.IsTarget(p) {
			detail := zerr.With(zerr.New("input does not exist and no target builds it"), "target", t.Output())
			return nil, domain.Staleness{}, errors.Join(domain.ErrUnsatisfiedDependency, zerr.With(detail, "input", path))
		}
		if dep, _ := o.bc.Graph.Lookup(path); !dep.IsPhony() && !verdict.Stale {
			verdict = stale(domain.ReasonInputChanged, path)
		}
	}
	return inputs, verdict, nil
}

// RecordSuccess stores the build record of t after its action succeeded and
// marks it rebuilt for the targets that read it.
func (o *Oracle) RecordSuccess(t *domain.Target) error {
	o.MarkBuilt(t)

	record := domain.BuildRecord{
		Output:     t.Output(),
		Inputs:     o.observed[t.ID],
		RecordedAt: time.Now(),
		Generation: o.store.Generation(),
	}
	delete(o.observed, t.ID)

	if !t.IsPhony() {
		out, err := o.fingerprint(t.Output())
		if err != nil {
			return zerr.With(err, "target", t.Output())
		}
		if !out.ok {
			return zerr.With(zerr.With(domain.ErrActionFailed, "target", t.Output()), "reason", "output not produced")
		}
		record.Signature = out.sig
	}

	o.store.Put(record)
	return nil
}

// MarkBuilt marks t as rebuilt in this run without recording anything.
func (o *Oracle) MarkBuilt(t *domain.Target) {
	o.rebuilt[t.ID] = true
	delete(o.memo, t.Output())
}

// Rebuilt reports whether t was rebuilt in this run.
func (o *Oracle) Rebuilt(t *domain.Target) bool {
	return o.rebuilt[t.ID]
}

func (o *Oracle) fingerprint(path string) (fingerprint, error) {
	if fp, ok := o.memo[path]; ok {
		return fp, nil
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(o.bc.Root, path)
	}
	sig, ok, err := o.fp.Fingerprint(full, o.algo)
	if err != nil {
		return fingerprint{}, zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "path", path)
	}

	fp := fingerprint{sig: sig, ok: ok}
	o.memo[path] = fp
	return fp, nil
}

func stale(reason domain.StaleReason, path string) domain.Staleness {
	return domain.Staleness{Stale: true, Reason: reason, Path: path}
}
