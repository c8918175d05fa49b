// Package scheduler decides which targets to build and runs their actions in dependency order.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/engine/pool"
	"go.trai.ch/bake/internal/engine/staleness"
	"go.trai.ch/zerr"
)

const (
	// scanThreshold times the worker count is the queue depth below which a scan runs.
	scanThreshold = 2
	// queueLimit times the worker count is the most work a scan keeps queued.
	queueLimit = 3
)

// errSkipped is reported for queued targets that were not started because the run is stopping.
var errSkipped = errors.New("skipped")

// RunOptions configures a single run.
type RunOptions struct {
	// Jobs is the worker count. Zero builds sequentially in declaration order.
	Jobs int
	// DryRun reports stale targets without running actions or recording signatures.
	DryRun bool
	// Explain logs why each stale target is rebuilt.
	Explain bool
	// Store holds the records of previous builds. It is saved once when the run ends.
	Store ports.SignatureStore
	// Signatures selects the fingerprint algorithm.
	Signatures domain.SignatureAlgorithm
}

// Scheduler manages the execution of targets in the build graph.
type Scheduler struct {
	dispatcher    ports.Dispatcher
	fingerprinter ports.Fingerprinter
	tracer        ports.Tracer
	logger        ports.Logger

	mu     sync.RWMutex
	status map[string]domain.TargetStatus
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	dispatcher ports.Dispatcher,
	fingerprinter ports.Fingerprinter,
	tracer ports.Tracer,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		dispatcher:    dispatcher,
		fingerprinter: fingerprinter,
		tracer:        tracer,
		logger:        logger,
		status:        make(map[string]domain.TargetStatus),
	}
}

// Run builds every stale target of the frozen graph in bc.
// The first failing action stops scheduling; work already running is drained
// and its successes recorded. Cancelling ctx stops scheduling the same way and
// returns ErrInterrupted. The store is saved before Run returns, whatever the outcome.
func (s *Scheduler) Run(ctx context.Context, bc *domain.BuildContext, opts RunOptions) (*domain.RunReport, error) {
	if !bc.Graph.Frozen() {
		return nil, domain.ErrGraphNotFrozen
	}
	if opts.Jobs < 0 {
		return nil, zerr.With(domain.ErrInvalidJobs, "jobs", opts.Jobs)
	}

	start := time.Now()
	r := s.newRun(bc, opts)
	s.tracer.EmitPlan(ctx, r.names())

	var err error
	if opts.Jobs == 0 {
		err = r.runSequential(ctx)
	} else {
		err = r.runParallel(ctx)
	}

	if !opts.DryRun {
		if saveErr := opts.Store.Save(); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}

	r.report.Elapsed = time.Since(start)
	r.report.Warnings = bc.Warnings()
	return r.report, err
}

type run struct {
	s      *Scheduler
	bc     *domain.BuildContext
	graph  *domain.Graph
	opts   RunOptions
	oracle *staleness.Oracle
	report *domain.RunReport

	pending   []bool
	queued    []bool
	remaining int
	inFlight  int

	failed      error
	interrupted bool
	// stop is raised by the first failing worker so queued targets are not started.
	stop atomic.Bool
}

func (s *Scheduler) newRun(bc *domain.BuildContext, opts RunOptions) *run {
	n := bc.Graph.Len()
	r := &run{
		s:         s,
		bc:        bc,
		graph:     bc.Graph,
		opts:      opts,
		oracle:    staleness.New(bc, opts.Store, s.fingerprinter, opts.Signatures),
		report:    &domain.RunReport{Total: n, DryRun: opts.DryRun},
		pending:   make([]bool, n),
		queued:    make([]bool, n),
		remaining: n,
	}

	s.mu.Lock()
	s.status = make(map[string]domain.TargetStatus, n)
	for t := range bc.Graph.Targets() {
		r.pending[t.ID] = true
		s.status[t.Output()] = domain.StatusPending
	}
	s.mu.Unlock()
	return r
}

func (r *run) names() []string {
	names := make([]string, 0, r.graph.Len())
	for t := range r.graph.Targets() {
		names = append(names, t.Output())
	}
	return names
}

// runSequential visits targets in declaration order without checking readiness.
func (r *run) runSequential(ctx context.Context) error {
	for t := range r.graph.Targets() {
		if ctx.Err() != nil {
			r.interrupted = true
			break
		}

		submit, err := r.check(t)
		if err != nil {
			return err
		}
		if !submit {
			continue
		}

		r.s.setStatus(t, domain.StatusQueued)
		if r.complete(t, r.s.execute(ctx, r.bc, t)) != nil {
			break
		}
	}
	return r.outcome(ctx)
}

// runParallel keeps up to queueLimit*Jobs targets queued on a pool of Jobs workers.
func (r *run) runParallel(ctx context.Context) error {
	n := r.opts.Jobs
	p := pool.New(n, queueLimit*n, func(ctx context.Context, id domain.TargetID) error {
		if r.stop.Load() || ctx.Err() != nil {
			return errSkipped
		}
		err := r.s.execute(ctx, r.bc, r.graph.Get(id))
		if err != nil {
			r.stop.Store(true)
		}
		return err
	})
	p.Start(ctx)
	defer p.Shutdown()

	for {
		if ctx.Err() != nil {
			r.interrupted = true
		}

		if r.failed == nil && !r.interrupted && r.inFlight < scanThreshold*n {
			if err := r.scanUntilSettled(p, queueLimit*n); err != nil {
				r.failed = err
			}
		}

		if r.inFlight == 0 {
			break
		}

		select {
		case res := <-p.Results():
			r.receive(res)
		case <-ctx.Done():
			// Workers see the same cancellation; wait for what they are running.
			r.interrupted = true
			r.receive(<-p.Results())
		}
	}

	return r.outcome(ctx)
}

func (r *run) receive(res pool.Result[domain.TargetID]) {
	r.inFlight--
	r.queued[res.Item] = false
	if errors.Is(res.Err, errSkipped) {
		r.s.setStatus(r.graph.Get(res.Item), domain.StatusPending)
		return
	}
	_ = r.complete(r.graph.Get(res.Item), res.Err)
}

// scanUntilSettled repeats the scan while a pass retires targets without
// dispatching them: such a retirement can make an earlier-declared target ready.
func (r *run) scanUntilSettled(p *pool.Pool[domain.TargetID], limit int) error {
	for {
		retired, err := r.scan(p, limit)
		if err != nil || !retired {
			return err
		}
	}
}

// scan walks the pending targets in declaration order and queues the ready, stale ones.
func (r *run) scan(p *pool.Pool[domain.TargetID], limit int) (bool, error) {
	retired := false
	for t := range r.graph.Targets() {
		if !r.pending[t.ID] || r.queued[t.ID] || !r.ready(t) {
			continue
		}
		r.s.setStatus(t, domain.StatusReady)
		if r.inFlight >= limit {
			continue
		}

		submit, err := r.check(t)
		if err != nil {
			return retired, err
		}
		if !submit {
			retired = true
			continue
		}

		r.queued[t.ID] = true
		r.inFlight++
		r.s.setStatus(t, domain.StatusQueued)
		p.Submit(t.ID)
	}
	return retired, nil
}

func (r *run) ready(t *domain.Target) bool {
	for _, id := range t.Gates() {
		if r.pending[id] {
			return false
		}
	}
	return true
}

// check consults the oracle. Up-to-date targets, and stale ones in a dry run,
// are retired on the spot; check reports whether t has to be dispatched.
func (r *run) check(t *domain.Target) (bool, error) {
	verdict, err := r.oracle.NeedsBuild(t)
	if err != nil {
		return false, err
	}

	if !verdict.Stale {
		r.report.UpToDate++
		r.retire(t, domain.StatusUpToDate)
		return false, nil
	}

	if r.opts.Explain {
		r.s.logger.Info(explain(t, verdict))
	}

	if r.opts.DryRun {
		r.oracle.MarkBuilt(t)
		r.report.Dispatched = append(r.report.Dispatched, t.Output())
		r.retire(t, domain.StatusDone)
		return false, nil
	}
	return true, nil
}

// complete handles the outcome of a dispatched action.
func (r *run) complete(t *domain.Target, err error) error {
	if err == nil {
		err = r.oracle.RecordSuccess(t)
	}
	if err != nil {
		r.s.setStatus(t, domain.StatusFailed)
		if r.failed == nil {
			r.report.Failed = t.Output()
			r.failed = errors.Join(domain.ErrActionFailed, zerr.With(err, "target", t.Output()))
		}
		return err
	}

	r.report.Dispatched = append(r.report.Dispatched, t.Output())
	r.retire(t, domain.StatusDone)
	return nil
}

func (r *run) retire(t *domain.Target, status domain.TargetStatus) {
	r.pending[t.ID] = false
	r.remaining--
	r.s.setStatus(t, status)
}

// outcome turns the final run state into the error Run returns.
// An interrupt wins over failures, which are usually the cancelled actions themselves.
func (r *run) outcome(ctx context.Context) error {
	if r.interrupted || ctx.Err() != nil {
		return errors.Join(domain.ErrInterrupted, context.Cause(ctx))
	}
	if r.failed != nil {
		return r.failed
	}
	if r.remaining > 0 {
		return r.stuck()
	}
	return nil
}

// stuck reports the first target that never became ready and a gate it waits on.
func (r *run) stuck() error {
	for t := range r.graph.Targets() {
		if !r.pending[t.ID] {
			continue
		}
		detail := zerr.With(zerr.New("target never became ready"), "target", t.Output())
		for _, id := range t.Gates() {
			if r.pending[id] {
				detail = zerr.With(detail, "waiting_on", r.graph.Get(id).Output())
				break
			}
		}
		return errors.Join(domain.ErrUnsatisfiedDependency, detail)
	}
	return nil
}

// execute dispatches t inside a span. It runs on a worker in parallel mode.
func (s *Scheduler) execute(ctx context.Context, bc *domain.BuildContext, t *domain.Target) error {
	ctx, span := s.tracer.Start(ctx, t.Output(), ports.WithKind(t.Kind.String()))
	defer span.End()

	s.setStatus(t, domain.StatusExecuting)
	err := s.dispatcher.Dispatch(ctx, bc, t, io.Writer(span))
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Scheduler) setStatus(t *domain.Target, status domain.TargetStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[t.Output()] = status
}

func explain(t *domain.Target, verdict domain.Staleness) string {
	if verdict.Path == "" {
		return fmt.Sprintf("%s is stale: %s", t.Output(), verdict.Reason)
	}
	return fmt.Sprintf("%s is stale: %s (%s)", t.Output(), verdict.Reason, verdict.Path)
}
