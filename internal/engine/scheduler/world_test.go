package scheduler_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/bake/internal/core/ports/mocks"
	"go.trai.ch/bake/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const root = "/project"

// world is an in-memory project: files, the signature store and a log of dispatched actions.
// Dispatching a target writes its output with a digest derived from its inputs.
type world struct {
	mu         sync.Mutex
	files      map[string]domain.Signature
	records    map[string]domain.BuildRecord
	dispatched []string
	saves      int
	explained  []string

	// fail makes the named target's action fail.
	fail map[string]bool
	// hook runs inside the action before it writes its output.
	hook func(ctx context.Context, output string) error
}

func newWorld(sources ...string) *world {
	w := &world{
		files:   make(map[string]domain.Signature),
		records: make(map[string]domain.BuildRecord),
		fail:    make(map[string]bool),
	}
	for _, src := range sources {
		w.write(src, "v1:"+src)
	}
	return w
}

func (w *world) write(path, content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = domain.Signature{Size: int64(len(content)), Digest: content}
}

func (w *world) dispatchedTargets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.dispatched)
}

func (w *world) sortedDispatched() []string {
	out := w.dispatchedTargets()
	slices.Sort(out)
	return out
}

// graph declares decls into a fresh frozen build context.
func graph(t *testing.T, decls ...domain.Declaration) *domain.BuildContext {
	t.Helper()
	bc := domain.NewBuildContext(root)
	for _, d := range decls {
		require.NoError(t, bc.Graph.Declare(d))
	}
	require.NoError(t, bc.Graph.Freeze())
	return bc
}

// newScheduler wires a scheduler whose collaborators operate on w.
func (w *world) newScheduler(t *testing.T) (*scheduler.Scheduler, scheduler.RunOptions) {
	t.Helper()
	ctrl := gomock.NewController(t)

	fp := mocks.NewMockFingerprinter(ctrl)
	fp.EXPECT().Fingerprint(gomock.Any(), gomock.Any()).DoAndReturn(
		func(path string, _ domain.SignatureAlgorithm) (domain.Signature, bool, error) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return domain.Signature{}, false, err
			}
			w.mu.Lock()
			defer w.mu.Unlock()
			sig, ok := w.files[rel]
			return sig, ok, nil
		}).AnyTimes()

	store := mocks.NewMockSignatureStore(ctrl)
	store.EXPECT().Get(gomock.Any()).DoAndReturn(func(output string) (domain.BuildRecord, bool) {
		w.mu.Lock()
		defer w.mu.Unlock()
		r, ok := w.records[output]
		return r, ok
	}).AnyTimes()
	store.EXPECT().Put(gomock.Any()).Do(func(r domain.BuildRecord) {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.records[r.Output] = r
	}).AnyTimes()
	store.EXPECT().Generation().Return(uint64(1)).AnyTimes()
	store.EXPECT().Save().DoAndReturn(func() error {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.saves++
		return nil
	}).AnyTimes()

	dispatcher := mocks.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *domain.BuildContext, tgt *domain.Target, _ io.Writer) error {
			return w.build(ctx, tgt)
		}).AnyTimes()

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.explained = append(w.explained, msg)
	}).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	s := scheduler.NewScheduler(dispatcher, fp, tracer, logger)
	return s, scheduler.RunOptions{Store: store, Signatures: domain.SignatureXXHash}
}

func (w *world) build(ctx context.Context, tgt *domain.Target) error {
	w.mu.Lock()
	w.dispatched = append(w.dispatched, tgt.Output())
	hook := w.hook
	fail := w.fail[tgt.Output()]
	w.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, tgt.Output()); err != nil {
			return err
		}
	}
	if fail {
		return errors.New("exit status 1")
	}
	if tgt.IsPhony() {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	parts := make([]string, 0, len(tgt.Inputs))
	for _, in := range tgt.InputPaths() {
		parts = append(parts, w.files[in].Digest)
	}
	content := "built(" + strings.Join(parts, ",") + ")"
	w.files[tgt.Output()] = domain.Signature{Size: int64(len(content)), Digest: content}
	return nil
}

// metadata collects zerr metadata from every error in the tree of err.
func metadata(err error) map[string]any {
	out := make(map[string]any)
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		var z *zerr.Error
		if errors.As(e, &z) {
			for k, v := range z.Metadata() {
				if _, ok := out[k]; !ok {
					out[k] = v
				}
			}
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}
