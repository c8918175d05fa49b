package staleness_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports/mocks"
	"go.trai.ch/bake/internal/engine/staleness"
	"go.uber.org/mock/gomock"
)

const root = "/project"

// files maps project-relative paths to their current signature.
type files map[string]domain.Signature

type fixture struct {
	bc      *domain.BuildContext
	files   files
	records map[string]domain.BuildRecord
	oracle  *staleness.Oracle
	calls   map[string]int
}

func newFixture(t *testing.T, decls ...domain.Declaration) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	bc := domain.NewBuildContext(root)
	for _, d := range decls {
		require.NoError(t, bc.Graph.Declare(d))
	}
	require.NoError(t, bc.Graph.Freeze())

	f := &fixture{
		bc:      bc,
		files:   files{},
		records: map[string]domain.BuildRecord{},
		calls:   map[string]int{},
	}

	fp := mocks.NewMockFingerprinter(ctrl)
	fp.EXPECT().Fingerprint(gomock.Any(), domain.SignatureXXHash).DoAndReturn(
		func(path string, _ domain.SignatureAlgorithm) (domain.Signature, bool, error) {
			rel, err := filepath.Rel(root, path)
			require.NoError(t, err)
			f.calls[rel]++
			sig, ok := f.files[rel]
			return sig, ok, nil
		}).AnyTimes()

	store := mocks.NewMockSignatureStore(ctrl)
	store.EXPECT().Get(gomock.Any()).DoAndReturn(func(output string) (domain.BuildRecord, bool) {
		r, ok := f.records[output]
		return r, ok
	}).AnyTimes()
	store.EXPECT().Put(gomock.Any()).Do(func(r domain.BuildRecord) {
		f.records[r.Output] = r
	}).AnyTimes()
	store.EXPECT().Generation().Return(uint64(7)).AnyTimes()

	f.oracle = staleness.New(bc, store, fp, domain.SignatureXXHash)
	return f
}

func (f *fixture) target(t *testing.T, name string) *domain.Target {
	t.Helper()
	tgt, ok := f.bc.Graph.Lookup(name)
	require.True(t, ok)
	return tgt
}

func sig(digest string) domain.Signature {
	return domain.Signature{Size: int64(len(digest)), Digest: digest}
}

func TestOracle_NeverBuilt(t *testing.T) {
	f := newFixture(t, domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}})
	f.files["a.c"] = sig("src")
	f.files["a.o"] = sig("obj")

	got, err := f.oracle.NeedsBuild(f.target(t, "a.o"))
	require.NoError(t, err)
	assert.Equal(t, domain.Staleness{Stale: true, Reason: domain.ReasonNoRecord}, got)
}

func TestOracle_OutputMissing(t *testing.T) {
	f := newFixture(t, domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}})
	f.files["a.c"] = sig("src")

	got, err := f.oracle.NeedsBuild(f.target(t, "a.o"))
	require.NoError(t, err)
	assert.Equal(t, domain.Staleness{Stale: true, Reason: domain.ReasonOutputMissing, Path: "a.o"}, got)
}

func TestOracle_RecordThenUpToDate(t *testing.T) {
	f := newFixture(t, domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}, DependsOn: []string{"a.h"}})
	f.files["a.c"] = sig("src")
	f.files["a.h"] = sig("hdr")
	tgt := f.target(t, "a.o")

	got, err := f.oracle.NeedsBuild(tgt)
	require.NoError(t, err)
	require.True(t, got.Stale)

	f.files["a.o"] = sig("obj")
	require.NoError(t, f.oracle.RecordSuccess(tgt))

	record := f.records["a.o"]
	assert.Equal(t, sig("obj"), record.Signature)
	assert.Equal(t, map[string]domain.Signature{"a.c": sig("src"), "a.h": sig("hdr")}, record.Inputs)
	assert.Equal(t, uint64(7), record.Generation)
	assert.True(t, f.oracle.Rebuilt(tgt))

	// A fresh run over the same files sees the target as up to date.
	next := newFixture(t, domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}, DependsOn: []string{"a.h"}})
	next.files = f.files
	next.records = f.records
	got, err = next.oracle.NeedsBuild(next.target(t, "a.o"))
	require.NoError(t, err)
	assert.False(t, got.Stale)
}

func TestOracle_InputChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(files, map[string]domain.BuildRecord)
		want   domain.Staleness
	}{
		{
			name:   "unchanged",
			mutate: func(files, map[string]domain.BuildRecord) {},
			want:   domain.Staleness{},
		},
		{
			name:   "input content changed",
			mutate: func(fs files, _ map[string]domain.BuildRecord) { fs["a.c"] = sig("SRC") },
			want:   domain.Staleness{Stale: true, Reason: domain.ReasonInputChanged, Path: "a.c"},
		},
		{
			name:   "depends_on changed",
			mutate: func(fs files, _ map[string]domain.BuildRecord) { fs["a.h"] = sig("header2") },
			want:   domain.Staleness{Stale: true, Reason: domain.ReasonInputChanged, Path: "a.h"},
		},
		{
			name: "input missing from record",
			mutate: func(_ files, r map[string]domain.BuildRecord) {
				rec := r["a.o"]
				delete(rec.Inputs, "a.h")
				r["a.o"] = rec
			},
			want: domain.Staleness{Stale: true, Reason: domain.ReasonInputAdded, Path: "a.h"},
		},
		{
			name:   "alternate input change ignored",
			mutate: func(fs files, _ map[string]domain.BuildRecord) { fs["gen.h"] = sig("other") },
			want:   domain.Staleness{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, domain.Declaration{
				Name:      "a.o",
				Inputs:    []string{"a.c"},
				AltInputs: []string{"gen.h"},
				DependsOn: []string{"a.h"},
			})
			f.files["a.c"] = sig("src")
			f.files["a.h"] = sig("hdr")
			f.files["a.o"] = sig("obj")
			f.files["gen.h"] = sig("gen")
			f.records["a.o"] = domain.BuildRecord{
				Output:    "a.o",
				Signature: sig("obj"),
				Inputs:    map[string]domain.Signature{"a.c": sig("src"), "a.h": sig("hdr")},
			}
			tt.mutate(f.files, f.records)

			got, err := f.oracle.NeedsBuild(f.target(t, "a.o"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOracle_InputRebuiltThisRun(t *testing.T) {
	f := newFixture(t,
		domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}},
		domain.Declaration{Name: "lib.a", Inputs: []string{"a.o"}},
	)
	f.files["a.c"] = sig("src")
	f.files["a.o"] = sig("obj")
	f.files["lib.a"] = sig("lib")
	f.records["a.o"] = domain.BuildRecord{Output: "a.o", Signature: sig("obj"), Inputs: map[string]domain.Signature{"a.c": sig("src")}}
	f.records["lib.a"] = domain.BuildRecord{Output: "lib.a", Signature: sig("lib"), Inputs: map[string]domain.Signature{"a.o": sig("obj")}}

	// Rebuilding with byte-identical output still forces the dependent.
	f.oracle.MarkBuilt(f.target(t, "a.o"))

	got, err := f.oracle.NeedsBuild(f.target(t, "lib.a"))
	require.NoError(t, err)
	assert.Equal(t, domain.Staleness{Stale: true, Reason: domain.ReasonInputRebuilt, Path: "a.o"}, got)
}

func TestOracle_SharedInputSeenByEveryDependent(t *testing.T) {
	f := newFixture(t,
		domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}, DependsOn: []string{"common.h"}},
		domain.Declaration{Name: "b.o", Inputs: []string{"b.c"}, DependsOn: []string{"common.h"}},
	)
	for _, p := range []string{"a.c", "b.c", "a.o", "b.o"} {
		f.files[p] = sig(p)
	}
	f.files["common.h"] = sig("new")
	for _, out := range []string{"a.o", "b.o"} {
		src := out[:1] + ".c"
		f.records[out] = domain.BuildRecord{Output: out, Signature: sig(out), Inputs: map[string]domain.Signature{
			src: sig(src), "common.h": sig("old"),
		}}
	}

	a := f.target(t, "a.o")
	got, err := f.oracle.NeedsBuild(a)
	require.NoError(t, err)
	require.True(t, got.Stale)
	require.NoError(t, f.oracle.RecordSuccess(a))

	got, err = f.oracle.NeedsBuild(f.target(t, "b.o"))
	require.NoError(t, err)
	assert.Equal(t, domain.Staleness{Stale: true, Reason: domain.ReasonInputChanged, Path: "common.h"}, got)
}

func TestOracle_MissingSourceIsUnsatisfied(t *testing.T) {
	f := newFixture(t, domain.Declaration{Name: "a.o", Inputs: []string{"missing.c"}})

	_, err := f.oracle.NeedsBuild(f.target(t, "a.o"))
	require.ErrorIs(t, err, domain.ErrUnsatisfiedDependency)
}

func TestOracle_PhonyTargets(t *testing.T) {
	f := newFixture(t,
		domain.Declaration{Name: "gen.stamp", Inputs: []string{"gen.in"}, Options: []string{domain.OptDependencyOnly}},
		domain.Declaration{Name: "all", Kind: "phony", Inputs: []string{"gen.stamp"}},
	)
	f.files["gen.in"] = sig("in")

	stamp := f.target(t, "gen.stamp")
	got, err := f.oracle.NeedsBuild(stamp)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNoRecord, got.Reason, "phony outputs need not exist")

	require.NoError(t, f.oracle.RecordSuccess(stamp))
	assert.Equal(t, domain.Signature{}, f.records["gen.stamp"].Signature)

	got, err = f.oracle.NeedsBuild(f.target(t, "all"))
	require.NoError(t, err)
	assert.Equal(t, domain.Staleness{Stale: true, Reason: domain.ReasonNoRecord}, got)
}

func TestOracle_FingerprintsMemoised(t *testing.T) {
	f := newFixture(t,
		domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}, DependsOn: []string{"common.h"}},
		domain.Declaration{Name: "b.o", Inputs: []string{"b.c"}, DependsOn: []string{"common.h"}},
	)
	for _, p := range []string{"a.c", "b.c", "common.h"} {
		f.files[p] = sig(p)
	}

	_, err := f.oracle.NeedsBuild(f.target(t, "a.o"))
	require.NoError(t, err)
	_, err = f.oracle.NeedsBuild(f.target(t, "b.o"))
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls["common.h"])
}
