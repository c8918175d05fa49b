package domain_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/core/domain"
)

func declareAll(t *testing.T, g *domain.Graph, decls ...domain.Declaration) {
	t.Helper()
	for _, d := range decls {
		require.NoError(t, g.Declare(d))
	}
}

func names(g *domain.Graph, ids []domain.TargetID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Get(id).Output())
	}
	return out
}

func TestGraph_DeclareMergesAdditively(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g,
		domain.Declaration{Name: "app.exe", Options: []string{"LIB:m"}},
		domain.Declaration{Name: "app.exe", Inputs: []string{"main.o"}, Options: []string{"LIB:z"}},
		domain.Declaration{Name: "app.exe", Inputs: []string{"util.o"}, AltInputs: []string{"gen.h"}, Options: []string{"LIB:m"}},
		domain.Declaration{Name: "app.exe", DependsOn: []string{"version.dat"}},
	)

	require.Equal(t, 1, g.Len())
	target, ok := g.Lookup("app.exe")
	require.True(t, ok)

	assert.Equal(t, []string{"main.o", "util.o"}, target.InputPaths())
	assert.Equal(t, []string{"gen.h"}, domain.Strings(target.AltInputs))
	assert.Equal(t, []string{"version.dat"}, domain.Strings(target.DependsOn))
	assert.Equal(t, []string{"LIB:m", "LIB:z"}, target.Options.Tokens())
}

func TestGraph_DeclareValidation(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		err := domain.NewGraph().Declare(domain.Declaration{Name: "  "})
		require.ErrorIs(t, err, domain.ErrTargetNameRequired)
	})

	t.Run("unknown explicit kind", func(t *testing.T) {
		err := domain.NewGraph().Declare(domain.Declaration{Name: "x", Kind: "teleport"})
		require.ErrorContains(t, err, domain.ErrUnknownActionKind.Error())
	})

	t.Run("conflicting explicit kinds", func(t *testing.T) {
		g := domain.NewGraph()
		require.NoError(t, g.Declare(domain.Declaration{Name: "tool", Kind: "link"}))
		err := g.Declare(domain.Declaration{Name: "tool", Kind: "archive"})
		require.ErrorContains(t, err, domain.ErrConflictingKind.Error())
	})

	t.Run("frozen graph", func(t *testing.T) {
		g := domain.NewGraph()
		require.NoError(t, g.Freeze())
		err := g.Declare(domain.Declaration{Name: "late.o", Inputs: []string{"late.c"}})
		require.ErrorContains(t, err, domain.ErrGraphFrozen.Error())
	})
}

func TestGraph_FreezeClassifiesAndResolves(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g,
		domain.Declaration{Name: "parser.o", Inputs: []string{"parser.yxx"}},
		domain.Declaration{Name: "parser.h", Inputs: []string{"parser.o"}, Options: []string{domain.OptDependencyOnly}},
		domain.Declaration{Name: "main.o", Inputs: []string{"main.cxx"}, DependsOn: []string{"parser.h"}},
		domain.Declaration{Name: "libcore.a", Inputs: []string{"main.o", "parser.o", "main.o"}},
		domain.Declaration{Name: "app", Inputs: []string{"libcore.a"}, AltInputs: []string{"models.pz"}, Kind: "link"},
		domain.Declaration{Name: "models.pz", Inputs: []string{"models.egg"}},
	)
	require.NoError(t, g.Freeze())
	assert.True(t, g.Frozen())

	kinds := map[string]domain.ActionKind{}
	for target := range g.Targets() {
		kinds[target.Output()] = target.Kind
	}
	assert.Equal(t, map[string]domain.ActionKind{
		"parser.o":  domain.KindParserGen,
		"parser.h":  domain.KindPhony,
		"main.o":    domain.KindCompile,
		"libcore.a": domain.KindArchive,
		"app":       domain.KindLink,
		"models.pz": domain.KindAssetCompress,
	}, kinds)

	lib, _ := g.Lookup("libcore.a")
	assert.Equal(t, []string{"main.o", "parser.o"}, names(g, lib.Deps()))

	app, _ := g.Lookup("app")
	assert.Equal(t, []string{"libcore.a"}, names(g, app.Deps()))
	assert.Equal(t, []string{"libcore.a", "models.pz"}, names(g, app.Gates()))

	main, _ := g.Lookup("main.o")
	assert.Equal(t, []string{"parser.h"}, names(g, main.Gates()))
	assert.Empty(t, g.Get(0).Gates(), "source-only inputs never gate")
}

func TestGraph_FreezeReportsEveryBadTarget(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g,
		domain.Declaration{Name: "readme.txt", Inputs: []string{"README"}},
		domain.Declaration{Name: "empty.o"},
		domain.Declaration{Name: "ok.o", Inputs: []string{"ok.c"}},
	)

	err := g.Freeze()
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrUnknownActionKind.Error())
	assert.ErrorContains(t, err, domain.ErrNoInputs.Error())
	assert.False(t, g.Frozen())
}

func TestGraph_PhonyWithoutInputsIsAllowed(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g, domain.Declaration{Name: "all", Kind: "phony"})
	require.NoError(t, g.Freeze())

	all, ok := g.Lookup("all")
	require.True(t, ok)
	assert.True(t, all.IsPhony())
	assert.Empty(t, all.Gates())
}

func TestTarget_ResolveKindBeforeFreeze(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g,
		domain.Declaration{Name: "gen/wrap.obj", Inputs: []string{"gen/wrap.inl"}, Kind: "compile"},
		domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}},
		domain.Declaration{Name: "odd.bin", Inputs: []string{"x"}},
	)

	explicit, _ := g.Lookup("gen/wrap.obj")
	kind, err := explicit.ResolveKind()
	require.NoError(t, err)
	assert.Equal(t, domain.KindCompile, kind, "an explicit kind wins over the suffixes")

	derived, _ := g.Lookup("a.o")
	kind, err = derived.ResolveKind()
	require.NoError(t, err)
	assert.Equal(t, domain.KindCompile, kind)

	unknown, _ := g.Lookup("odd.bin")
	_, err = unknown.ResolveKind()
	require.ErrorContains(t, err, domain.ErrUnknownActionKind.Error())
}

func TestGraph_SelfReferenceIsKept(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g, domain.Declaration{Name: "loop.o", Inputs: []string{"loop.o"}, Kind: "compile"})
	require.NoError(t, g.Freeze())

	loop, _ := g.Lookup("loop.o")
	assert.Equal(t, []domain.TargetID{loop.ID}, loop.Gates())
}

func TestGraph_Select(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g,
		domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}},
		domain.Declaration{Name: "b.o", Inputs: []string{"b.c"}},
		domain.Declaration{Name: "liba.a", Inputs: []string{"a.o"}},
		domain.Declaration{Name: "libb.a", Inputs: []string{"b.o"}},
		domain.Declaration{Name: "a.exe", Inputs: []string{"liba.a"}},
	)

	_, err := g.Select([]string{"a.exe"})
	require.ErrorIs(t, err, domain.ErrGraphNotFrozen)

	require.NoError(t, g.Freeze())

	sub, err := g.Select([]string{"a.exe"})
	require.NoError(t, err)

	var got []string
	for target := range sub.Targets() {
		got = append(got, target.Output())
	}
	assert.Equal(t, []string{"a.o", "liba.a", "a.exe"}, got)
	assert.True(t, sub.Frozen())

	_, err = g.Select([]string{"missing"})
	require.ErrorContains(t, err, domain.ErrTargetNotFound.Error())
}

func TestGraph_TargetsStopsEarly(t *testing.T) {
	g := domain.NewGraph()
	declareAll(t, g,
		domain.Declaration{Name: "a.o", Inputs: []string{"a.c"}},
		domain.Declaration{Name: "b.o", Inputs: []string{"b.c"}},
	)

	var seen []string
	for target := range g.Targets() {
		seen = append(seen, target.Output())
		break
	}
	assert.True(t, slices.Equal([]string{"a.o"}, seen))
}
